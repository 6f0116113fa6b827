// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// ExportEntry holds one run with its gathered facts for export.
type ExportEntry struct {
	Run   Run          `json:"run" yaml:"run"`
	Facts []ExportFact `json:"facts" yaml:"facts"`
}

// ExportFact is one gathered fact in an export entry.
type ExportFact struct {
	Topic    string   `json:"topic" yaml:"topic"`
	Findings string   `json:"findings" yaml:"findings"`
	Sources  []string `json:"sources" yaml:"sources"`
}

const exportLimit = 100000

// ExportYAML writes the full run history to indexDir/export.yaml.
func (s *Store) ExportYAML(ctx context.Context) error {
	entries, err := s.exportEntries(ctx)
	if err != nil {
		return err
	}

	path := filepath.Join(s.indexDir, "export.yaml")
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the full run history to indexDir/export.json.
func (s *Store) ExportJSON(ctx context.Context) error {
	entries, err := s.exportEntries(ctx)
	if err != nil {
		return err
	}

	path := filepath.Join(s.indexDir, "export.json")
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Store) exportEntries(ctx context.Context) ([]ExportEntry, error) {
	runs, err := s.List(ctx, exportLimit)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, len(runs))
	for i, r := range runs {
		facts, err := s.runFacts(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		entries[i] = ExportEntry{Run: r, Facts: facts}
	}
	return entries, nil
}

func (s *Store) runFacts(ctx context.Context, runID int64) ([]ExportFact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT topic, findings, sources FROM facts WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying facts for run %d: %w", runID, err)
	}
	defer rows.Close()

	var facts []ExportFact
	for rows.Next() {
		var (
			f           ExportFact
			sourcesJSON string
		)
		if err := rows.Scan(&f.Topic, &f.Findings, &sourcesJSON); err != nil {
			return nil, fmt.Errorf("scanning fact: %w", err)
		}
		_ = json.Unmarshal([]byte(sourcesJSON), &f.Sources)
		facts = append(facts, f)
	}
	return facts, rows.Err()
}
