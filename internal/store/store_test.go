// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/trace-digest/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.HistoryConfig{IndexDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleResult(source string) *types.ExtractionResult {
	return &types.ExtractionResult{
		SourceFile: source,
		UserGoal:   "find quantum papers",
		GatheredFacts: []types.FactBlock{
			{
				Topic:    "quantum error correction",
				Findings: "surface codes dominate current hardware proposals",
				Sources:  []string{"[1] Surface Codes"},
			},
			{
				Topic:    "decoherence",
				Findings: "noise limits logical qubit lifetimes",
				Sources:  []string{"[2] Noise Study", "[3] Follow-up"},
			},
		},
		PreviousAnalyses: []types.AnalysisStep{{StepID: 3, Analysis: "summary"}},
		LinksToText:      []string{"Sub-task: q, Answer: a..., Link: http://x"},
	}
}

func TestNewStoreCreatesIndexDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "index")
	s, err := NewStore(types.HistoryConfig{IndexDir: dir})
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Join(dir, "digest.db"))
	assert.NoError(t, err)
}

func TestRecordAndList(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id1, err := s.Record(ctx, sampleResult("/workspace/a.json"), "/workspace/a_processed.json")
	require.NoError(t, err)
	id2, err := s.Record(ctx, sampleResult("/workspace/b.json"), "/workspace/b_processed.json")
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	runs, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// Newest first.
	assert.Equal(t, "/workspace/b.json", runs[0].SourceFile)
	assert.Equal(t, "/workspace/b_processed.json", runs[0].SavedPath)
	assert.Equal(t, "find quantum papers", runs[0].UserGoal)
	assert.Equal(t, 2, runs[0].FactsCount)
	assert.Equal(t, 1, runs[0].AnalysesCount)
	assert.Equal(t, 1, runs[0].LinksCount)
	assert.False(t, runs[0].ProcessedAt.IsZero())
}

func TestListLimit(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.Record(ctx, sampleResult("/workspace/t.json"), "/workspace/t_processed.json")
		require.NoError(t, err)
	}

	runs, err := s.List(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestSearchFindsFactsByFindings(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	runID, err := s.Record(ctx, sampleResult("/workspace/a.json"), "/workspace/a_processed.json")
	require.NoError(t, err)

	matches, err := s.Search(ctx, "decoherence", 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	m := matches[0]
	assert.Equal(t, runID, m.RunID)
	assert.Equal(t, "/workspace/a.json", m.SourceFile)
	assert.Equal(t, "find quantum papers", m.UserGoal)
	assert.Equal(t, "decoherence", m.Topic)
	assert.Contains(t, m.Findings, "logical qubit")
	assert.Equal(t, []string{"[2] Noise Study", "[3] Follow-up"}, m.Sources)
}

func TestSearchNoMatches(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.Record(ctx, sampleResult("/workspace/a.json"), "/workspace/a_processed.json")
	require.NoError(t, err)

	matches, err := s.Search(ctx, "unrelated", 0)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestExportYAMLAndJSON(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(types.HistoryConfig{IndexDir: dir})
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	_, err = s.Record(ctx, sampleResult("/workspace/a.json"), "/workspace/a_processed.json")
	require.NoError(t, err)

	require.NoError(t, s.ExportYAML(ctx))
	require.NoError(t, s.ExportJSON(ctx))

	yamlData, err := os.ReadFile(filepath.Join(dir, "export.yaml"))
	require.NoError(t, err)
	var fromYAML []ExportEntry
	require.NoError(t, yaml.Unmarshal(yamlData, &fromYAML))
	require.Len(t, fromYAML, 1)
	assert.Equal(t, "/workspace/a.json", fromYAML[0].Run.SourceFile)
	require.Len(t, fromYAML[0].Facts, 2)
	assert.Equal(t, "quantum error correction", fromYAML[0].Facts[0].Topic)

	jsonData, err := os.ReadFile(filepath.Join(dir, "export.json"))
	require.NoError(t, err)
	var fromJSON []ExportEntry
	require.NoError(t, json.Unmarshal(jsonData, &fromJSON))
	require.Len(t, fromJSON, 1)
	assert.Equal(t, fromYAML[0].Facts, fromJSON[0].Facts)
}
