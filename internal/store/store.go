// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists a history of processing runs and builds a
// searchable index over gathered facts. See docs/ARCHITECTURE.md
// § History Index.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/trace-digest/pkg/types"
)

const dbFile = "digest.db"

// Store manages the processing-run history SQLite database.
type Store struct {
	db         *sql.DB
	indexDir   string
	maxResults int
}

// NewStore opens or creates the history database at indexDir/digest.db,
// creating the schema if it does not exist.
func NewStore(cfg types.HistoryConfig) (*Store, error) {
	indexDir := cfg.IndexDir
	if indexDir == "" {
		indexDir = "index"
	}
	if err := os.MkdirAll(indexDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(indexDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		indexDir:   indexDir,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source_file TEXT NOT NULL,
			saved_path TEXT NOT NULL,
			user_goal TEXT,
			facts_count INTEGER NOT NULL,
			analyses_count INTEGER NOT NULL,
			links_count INTEGER NOT NULL,
			processed_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS facts (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			topic TEXT,
			findings TEXT,
			sources TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_facts_run_id ON facts(run_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='facts_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE facts_fts USING fts5(topic, findings, content=facts, content_rowid=rowid)`,
			`CREATE TRIGGER facts_ai AFTER INSERT ON facts BEGIN
				INSERT INTO facts_fts(rowid, topic, findings) VALUES (new.rowid, new.topic, new.findings);
			END`,
			`CREATE TRIGGER facts_ad AFTER DELETE ON facts BEGIN
				INSERT INTO facts_fts(facts_fts, rowid, topic, findings) VALUES('delete', old.rowid, old.topic, old.findings);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// Run is one recorded processing run.
type Run struct {
	ID            int64     `json:"id" yaml:"id"`
	SourceFile    string    `json:"source_file" yaml:"source_file"`
	SavedPath     string    `json:"saved_path" yaml:"saved_path"`
	UserGoal      string    `json:"user_goal" yaml:"user_goal"`
	FactsCount    int       `json:"facts_count" yaml:"facts_count"`
	AnalysesCount int       `json:"analyses_count" yaml:"analyses_count"`
	LinksCount    int       `json:"links_count" yaml:"links_count"`
	ProcessedAt   time.Time `json:"processed_at" yaml:"processed_at"`
}

// Record inserts one processing run and its gathered facts in a single
// transaction, returning the new run ID.
func (s *Store) Record(ctx context.Context, result *types.ExtractionResult, savedPath string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (source_file, saved_path, user_goal, facts_count, analyses_count, links_count, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.SourceFile, savedPath, result.UserGoal,
		len(result.GatheredFacts), len(result.PreviousAnalyses), len(result.LinksToText),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run ID: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO facts (run_id, topic, findings, sources) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, fact := range result.GatheredFacts {
		sourcesJSON, _ := json.Marshal(fact.Sources)
		if _, err := stmt.ExecContext(ctx, runID, fact.Topic, fact.Findings, string(sourcesJSON)); err != nil {
			return 0, fmt.Errorf("inserting fact %q: %w", fact.Topic, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// List returns the most recent runs, newest first. A limit of zero uses
// the store default.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = s.maxResults
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_file, saved_path, user_goal, facts_count, analyses_count, links_count, processed_at
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r        Run
			goal     sql.NullString
			procTime string
		)
		if err := rows.Scan(&r.ID, &r.SourceFile, &r.SavedPath, &goal,
			&r.FactsCount, &r.AnalysesCount, &r.LinksCount, &procTime); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.UserGoal = goal.String
		if t, err := time.Parse(time.RFC3339Nano, procTime); err == nil {
			r.ProcessedAt = t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// FactMatch is one full-text search hit with run provenance.
type FactMatch struct {
	RunID      int64    `json:"run_id" yaml:"run_id"`
	SourceFile string   `json:"source_file" yaml:"source_file"`
	UserGoal   string   `json:"user_goal" yaml:"user_goal"`
	Topic      string   `json:"topic" yaml:"topic"`
	Findings   string   `json:"findings" yaml:"findings"`
	Sources    []string `json:"sources" yaml:"sources"`
}

// Search runs an FTS5 query over gathered fact topics and findings,
// ranked by relevance. A limit of zero uses the store default.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]FactMatch, error) {
	if limit <= 0 {
		limit = s.maxResults
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT f.run_id, r.source_file, r.user_goal, f.topic, f.findings, f.sources
		 FROM facts_fts
		 JOIN facts f ON f.rowid = facts_fts.rowid
		 JOIN runs r ON r.id = f.run_id
		 WHERE facts_fts MATCH ?
		 ORDER BY facts_fts.rank
		 LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying facts: %w", err)
	}
	defer rows.Close()

	var matches []FactMatch
	for rows.Next() {
		var (
			m           FactMatch
			goal        sql.NullString
			sourcesJSON sql.NullString
		)
		if err := rows.Scan(&m.RunID, &m.SourceFile, &goal, &m.Topic, &m.Findings, &sourcesJSON); err != nil {
			return nil, fmt.Errorf("scanning fact: %w", err)
		}
		m.UserGoal = goal.String
		if sourcesJSON.Valid {
			_ = json.Unmarshal([]byte(sourcesJSON.String), &m.Sources)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
