// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists completed research runs in a local SQLite database.
// The pipeline itself owns no state; persistence is the caller's concern and
// this package is that caller's tool.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/stackscout/pkg/types"
)

const dbFile = "stackscout.db"

const defaultMaxRuns = 50

// ErrNotFound reports that no run exists with the requested ID.
var ErrNotFound = errors.New("run not found")

// Run is one persisted pipeline invocation.
type Run struct {
	ID          string                  `json:"id" yaml:"id"`
	ProductName string                  `json:"product_name" yaml:"product_name"`
	CreatedAt   time.Time               `json:"created_at" yaml:"created_at"`
	Aggregate   types.ResearchAggregate `json:"aggregate" yaml:"aggregate"`
}

// RunSummary is the listing view of a run, without the aggregate payload.
type RunSummary struct {
	ID          string    `json:"id" yaml:"id"`
	ProductName string    `json:"product_name" yaml:"product_name"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	Categories  int       `json:"categories" yaml:"categories"`
	WithOptions int       `json:"with_options" yaml:"with_options"`
}

// Store manages the runs database.
type Store struct {
	db      *sql.DB
	maxRuns int
}

// New opens or creates the runs database at cfg.DataDir/stackscout.db,
// creating the schema if needed.
func New(cfg types.StoreConfig) (*Store, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxRuns := cfg.MaxRuns
	if maxRuns <= 0 {
		maxRuns = defaultMaxRuns
	}

	s := &Store{db: db, maxRuns: maxRuns}
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
			id TEXT PRIMARY KEY,
			product_name TEXT NOT NULL,
			created_at TEXT NOT NULL,
			categories INTEGER NOT NULL,
			with_options INTEGER NOT NULL,
			aggregate TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveRun persists a completed aggregate and returns the stored run.
func (s *Store) SaveRun(ctx context.Context, pctx types.ProductContext, agg types.ResearchAggregate) (Run, error) {
	run := Run{
		ID:          uuid.NewString(),
		ProductName: pctx.ProductName,
		CreatedAt:   time.Now().UTC(),
		Aggregate:   agg,
	}

	payload, err := json.Marshal(agg)
	if err != nil {
		return Run{}, fmt.Errorf("encoding aggregate: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, product_name, created_at, categories, with_options, aggregate)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.ProductName,
		run.CreatedAt.Format(time.RFC3339Nano),
		len(agg.QueriesGenerated),
		len(agg.ResearchResults),
		string(payload),
	)
	if err != nil {
		return Run{}, fmt.Errorf("inserting run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first, up to the configured
// maximum.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, product_name, created_at, categories, with_options
		 FROM runs ORDER BY created_at DESC LIMIT ?`, s.maxRuns)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		var sum RunSummary
		var createdAt string
		if err := rows.Scan(&sum.ID, &sum.ProductName, &createdAt, &sum.Categories, &sum.WithOptions); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if t, perr := time.Parse(time.RFC3339Nano, createdAt); perr == nil {
			sum.CreatedAt = t
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// GetRun loads one run and its aggregate by ID.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	var run Run
	var createdAt, payload string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, product_name, created_at, aggregate FROM runs WHERE id = ?`, id).
		Scan(&run.ID, &run.ProductName, &createdAt, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("querying run %s: %w", id, err)
	}

	if t, perr := time.Parse(time.RFC3339Nano, createdAt); perr == nil {
		run.CreatedAt = t
	}
	if err := json.Unmarshal([]byte(payload), &run.Aggregate); err != nil {
		return Run{}, fmt.Errorf("decoding aggregate for run %s: %w", id, err)
	}
	return run, nil
}
