package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mfalzone/resil/internal/resiliency"
	"github.com/mfalzone/resil/internal/storage"
)

// Store implements ReportArchive using SQLite
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite archive with the given database path
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Run migrations
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// StoreRun persists a finalized run report
func (s *Store) StoreRun(runID string, report *resiliency.DetailedReport) error {
	if report == nil {
		return fmt.Errorf("nil report")
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO runs (run_id, resiliency_score, stability_score, report_json)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			resiliency_score = excluded.resiliency_score,
			stability_score = excluded.stability_score,
			report_json = excluded.report_json
	`

	_, err = tx.Exec(query,
		runID,
		report.Summary.ResiliencyScore,
		report.Summary.SystemStabilityScore,
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to store run: %w", err)
	}

	// Replace the scenario rows wholesale; a re-finalized run overwrites
	// its previous archive entry.
	if _, err := tx.Exec("DELETE FROM scenario_scores WHERE run_id = ?", runID); err != nil {
		return fmt.Errorf("failed to clear scenario scores: %w", err)
	}

	for _, sc := range report.Scenarios {
		_, err := tx.Exec(
			"INSERT INTO scenario_scores (run_id, name, score, weight, passed, failed) VALUES (?, ?, ?, ?, ?, ?)",
			runID, sc.Name, sc.Score, sc.Weight, sc.Breakdown.Passed, sc.Breakdown.Failed,
		)
		if err != nil {
			return fmt.Errorf("failed to store scenario score: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	return nil
}

// GetRun retrieves a stored run by ID
func (s *Store) GetRun(runID string) (*storage.StoredRun, error) {
	row := s.db.QueryRow(
		"SELECT run_id, resiliency_score, stability_score, report_json, created_at FROM runs WHERE run_id = ?",
		runID,
	)

	var run storage.StoredRun
	var reportJSON string
	if err := row.Scan(&run.RunID, &run.ResiliencyScore, &run.StabilityScore, &reportJSON, &run.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run not found: %s", runID)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var report resiliency.DetailedReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	run.Report = &report

	return &run, nil
}

// ListRuns retrieves recent runs, newest first
func (s *Store) ListRuns(limit int) ([]storage.StoredRun, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(
		"SELECT run_id, resiliency_score, stability_score, report_json, created_at FROM runs ORDER BY created_at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []storage.StoredRun
	for rows.Next() {
		var run storage.StoredRun
		var reportJSON string
		if err := rows.Scan(&run.RunID, &run.ResiliencyScore, &run.StabilityScore, &reportJSON, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		var report resiliency.DetailedReport
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			return nil, fmt.Errorf("failed to unmarshal report: %w", err)
		}
		run.Report = &report

		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// Close closes the storage connection
func (s *Store) Close() error {
	return s.db.Close()
}
