package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bft-labs/gliderbatch/internal/domain"
)

// ReportStore implements ports.ReportRepository with SQLite. Every saved
// report is kept as a row of the runs table.
type ReportStore struct {
	db *sql.DB
}

// NewReportStore creates a new SQLite report store.
func NewReportStore(db *sql.DB) *ReportStore {
	return &ReportStore{db: db}
}

// Save stores report, replacing an earlier save of the same run.
func (s *ReportStore) Save(ctx context.Context, report domain.RunReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	ok, failed, skipped := report.Counts()
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (run_id, started_at, finished_at, succeeded, failed, skipped, report)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.StartedAt.UTC().Format(time.RFC3339Nano),
		report.FinishedAt.UTC().Format(time.RFC3339Nano),
		ok, failed, skipped, string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", report.RunID, err)
	}
	return nil
}

// Load returns the most recently saved report, or an empty one.
func (s *ReportStore) Load(ctx context.Context) (domain.RunReport, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		"SELECT report FROM runs ORDER BY rowid DESC LIMIT 1",
	).Scan(&data)
	if err == sql.ErrNoRows {
		return domain.RunReport{}, nil
	}
	if err != nil {
		return domain.RunReport{}, fmt.Errorf("failed to load run: %w", err)
	}

	var report domain.RunReport
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return domain.RunReport{}, fmt.Errorf("failed to parse run: %w", err)
	}
	return report, nil
}

// RunSummary is one row of the run history.
type RunSummary struct {
	RunID     string
	StartedAt time.Time
	Succeeded int
	Failed    int
	Skipped   int
}

// History returns up to limit runs, newest first.
func (s *ReportStore) History(ctx context.Context, limit int) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT run_id, started_at, succeeded, failed, skipped FROM runs ORDER BY rowid DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			r       RunSummary
			started string
		)
		if err := rows.Scan(&r.RunID, &started, &r.Succeeded, &r.Failed, &r.Skipped); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("failed to parse started_at: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
