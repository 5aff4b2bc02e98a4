package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const runColumns = "id, kind, sheet_path, model, started_at, finished_at, institutions, rows_labeled, rows_failed"

// BeginRun records the start of a labeling pipeline invocation and returns
// the run with its generated identifier.
func (s *Store) BeginRun(ctx context.Context, kind RunKind, sheetPath, model string) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		Kind:      kind,
		SheetPath: sheetPath,
		Model:     model,
		StartedAt: time.Now().UTC(),
	}
	err := s.execWithRetry(ctx,
		`INSERT INTO runs (id, kind, sheet_path, model, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, string(run.Kind), nullableString(run.SheetPath), nullableString(run.Model), timestamp(run.StartedAt))
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// FinishRun stamps a run's completion time and totals.
func (s *Store) FinishRun(ctx context.Context, id string, institutions, labeled, failed int) error {
	err := s.execWithRetry(ctx,
		`UPDATE runs SET finished_at = ?, institutions = ?, rows_labeled = ?, rows_failed = ? WHERE id = ?`,
		timestamp(time.Now()), institutions, labeled, failed, id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first. Ordering follows
// insertion rather than the started_at text, which trims trailing zeros
// and does not sort chronologically.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+runColumns+` FROM runs ORDER BY rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		id           string
		kind         string
		sheetPath    sql.NullString
		model        sql.NullString
		startedRaw   string
		finishedRaw  sql.NullString
		institutions int
		labeled      int
		failed       int
	)
	if err := scanner.Scan(&id, &kind, &sheetPath, &model, &startedRaw, &finishedRaw,
		&institutions, &labeled, &failed); err != nil {
		return nil, err
	}
	return &Run{
		ID:           id,
		Kind:         RunKind(kind),
		SheetPath:    sheetPath.String,
		Model:        model.String,
		StartedAt:    parseTimestamp(startedRaw),
		FinishedAt:   parseTimestamp(finishedRaw.String),
		Institutions: institutions,
		RowsLabeled:  labeled,
		RowsFailed:   failed,
	}, nil
}
