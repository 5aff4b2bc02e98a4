package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const clipLabelColumns = "run_id, institution, clip, next_clip, length, category, subcategory, description, revision, scenes_guess, image_path, output, labeled_at"

// UpsertClipLabel inserts or replaces the ledger row for the label's
// (institution, clip) key. Re-labeling a clip overwrites the previous
// output and re-stamps it.
func (s *Store) UpsertClipLabel(ctx context.Context, label *ClipLabel) error {
	label.LabeledAt = time.Now().UTC()
	var nextClip any
	if label.HasNext {
		nextClip = label.NextClip
	}
	err := s.execWithRetry(ctx,
		`INSERT INTO clip_labels (`+clipLabelColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(institution, clip) DO UPDATE SET
             run_id = excluded.run_id,
             next_clip = excluded.next_clip,
             length = excluded.length,
             category = excluded.category,
             subcategory = excluded.subcategory,
             description = excluded.description,
             revision = excluded.revision,
             scenes_guess = excluded.scenes_guess,
             image_path = excluded.image_path,
             output = excluded.output,
             labeled_at = excluded.labeled_at`,
		label.RunID,
		label.Institution,
		label.Clip,
		nextClip,
		nullableString(label.Length),
		nullableString(label.Category),
		nullableString(label.Subcategory),
		nullableString(label.Description),
		nullableString(label.Revision),
		nullableString(label.ScenesGuess),
		nullableString(label.ImagePath),
		label.Output,
		timestamp(label.LabeledAt))
	if err != nil {
		return fmt.Errorf("upsert clip label: %w", err)
	}
	return nil
}

// GetClipLabel fetches the ledger row for one clip, or nil when the clip
// has never been labeled.
func (s *Store) GetClipLabel(ctx context.Context, institution string, clip int) (*ClipLabel, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+clipLabelColumns+` FROM clip_labels WHERE institution = ? AND clip = ?`,
		institution, clip)
	label, err := scanClipLabel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get clip label: %w", err)
	}
	return label, nil
}

// ListClipLabels returns an institution's ledger rows ordered by clip.
// An empty institution returns every row, ordered by institution then clip,
// which is the traversal the consolidated export uses.
func (s *Store) ListClipLabels(ctx context.Context, institution string) ([]ClipLabel, error) {
	query := `SELECT ` + clipLabelColumns + ` FROM clip_labels WHERE institution = ? ORDER BY clip`
	args := []any{institution}
	if institution == "" {
		query = `SELECT ` + clipLabelColumns + ` FROM clip_labels ORDER BY institution, clip`
		args = nil
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list clip labels: %w", err)
	}
	defer rows.Close()

	var labels []ClipLabel
	for rows.Next() {
		label, err := scanClipLabel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan clip label: %w", err)
		}
		labels = append(labels, *label)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clip labels: %w", err)
	}
	return labels, nil
}

// InstitutionSummaries aggregates label coverage per institution for the
// status display.
func (s *Store) InstitutionSummaries(ctx context.Context) ([]InstitutionSummary, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT institution,
                SUM(CASE WHEN output LIKE 'ERROR:%' THEN 0 ELSE 1 END),
                SUM(CASE WHEN output LIKE 'ERROR:%' THEN 1 ELSE 0 END),
                MAX(labeled_at)
         FROM clip_labels GROUP BY institution ORDER BY institution`)
	if err != nil {
		return nil, fmt.Errorf("institution summaries: %w", err)
	}
	defer rows.Close()

	var summaries []InstitutionSummary
	for rows.Next() {
		var (
			summary InstitutionSummary
			lastRaw sql.NullString
		)
		if err := rows.Scan(&summary.Institution, &summary.Labeled, &summary.Failed, &lastRaw); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summary.LastLabeled = parseTimestamp(lastRaw.String)
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summaries: %w", err)
	}
	return summaries, nil
}

func scanClipLabel(scanner interface{ Scan(dest ...any) error }) (*ClipLabel, error) {
	var (
		runID       string
		institution string
		clip        int
		nextClip    sql.NullInt64
		length      sql.NullString
		category    sql.NullString
		subcategory sql.NullString
		description sql.NullString
		revision    sql.NullString
		scenesGuess sql.NullString
		imagePath   sql.NullString
		output      string
		labeledRaw  string
	)
	if err := scanner.Scan(&runID, &institution, &clip, &nextClip, &length, &category,
		&subcategory, &description, &revision, &scenesGuess, &imagePath, &output, &labeledRaw); err != nil {
		return nil, err
	}
	return &ClipLabel{
		RunID:       runID,
		Institution: institution,
		Clip:        clip,
		NextClip:    int(nextClip.Int64),
		HasNext:     nextClip.Valid,
		Length:      length.String,
		Category:    category.String,
		Subcategory: subcategory.String,
		Description: description.String,
		Revision:    revision.String,
		ScenesGuess: scenesGuess.String,
		ImagePath:   imagePath.String,
		Output:      output,
		LabeledAt:   parseTimestamp(labeledRaw),
	}, nil
}
