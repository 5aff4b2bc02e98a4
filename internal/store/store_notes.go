package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const sceneNoteColumns = "run_id, institution, scene, length_seconds, image_path, description, category, noted_at"

// UpsertSceneNote inserts or replaces the annotation for the note's
// (institution, scene) key.
func (s *Store) UpsertSceneNote(ctx context.Context, note *SceneNote) error {
	note.NotedAt = time.Now().UTC()
	err := s.execWithRetry(ctx,
		`INSERT INTO scene_notes (`+sceneNoteColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(institution, scene) DO UPDATE SET
             run_id = excluded.run_id,
             length_seconds = excluded.length_seconds,
             image_path = excluded.image_path,
             description = excluded.description,
             category = excluded.category,
             noted_at = excluded.noted_at`,
		note.RunID,
		note.Institution,
		note.Scene,
		note.LengthSeconds,
		nullableString(note.ImagePath),
		nullableString(note.Description),
		nullableString(note.Category),
		timestamp(note.NotedAt))
	if err != nil {
		return fmt.Errorf("upsert scene note: %w", err)
	}
	return nil
}

// ListSceneNotes returns an institution's annotations ordered by scene.
// An empty institution returns every note ordered by institution then
// scene.
func (s *Store) ListSceneNotes(ctx context.Context, institution string) ([]SceneNote, error) {
	query := `SELECT ` + sceneNoteColumns + ` FROM scene_notes WHERE institution = ? ORDER BY scene`
	args := []any{institution}
	if institution == "" {
		query = `SELECT ` + sceneNoteColumns + ` FROM scene_notes ORDER BY institution, scene`
		args = nil
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list scene notes: %w", err)
	}
	defer rows.Close()

	var notes []SceneNote
	for rows.Next() {
		var (
			note        SceneNote
			imagePath   sql.NullString
			description sql.NullString
			category    sql.NullString
			notedRaw    string
		)
		if err := rows.Scan(&note.RunID, &note.Institution, &note.Scene, &note.LengthSeconds,
			&imagePath, &description, &category, &notedRaw); err != nil {
			return nil, fmt.Errorf("scan scene note: %w", err)
		}
		note.ImagePath = imagePath.String
		note.Description = description.String
		note.Category = category.String
		note.NotedAt = parseTimestamp(notedRaw)
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scene notes: %w", err)
	}
	return notes, nil
}
