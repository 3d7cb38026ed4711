package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ryanahq/ryana/internal/apperr"
	"github.com/ryanahq/ryana/internal/models"
)

// ExportDatabase produces a point-in-time snapshot of all four collections.
// Each collection read is a single query and therefore internally
// consistent; the reads always hit the live store, never a cache.
func (s *Store) ExportDatabase(ctx context.Context) (*models.Snapshot, error) {
	snippets, err := s.GetAllSnippets(ctx, Filters{})
	if err != nil {
		return nil, err
	}
	subjects, err := s.GetAllSubjects(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	tags, err := s.GetAllTags(ctx)
	if err != nil {
		return nil, err
	}
	return &models.Snapshot{
		Version:    schemaVersion,
		ExportedAt: time.Now().UnixMilli(),
		Snippets:   nonNil(snippets),
		Subjects:   nonNil(subjects),
		Settings:   settings,
		Tags:       nonNil(tags),
	}, nil
}

// ClearAllData empties the snippets, subjects, and tags collections in one
// transaction. Settings survive.
func (s *Store) ClearAllData(ctx context.Context) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %v: %w", err, apperr.ErrStorageUnavailable)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, table := range []string{"snippets", "subjects", "tags"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("store: clear %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit clear: %w", err)
	}
	return nil
}
