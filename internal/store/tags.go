package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ryanahq/ryana/internal/models"
)

// GetAllTags returns every tag aggregate, most used first.
func (s *Store) GetAllTags(ctx context.Context) ([]models.Tag, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, name, count, last_used
		FROM tags
		ORDER BY count DESC, last_used DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list tags: %w", err)
	}
	defer rows.Close()

	var out []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Count, &t.LastUsed); err != nil {
			return nil, fmt.Errorf("store: scan tag: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetTagSuggestions returns up to ten tags whose name starts with the given
// prefix, case-insensitively, keeping the most-used-first order.
func (s *Store) GetTagSuggestions(ctx context.Context, prefix string) ([]models.Tag, error) {
	all, err := s.GetAllTags(ctx)
	if err != nil {
		return nil, err
	}
	p := strings.ToLower(prefix)

	var out []models.Tag
	for _, t := range all {
		if strings.HasPrefix(strings.ToLower(t.Name), p) {
			out = append(out, t)
			if len(out) == 10 {
				break
			}
		}
	}
	return out, nil
}

// applyTagDelta adjusts tag counts inside the caller's transaction.
// Removed names decrement their tag; a count reaching zero deletes the tag
// record. Added names increment their tag, creating it on first use. A
// removal targeting a missing tag is a no-op: the invariant says it cannot
// happen, and a stale name must not abort the snippet write. Removals and
// additions are independent read-modify-write steps, so a name appearing in
// both lists nets out correctly.
func applyTagDelta(tx *sql.Tx, removed, added []string, now int64) error {
	for _, name := range removed {
		var id string
		var count int
		err := tx.QueryRow(`SELECT id, count FROM tags WHERE name = ?`, name).Scan(&id, &count)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return fmt.Errorf("store: look up tag %q: %w", name, err)
		}
		count--
		if count <= 0 {
			if _, err := tx.Exec(`DELETE FROM tags WHERE id = ?`, id); err != nil {
				return fmt.Errorf("store: delete tag %q: %w", name, err)
			}
			continue
		}
		if _, err := tx.Exec(`UPDATE tags SET count = ?, last_used = ? WHERE id = ?`, count, now, id); err != nil {
			return fmt.Errorf("store: decrement tag %q: %w", name, err)
		}
	}

	for _, name := range added {
		var id string
		var count int
		err := tx.QueryRow(`SELECT id, count FROM tags WHERE name = ?`, name).Scan(&id, &count)
		if errors.Is(err, sql.ErrNoRows) {
			if _, err := tx.Exec(`
				INSERT INTO tags (id, name, count, last_used) VALUES (?, ?, 1, ?)
			`, uuid.NewString(), name, now); err != nil {
				return fmt.Errorf("store: create tag %q: %w", name, err)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("store: look up tag %q: %w", name, err)
		}
		if _, err := tx.Exec(`UPDATE tags SET count = ?, last_used = ? WHERE id = ?`, count+1, now, id); err != nil {
			return fmt.Errorf("store: increment tag %q: %w", name, err)
		}
	}
	return nil
}

// diffTags computes the set differences between the stored and incoming tag
// lists, by string equality.
func diffTags(oldTags, newTags []string) (removed, added []string) {
	oldSet := make(map[string]struct{}, len(oldTags))
	for _, t := range oldTags {
		oldSet[t] = struct{}{}
	}
	newSet := make(map[string]struct{}, len(newTags))
	for _, t := range newTags {
		newSet[t] = struct{}{}
	}
	for _, t := range oldTags {
		if _, ok := newSet[t]; !ok {
			removed = append(removed, t)
		}
	}
	for _, t := range newTags {
		if _, ok := oldSet[t]; !ok {
			added = append(added, t)
		}
	}
	return removed, added
}
