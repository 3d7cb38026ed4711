package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/ryanahq/ryana/internal/apperr"
	"github.com/ryanahq/ryana/internal/models"
)

// AddSubject persists a new subject. Fails with ErrDuplicateName when the
// name is already taken; the store is left unchanged. A caller-provided id
// and createdAt are preserved for imports.
func (s *Store) AddSubject(ctx context.Context, draft models.Subject) (string, error) {
	if draft.Name == "" {
		return "", fmt.Errorf("store: subject name is required: %w", apperr.ErrValidation)
	}

	sub := draft
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.ColorIndex == 0 {
		sub.ColorIndex = 1
	}
	if sub.ColorCode == "" {
		sub.ColorCode = randomColor()
	}
	if sub.Year == 0 {
		sub.Year = 1
	}
	if sub.Semester == 0 {
		sub.Semester = 1
	}
	if sub.CreatedAt == 0 {
		sub.CreatedAt = time.Now().UnixMilli()
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("store: begin tx: %v: %w", err, apperr.ErrStorageUnavailable)
	}
	defer tx.Rollback() //nolint:errcheck

	var n int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM subjects WHERE name = ?`, sub.Name).Scan(&n); err != nil {
		return "", fmt.Errorf("store: check subject name: %w", err)
	}
	if n > 0 {
		return "", fmt.Errorf("store: subject name %q: %w", sub.Name, apperr.ErrDuplicateName)
	}

	_, err = tx.Exec(`
		INSERT INTO subjects (id, name, color_code, color_index, description, year, semester, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, sub.ID, sub.Name, sub.ColorCode, sub.ColorIndex, sub.Description, sub.Year, sub.Semester, sub.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("store: insert subject %s: %w", sub.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("store: commit add subject: %w", err)
	}
	return sub.ID, nil
}

// GetAllSubjects returns every subject in storage order.
func (s *Store) GetAllSubjects(ctx context.Context) ([]models.Subject, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, name, color_code, color_index, description, year, semester, created_at
		FROM subjects
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list subjects: %w", err)
	}
	defer rows.Close()

	var out []models.Subject
	for rows.Next() {
		var sub models.Subject
		if err := rows.Scan(&sub.ID, &sub.Name, &sub.ColorCode, &sub.ColorIndex,
			&sub.Description, &sub.Year, &sub.Semester, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan subject: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// UpdateSubject merges the patch over the stored record. A rename onto an
// existing name fails with ErrDuplicateName; a missing id with ErrNotFound.
func (s *Store) UpdateSubject(ctx context.Context, id string, patch models.SubjectPatch) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %v: %w", err, apperr.ErrStorageUnavailable)
	}
	defer tx.Rollback() //nolint:errcheck

	var sub models.Subject
	err = tx.QueryRow(`
		SELECT id, name, color_code, color_index, description, year, semester, created_at
		FROM subjects WHERE id = ?
	`, id).Scan(&sub.ID, &sub.Name, &sub.ColorCode, &sub.ColorIndex,
		&sub.Description, &sub.Year, &sub.Semester, &sub.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("store: subject %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("store: get subject %s: %w", id, err)
	}

	if patch.Name != nil && *patch.Name != sub.Name {
		var n int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM subjects WHERE name = ?`, *patch.Name).Scan(&n); err != nil {
			return fmt.Errorf("store: check subject name: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("store: subject name %q: %w", *patch.Name, apperr.ErrDuplicateName)
		}
		sub.Name = *patch.Name
	}
	if patch.ColorCode != nil {
		sub.ColorCode = *patch.ColorCode
	}
	if patch.ColorIndex != nil {
		sub.ColorIndex = *patch.ColorIndex
	}
	if patch.Description != nil {
		sub.Description = *patch.Description
	}
	if patch.Year != nil {
		sub.Year = *patch.Year
	}
	if patch.Semester != nil {
		sub.Semester = *patch.Semester
	}

	_, err = tx.Exec(`
		UPDATE subjects
		SET name = ?, color_code = ?, color_index = ?, description = ?, year = ?, semester = ?
		WHERE id = ?
	`, sub.Name, sub.ColorCode, sub.ColorIndex, sub.Description, sub.Year, sub.Semester, id)
	if err != nil {
		return fmt.Errorf("store: update subject %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit update subject: %w", err)
	}
	return nil
}

// DeleteSubject removes a subject. Snippets referencing its name keep the
// dangling label; there is no cascade. Fails with ErrNotFound if absent.
func (s *Store) DeleteSubject(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM subjects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete subject %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete subject %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("store: subject %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// randomColor picks a random HSL accent for subjects created without one.
func randomColor() string {
	return fmt.Sprintf("hsl(%d, 65%%, 55%%)", rand.IntN(360))
}
