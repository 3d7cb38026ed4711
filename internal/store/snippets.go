package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ryanahq/ryana/internal/apperr"
	"github.com/ryanahq/ryana/internal/models"
)

const snippetCols = `id, title, description, language, subject, type, code, favourite,
	color_code, tags, errors, usage, analytics, versions, sync, created_at, updated_at`

// Filters narrows GetAllSnippets. Zero-valued fields do not narrow.
// Result order is storage order; callers sort explicitly.
type Filters struct {
	Type      string
	Subject   string
	Language  string
	Tag       string
	Favourite *bool
}

// AddSnippet persists a new snippet and increments the tag counts for its
// tags. Defaults are applied to empty fields; a caller-provided id and
// timestamps are preserved so imports keep record identity. An empty code
// fails with ErrValidation.
func (s *Store) AddSnippet(ctx context.Context, draft models.Snippet) (string, error) {
	if draft.Code == "" {
		return "", fmt.Errorf("store: snippet code is required: %w", apperr.ErrValidation)
	}

	sn := draft
	now := time.Now().UnixMilli()
	if sn.ID == "" {
		sn.ID = uuid.NewString()
	}
	if sn.Title == "" {
		sn.Title = "Untitled Snippet"
	}
	if sn.Language == "" {
		sn.Language = "plaintext"
	}
	if sn.Type == "" {
		sn.Type = models.TypeCode
	}
	if sn.Sync.Source == "" {
		sn.Sync.Source = "local"
	}
	if sn.CreatedAt == 0 {
		sn.CreatedAt = now
	}
	if sn.UpdatedAt == 0 {
		sn.UpdatedAt = now
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("store: begin tx: %v: %w", err, apperr.ErrStorageUnavailable)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if err := insertSnippet(tx, sn); err != nil {
		return "", err
	}
	if err := applyTagDelta(tx, nil, sn.Tags, now); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("store: commit add snippet: %w", err)
	}
	return sn.ID, nil
}

// GetSnippet returns the snippet with the given id, or nil if absent.
func (s *Store) GetSnippet(ctx context.Context, id string) (*models.Snippet, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT `+snippetCols+` FROM snippets WHERE id = ?`, id)
	sn, err := scanSnippet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get snippet %s: %w", id, err)
	}
	return &sn, nil
}

// GetAllSnippets returns snippets matching the given filters, in storage order.
func (s *Store) GetAllSnippets(ctx context.Context, f Filters) ([]models.Snippet, error) {
	q := `SELECT ` + snippetCols + ` FROM snippets`
	var conds []string
	var args []any
	if f.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, f.Type)
	}
	if f.Subject != "" {
		conds = append(conds, "subject = ?")
		args = append(args, f.Subject)
	}
	if f.Language != "" {
		conds = append(conds, "language = ?")
		args = append(args, f.Language)
	}
	if f.Favourite != nil {
		conds = append(conds, "favourite = ?")
		args = append(args, boolToInt(*f.Favourite))
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}

	rows, err := s.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list snippets: %w", err)
	}
	defer rows.Close()

	var out []models.Snippet
	for rows.Next() {
		sn, err := scanSnippet(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan snippet: %w", err)
		}
		if f.Tag != "" && !slices.Contains(sn.Tags, f.Tag) {
			continue
		}
		out = append(out, sn)
	}
	return out, rows.Err()
}

// UpdateSnippet merges the patch over the stored record and bumps updatedAt.
// When the tag set changes, counts are adjusted against the previously
// stored tags within the same transaction. Fails with ErrNotFound if the id
// is absent.
func (s *Store) UpdateSnippet(ctx context.Context, id string, patch models.SnippetPatch) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %v: %w", err, apperr.ErrStorageUnavailable)
	}
	defer tx.Rollback() //nolint:errcheck

	row := tx.QueryRow(`SELECT `+snippetCols+` FROM snippets WHERE id = ?`, id)
	sn, err := scanSnippet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("store: snippet %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("store: get snippet %s: %w", id, err)
	}

	oldTags := sn.Tags
	applySnippetPatch(&sn, patch)
	now := time.Now().UnixMilli()
	sn.UpdatedAt = now

	if err := updateSnippetRow(tx, sn); err != nil {
		return err
	}
	removed, added := diffTags(oldTags, sn.Tags)
	if len(removed) > 0 || len(added) > 0 {
		if err := applyTagDelta(tx, removed, added, now); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit update snippet: %w", err)
	}
	return nil
}

// DeleteSnippet removes a snippet and decrements the counts of its tags.
// Fails with ErrNotFound if the id is absent.
func (s *Store) DeleteSnippet(ctx context.Context, id string) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %v: %w", err, apperr.ErrStorageUnavailable)
	}
	defer tx.Rollback() //nolint:errcheck

	var tagsJSON string
	err = tx.QueryRow(`SELECT tags FROM snippets WHERE id = ?`, id).Scan(&tagsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("store: snippet %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("store: get snippet %s: %w", id, err)
	}
	var tags []string
	if err := json.Unmarshal([]byte(tagsJSON), &tags); err != nil {
		return fmt.Errorf("store: decode tags for %s: %w", id, err)
	}

	if _, err := tx.Exec(`DELETE FROM snippets WHERE id = ?`, id); err != nil {
		return fmt.Errorf("store: delete snippet %s: %w", id, err)
	}
	if err := applyTagDelta(tx, tags, nil, time.Now().UnixMilli()); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit delete snippet: %w", err)
	}
	return nil
}

// SearchSnippets returns every snippet where the full query string appears,
// case-insensitively, in any searchable field. This is the naive unranked
// match used by list views; ranked search lives in the search package.
func (s *Store) SearchSnippets(ctx context.Context, query string) ([]models.Snippet, error) {
	all, err := s.GetAllSnippets(ctx, Filters{})
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)

	var out []models.Snippet
	for _, sn := range all {
		if snippetContains(sn, q) {
			out = append(out, sn)
		}
	}
	return out, nil
}

func snippetContains(sn models.Snippet, q string) bool {
	contains := func(v string) bool { return strings.Contains(strings.ToLower(v), q) }
	if contains(sn.Title) || contains(sn.Description) || contains(sn.Code) ||
		contains(sn.Subject) || contains(sn.Language) {
		return true
	}
	for _, t := range sn.Tags {
		if contains(t) {
			return true
		}
	}
	for _, e := range sn.Errors {
		if contains(e.Message) || contains(e.Solution) {
			return true
		}
	}
	return false
}

// RecordView bumps the view counter for a snippet. Missing ids are ignored.
func (s *Store) RecordView(ctx context.Context, id string) error {
	return s.recordAnalytics(ctx, id, func(a *models.Analytics, now int64) {
		a.TimesViewed++
		a.LastViewed = &now
	})
}

// RecordCopy bumps the copy counter for a snippet. Missing ids are ignored.
func (s *Store) RecordCopy(ctx context.Context, id string) error {
	return s.recordAnalytics(ctx, id, func(a *models.Analytics, now int64) {
		a.TimesCopied++
		a.LastCopied = &now
	})
}

func (s *Store) recordAnalytics(ctx context.Context, id string, bump func(*models.Analytics, int64)) error {
	sn, err := s.GetSnippet(ctx, id)
	if err != nil {
		return err
	}
	if sn == nil {
		return nil
	}
	a := sn.Analytics
	bump(&a, time.Now().UnixMilli())
	return s.UpdateSnippet(ctx, id, models.SnippetPatch{Analytics: &a})
}

func insertSnippet(tx *sql.Tx, sn models.Snippet) error {
	tagsJSON, errorsJSON, usageJSON, analyticsJSON, versionsJSON, syncJSON, err := encodeSnippetJSON(sn)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`
		INSERT INTO snippets (`+snippetCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sn.ID, sn.Title, sn.Description, sn.Language, sn.Subject, sn.Type, sn.Code,
		boolToInt(sn.Favourite), sn.ColorCode, tagsJSON, errorsJSON, usageJSON,
		analyticsJSON, versionsJSON, syncJSON, sn.CreatedAt, sn.UpdatedAt)
	if err != nil {
		return fmt.Errorf("store: insert snippet %s: %w", sn.ID, err)
	}
	return nil
}

func updateSnippetRow(tx *sql.Tx, sn models.Snippet) error {
	tagsJSON, errorsJSON, usageJSON, analyticsJSON, versionsJSON, syncJSON, err := encodeSnippetJSON(sn)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`
		UPDATE snippets SET
			title = ?, description = ?, language = ?, subject = ?, type = ?, code = ?,
			favourite = ?, color_code = ?, tags = ?, errors = ?, usage = ?,
			analytics = ?, versions = ?, sync = ?, updated_at = ?
		WHERE id = ?
	`, sn.Title, sn.Description, sn.Language, sn.Subject, sn.Type, sn.Code,
		boolToInt(sn.Favourite), sn.ColorCode, tagsJSON, errorsJSON, usageJSON,
		analyticsJSON, versionsJSON, syncJSON, sn.UpdatedAt, sn.ID)
	if err != nil {
		return fmt.Errorf("store: update snippet %s: %w", sn.ID, err)
	}
	return nil
}

func encodeSnippetJSON(sn models.Snippet) (tags, errs, usage, analytics, versions, sync string, err error) {
	if tags, err = marshalField(nonNil(sn.Tags)); err != nil {
		return
	}
	if errs, err = marshalField(nonNil(sn.Errors)); err != nil {
		return
	}
	if usage, err = marshalField(sn.Usage); err != nil {
		return
	}
	if analytics, err = marshalField(sn.Analytics); err != nil {
		return
	}
	if versions, err = marshalField(nonNil(sn.Versions)); err != nil {
		return
	}
	sync, err = marshalField(sn.Sync)
	return
}

func marshalField(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("store: encode field: %w", err)
	}
	return string(b), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnippet(row rowScanner) (models.Snippet, error) {
	var sn models.Snippet
	var fav int
	var tagsJSON, errorsJSON, usageJSON, analyticsJSON, versionsJSON, syncJSON string
	err := row.Scan(&sn.ID, &sn.Title, &sn.Description, &sn.Language, &sn.Subject,
		&sn.Type, &sn.Code, &fav, &sn.ColorCode, &tagsJSON, &errorsJSON, &usageJSON,
		&analyticsJSON, &versionsJSON, &syncJSON, &sn.CreatedAt, &sn.UpdatedAt)
	if err != nil {
		return models.Snippet{}, err
	}
	sn.Favourite = fav != 0
	for _, f := range []struct {
		raw string
		dst any
	}{
		{tagsJSON, &sn.Tags},
		{errorsJSON, &sn.Errors},
		{usageJSON, &sn.Usage},
		{analyticsJSON, &sn.Analytics},
		{versionsJSON, &sn.Versions},
		{syncJSON, &sn.Sync},
	} {
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return models.Snippet{}, err
		}
	}
	if sn.Tags == nil {
		sn.Tags = []string{}
	}
	return sn, nil
}

func applySnippetPatch(sn *models.Snippet, p models.SnippetPatch) {
	if p.Title != nil {
		sn.Title = *p.Title
	}
	if p.Description != nil {
		sn.Description = *p.Description
	}
	if p.Language != nil {
		sn.Language = *p.Language
	}
	if p.Subject != nil {
		sn.Subject = *p.Subject
	}
	if p.Tags != nil {
		sn.Tags = nonNil(*p.Tags)
	}
	if p.Code != nil {
		sn.Code = *p.Code
	}
	if p.Type != nil {
		sn.Type = *p.Type
	}
	if p.Errors != nil {
		sn.Errors = *p.Errors
	}
	if p.Usage != nil {
		sn.Usage = *p.Usage
	}
	if p.Favourite != nil {
		sn.Favourite = *p.Favourite
	}
	if p.ColorCode != nil {
		sn.ColorCode = *p.ColorCode
	}
	if p.Analytics != nil {
		sn.Analytics = *p.Analytics
	}
	if p.Versions != nil {
		sn.Versions = *p.Versions
	}
	if p.Sync != nil {
		sn.Sync = *p.Sync
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
