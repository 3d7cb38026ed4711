// Package transfer serializes the vault to portable JSON snapshots and
// reconciles external snapshots back in under the replace, merge, and
// add-only policies.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/ryanahq/ryana/internal/apperr"
	"github.com/ryanahq/ryana/internal/models"
	"github.com/ryanahq/ryana/internal/store"
)

// Mode selects the import reconciliation policy.
type Mode string

const (
	// ModeMerge keeps the newer of two records sharing an id; ties favor
	// the local copy.
	ModeMerge Mode = "merge"
	// ModeReplace clears the store first, then inserts everything.
	ModeReplace Mode = "replace"
	// ModeAdd inserts only records whose id is not already present.
	ModeAdd Mode = "add"
)

// ParseMode validates a mode string from a flag or request parameter.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeMerge, ModeReplace, ModeAdd:
		return Mode(s), nil
	}
	return "", fmt.Errorf("transfer: unknown import mode %q: %w", s, apperr.ErrValidation)
}

// Options configures an import. Replace is destructive and therefore gated
// on ConfirmReplace.
type Options struct {
	Mode           Mode
	ConfirmReplace bool
}

// Service owns snapshot production and import reconciliation.
type Service struct {
	store *store.Store
}

// NewService creates a transfer service backed by the given store.
func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

// ExportAll snapshots the full store: all four collections, read live.
func (s *Service) ExportAll(ctx context.Context) (*models.Snapshot, error) {
	return s.store.ExportDatabase(ctx)
}

// ExportSelected snapshots only the given snippets plus the subjects their
// subject names reference. Settings and tags are omitted; missing ids are
// skipped silently.
func (s *Service) ExportSelected(ctx context.Context, ids []string) (*models.Snapshot, error) {
	var snippets []models.Snippet
	for _, id := range ids {
		sn, err := s.store.GetSnippet(ctx, id)
		if err != nil {
			return nil, err
		}
		if sn != nil {
			snippets = append(snippets, *sn)
		}
	}

	subjects, err := s.referencedSubjects(ctx, snippets)
	if err != nil {
		return nil, err
	}
	return &models.Snapshot{
		Version:    1,
		ExportedAt: time.Now().UnixMilli(),
		ExportType: models.ExportTypeSelected,
		Snippets:   nonNil(snippets),
		Subjects:   subjects,
	}, nil
}

// ExportBySubject snapshots every snippet filed under the named subject,
// together with that subject's record when it exists.
func (s *Service) ExportBySubject(ctx context.Context, subjectName string) (*models.Snapshot, error) {
	snippets, err := s.store.GetAllSnippets(ctx, store.Filters{Subject: subjectName})
	if err != nil {
		return nil, err
	}
	all, err := s.store.GetAllSubjects(ctx)
	if err != nil {
		return nil, err
	}
	subjects := []models.Subject{}
	for _, sub := range all {
		if sub.Name == subjectName {
			subjects = append(subjects, sub)
			break
		}
	}
	return &models.Snapshot{
		Version:    1,
		ExportedAt: time.Now().UnixMilli(),
		ExportType: models.ExportTypeSubject,
		Subject:    subjectName,
		Snippets:   nonNil(snippets),
		Subjects:   subjects,
	}, nil
}

// Import validates the snapshot and reconciles it into the store under the
// selected policy. Validation is a pure read; no mutation happens unless it
// passes. The returned stats count added, updated, and skipped records per
// collection. Subjects are only ever added or skipped, never updated — the
// original behaved this way and the asymmetry is preserved deliberately.
func (s *Service) Import(ctx context.Context, snap *models.Snapshot, opts Options) (*models.ImportStats, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}

	switch opts.Mode {
	case ModeReplace:
		if !opts.ConfirmReplace {
			return nil, fmt.Errorf("transfer: replace import requires explicit confirmation: %w", apperr.ErrValidation)
		}
		return s.importReplace(ctx, snap)
	case ModeMerge:
		return s.importMerge(ctx, snap)
	case ModeAdd:
		return s.importAddOnly(ctx, snap)
	}
	return nil, fmt.Errorf("transfer: unknown import mode %q: %w", opts.Mode, apperr.ErrValidation)
}

// importReplace clears the store and inserts every incoming record as new,
// preserving ids. Tag aggregates rebuild through the insert path.
func (s *Service) importReplace(ctx context.Context, snap *models.Snapshot) (*models.ImportStats, error) {
	if err := s.store.ClearAllData(ctx); err != nil {
		return nil, err
	}
	stats := &models.ImportStats{}
	for _, sn := range snap.Snippets {
		if _, err := s.store.AddSnippet(ctx, sn); err != nil {
			return nil, err
		}
		stats.Snippets.Added++
	}
	if err := s.importSubjects(ctx, snap.Subjects, stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// importMerge inserts unknown snippets and overwrites known ones only when
// the incoming record is strictly newer; ties keep the local copy.
func (s *Service) importMerge(ctx context.Context, snap *models.Snapshot) (*models.ImportStats, error) {
	stats := &models.ImportStats{}
	for _, sn := range snap.Snippets {
		existing, err := s.store.GetSnippet(ctx, sn.ID)
		if err != nil {
			return nil, err
		}
		switch {
		case existing == nil:
			if _, err := s.store.AddSnippet(ctx, sn); err != nil {
				return nil, err
			}
			stats.Snippets.Added++
		case sn.UpdatedAt > existing.UpdatedAt:
			if err := s.store.UpdateSnippet(ctx, sn.ID, models.PatchFromSnippet(sn)); err != nil {
				return nil, err
			}
			stats.Snippets.Updated++
		default:
			stats.Snippets.Skipped++
		}
	}
	if err := s.importSubjects(ctx, snap.Subjects, stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// importAddOnly inserts snippets whose id is not already present and skips
// the rest.
func (s *Service) importAddOnly(ctx context.Context, snap *models.Snapshot) (*models.ImportStats, error) {
	existing, err := s.store.GetAllSnippets(ctx, store.Filters{})
	if err != nil {
		return nil, err
	}
	existingIDs := make(map[string]struct{}, len(existing))
	for _, sn := range existing {
		existingIDs[sn.ID] = struct{}{}
	}

	stats := &models.ImportStats{}
	for _, sn := range snap.Snippets {
		if _, ok := existingIDs[sn.ID]; ok {
			stats.Snippets.Skipped++
			continue
		}
		if _, err := s.store.AddSnippet(ctx, sn); err != nil {
			return nil, err
		}
		stats.Snippets.Added++
	}
	if err := s.importSubjects(ctx, snap.Subjects, stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// importSubjects attempts every incoming subject as an insert. Name
// collisions count as skipped rather than aborting the import.
func (s *Service) importSubjects(ctx context.Context, subjects []models.Subject, stats *models.ImportStats) error {
	for _, sub := range subjects {
		_, err := s.store.AddSubject(ctx, sub)
		switch {
		case err == nil:
			stats.Subjects.Added++
		case errors.Is(err, apperr.ErrDuplicateName):
			stats.Subjects.Skipped++
		default:
			return err
		}
	}
	return nil
}

// referencedSubjects resolves the subject records named by the given
// snippets, in store order.
func (s *Service) referencedSubjects(ctx context.Context, snippets []models.Snippet) ([]models.Subject, error) {
	var names []string
	for _, sn := range snippets {
		if sn.Subject != "" && !slices.Contains(names, sn.Subject) {
			names = append(names, sn.Subject)
		}
	}
	all, err := s.store.GetAllSubjects(ctx)
	if err != nil {
		return nil, err
	}
	subjects := []models.Subject{}
	for _, sub := range all {
		if slices.Contains(names, sub.Name) {
			subjects = append(subjects, sub)
		}
	}
	return subjects, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
