// Package query composes store reads with the active view filters to
// produce view-ready, sorted result sets for the rendering collaborator.
package query

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/ryanahq/ryana/internal/apperr"
	"github.com/ryanahq/ryana/internal/models"
	"github.com/ryanahq/ryana/internal/store"
)

// View identifies a snippet list view.
type View string

const (
	ViewAll       View = "all"
	ViewFavorites View = "favorites"
	ViewErrors    View = "errors"
)

// Sort orders. Title sorts ascending; everything else descending.
const (
	SortUpdated = "updated"
	SortCreated = "created"
	SortTitle   = "title"
	SortCopied  = "copied"
	SortViewed  = "viewed"
)

// State holds the active filters a view is loaded with.
type State struct {
	Query    string
	Language string
	Subject  string
	SortBy   string
}

// Service is the query facade over the store.
type Service struct {
	store *store.Store
}

// NewService creates a query facade backed by the given store.
func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

// LoadView returns the sorted snippet list for a view. A free-text query
// uses the store's naive substring search, then the view's type or
// favourite restriction and the language/subject filters narrow the result.
// Store failures propagate; there are no silent empty results.
func (s *Service) LoadView(ctx context.Context, view View, st State) ([]models.Snippet, error) {
	var snippets []models.Snippet
	var err error

	switch view {
	case ViewAll:
		if st.Query != "" {
			snippets, err = s.store.SearchSnippets(ctx, st.Query)
		} else {
			snippets, err = s.store.GetAllSnippets(ctx, store.Filters{Type: models.TypeCode})
		}
		if err != nil {
			return nil, err
		}
		snippets = keep(snippets, func(sn models.Snippet) bool { return sn.Type == models.TypeCode })

	case ViewFavorites:
		fav := true
		snippets, err = s.store.GetAllSnippets(ctx, store.Filters{Favourite: &fav})
		if err != nil {
			return nil, err
		}
		if snippets, err = s.intersectSearch(ctx, snippets, st.Query); err != nil {
			return nil, err
		}

	case ViewErrors:
		snippets, err = s.store.GetAllSnippets(ctx, store.Filters{Type: models.TypeError})
		if err != nil {
			return nil, err
		}
		if snippets, err = s.intersectSearch(ctx, snippets, st.Query); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("query: unknown view %q: %w", view, apperr.ErrValidation)
	}

	if st.Language != "" {
		snippets = keep(snippets, func(sn models.Snippet) bool { return sn.Language == st.Language })
	}
	if st.Subject != "" {
		snippets = keep(snippets, func(sn models.Snippet) bool { return sn.Subject == st.Subject })
	}
	return SortSnippets(snippets, st.SortBy), nil
}

// ListSubjects returns every subject for the subjects view.
func (s *Service) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	return s.store.GetAllSubjects(ctx)
}

// LanguageOptions returns the distinct languages in use, sorted, for the
// language filter dropdown.
func (s *Service) LanguageOptions(ctx context.Context) ([]string, error) {
	snippets, err := s.store.GetAllSnippets(ctx, store.Filters{})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var out []string
	for _, sn := range snippets {
		if _, ok := seen[sn.Language]; !ok {
			seen[sn.Language] = struct{}{}
			out = append(out, sn.Language)
		}
	}
	slices.Sort(out)
	return out, nil
}

// SubjectOptions returns the subject names for the subject filter dropdown,
// in store order.
func (s *Service) SubjectOptions(ctx context.Context) ([]string, error) {
	subjects, err := s.store.GetAllSubjects(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(subjects))
	for i, sub := range subjects {
		out[i] = sub.Name
	}
	return out, nil
}

// SortSnippets orders a copy of the given snippets by the named criterion.
// Unknown criteria leave the order unchanged.
func SortSnippets(snippets []models.Snippet, sortBy string) []models.Snippet {
	sorted := slices.Clone(snippets)
	switch sortBy {
	case SortUpdated, "":
		slices.SortStableFunc(sorted, func(a, b models.Snippet) int { return cmpInt64(b.UpdatedAt, a.UpdatedAt) })
	case SortCreated:
		slices.SortStableFunc(sorted, func(a, b models.Snippet) int { return cmpInt64(b.CreatedAt, a.CreatedAt) })
	case SortTitle:
		slices.SortStableFunc(sorted, func(a, b models.Snippet) int { return strings.Compare(a.Title, b.Title) })
	case SortCopied:
		slices.SortStableFunc(sorted, func(a, b models.Snippet) int {
			return int(b.Analytics.TimesCopied) - int(a.Analytics.TimesCopied)
		})
	case SortViewed:
		slices.SortStableFunc(sorted, func(a, b models.Snippet) int {
			return int(b.Analytics.TimesViewed) - int(a.Analytics.TimesViewed)
		})
	}
	return sorted
}

// intersectSearch narrows snippets to those also matched by the naive text
// search when a query is active.
func (s *Service) intersectSearch(ctx context.Context, snippets []models.Snippet, q string) ([]models.Snippet, error) {
	if q == "" {
		return snippets, nil
	}
	matches, err := s.store.SearchSnippets(ctx, q)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		ids[m.ID] = struct{}{}
	}
	return keep(snippets, func(sn models.Snippet) bool {
		_, ok := ids[sn.ID]
		return ok
	}), nil
}

func keep(snippets []models.Snippet, pred func(models.Snippet) bool) []models.Snippet {
	var out []models.Snippet
	for _, sn := range snippets {
		if pred(sn) {
			out = append(out, sn)
		}
	}
	return out
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
