// Package search provides ranked free-text search, related-snippet
// discovery, suggestion queries, and vault statistics. It operates on
// in-memory snapshots read from the store and persists nothing.
package search

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/ryanahq/ryana/internal/models"
	"github.com/ryanahq/ryana/internal/store"
)

// Criteria is the input to AdvancedSearch. Zero-valued fields do not narrow.
// Date bounds are inclusive milliseconds against createdAt.
type Criteria struct {
	Query     string   `json:"query"`
	Type      string   `json:"type"`
	Language  string   `json:"language"`
	Subject   string   `json:"subject"`
	Tags      []string `json:"tags"`
	Favourite *bool    `json:"favourite"`
	DateFrom  int64    `json:"dateFrom"`
	DateTo    int64    `json:"dateTo"`
}

// Service runs search queries against the store. The clock is injectable so
// recency scoring is testable.
type Service struct {
	store *store.Store
	now   func() time.Time
}

// NewService creates a search service backed by the given store.
func NewService(st *store.Store) *Service {
	return &Service{store: st, now: time.Now}
}

// WithClock overrides the service clock. Intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// AdvancedSearch applies ranked text search first, then the exact-match
// filters, in that order. Filters narrow the relevance-ordered sequence
// without re-sorting it.
func (s *Service) AdvancedSearch(ctx context.Context, c Criteria) ([]models.Snippet, error) {
	results, err := s.store.GetAllSnippets(ctx, store.Filters{})
	if err != nil {
		return nil, err
	}

	if c.Query != "" {
		results = s.SearchByText(results, c.Query)
	}
	if c.Type != "" {
		results = keep(results, func(sn models.Snippet) bool { return sn.Type == c.Type })
	}
	if c.Language != "" {
		results = keep(results, func(sn models.Snippet) bool {
			return strings.EqualFold(sn.Language, c.Language)
		})
	}
	if c.Subject != "" {
		results = keep(results, func(sn models.Snippet) bool { return sn.Subject == c.Subject })
	}
	if len(c.Tags) > 0 {
		results = keep(results, func(sn models.Snippet) bool {
			for _, t := range c.Tags {
				if slices.Contains(sn.Tags, t) {
					return true
				}
			}
			return false
		})
	}
	if c.Favourite != nil {
		results = keep(results, func(sn models.Snippet) bool { return sn.Favourite == *c.Favourite })
	}
	if c.DateFrom != 0 {
		results = keep(results, func(sn models.Snippet) bool { return sn.CreatedAt >= c.DateFrom })
	}
	if c.DateTo != 0 {
		results = keep(results, func(sn models.Snippet) bool { return sn.CreatedAt <= c.DateTo })
	}
	return results, nil
}

// SearchByText splits the query into whitespace-separated lowercase terms
// and keeps only snippets whose combined searchable text contains every
// term. Matches are ordered by relevance score descending; ties fall back
// to updatedAt descending so the order is deterministic.
func (s *Service) SearchByText(snippets []models.Snippet, query string) []models.Snippet {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return snippets
	}

	type scored struct {
		snippet models.Snippet
		score   int
	}
	var matches []scored
	for _, sn := range snippets {
		text := searchableText(sn)
		all := true
		for _, term := range terms {
			if !strings.Contains(text, term) {
				all = false
				break
			}
		}
		if all {
			matches = append(matches, scored{snippet: sn, score: s.relevance(sn, terms)})
		}
	}

	slices.SortStableFunc(matches, func(a, b scored) int {
		if a.score != b.score {
			return b.score - a.score
		}
		if a.snippet.UpdatedAt != b.snippet.UpdatedAt {
			if b.snippet.UpdatedAt > a.snippet.UpdatedAt {
				return 1
			}
			return -1
		}
		return 0
	})

	out := make([]models.Snippet, len(matches))
	for i, m := range matches {
		out[i] = m.snippet
	}
	return out
}

// relevance scores one snippet against the query terms. Per term: title 10,
// any tag 5, subject 3, description 2, code 1, additive across fields.
// Flat bonuses afterwards: favourite 2, updated within 7 days 3, within
// 30 days 1.
func (s *Service) relevance(sn models.Snippet, terms []string) int {
	score := 0
	title := strings.ToLower(sn.Title)
	subject := strings.ToLower(sn.Subject)
	description := strings.ToLower(sn.Description)
	code := strings.ToLower(sn.Code)

	for _, term := range terms {
		if strings.Contains(title, term) {
			score += 10
		}
		for _, tag := range sn.Tags {
			if strings.Contains(strings.ToLower(tag), term) {
				score += 5
				break
			}
		}
		if strings.Contains(subject, term) {
			score += 3
		}
		if strings.Contains(description, term) {
			score += 2
		}
		if strings.Contains(code, term) {
			score += 1
		}
	}

	if sn.Favourite {
		score += 2
	}
	age := s.now().UnixMilli() - sn.UpdatedAt
	switch {
	case age < 7*24*int64(time.Hour/time.Millisecond):
		score += 3
	case age < 30*24*int64(time.Hour/time.Millisecond):
		score += 1
	}
	return score
}

// searchableText concatenates every matchable field of a snippet,
// lowercased, space-separated.
func searchableText(sn models.Snippet) string {
	parts := []string{sn.Title, sn.Description, sn.Code, sn.Language, sn.Subject}
	parts = append(parts, sn.Tags...)
	for _, e := range sn.Errors {
		parts = append(parts, e.Message+" "+e.Solution)
	}
	return strings.ToLower(strings.Join(parts, " "))
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
