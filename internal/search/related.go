package search

import (
	"context"
	"slices"
	"strings"

	"github.com/ryanahq/ryana/internal/models"
	"github.com/ryanahq/ryana/internal/store"
)

// CalculateSimilarity scores how alike two snippets are: same non-empty
// subject 10, same language 5, 3 per shared tag, 2 per shared title word
// longer than three characters.
func CalculateSimilarity(a, b models.Snippet) int {
	score := 0
	if a.Subject != "" && a.Subject == b.Subject {
		score += 10
	}
	if a.Language == b.Language {
		score += 5
	}
	for _, tag := range a.Tags {
		if slices.Contains(b.Tags, tag) {
			score += 3
		}
	}
	wordsA := strings.Fields(strings.ToLower(a.Title))
	wordsB := strings.Fields(strings.ToLower(b.Title))
	for _, w := range wordsA {
		if len(w) > 3 && slices.Contains(wordsB, w) {
			score += 2
		}
	}
	return score
}

// FindRelatedSnippets scores every other snippet against the target,
// drops zero scores, and returns the top matches. A limit below one
// defaults to five. A missing target yields an empty result.
func (s *Service) FindRelatedSnippets(ctx context.Context, id string, limit int) ([]models.Snippet, error) {
	if limit <= 0 {
		limit = 5
	}
	target, err := s.store.GetSnippet(ctx, id)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return []models.Snippet{}, nil
	}
	all, err := s.store.GetAllSnippets(ctx, store.Filters{})
	if err != nil {
		return nil, err
	}

	type scored struct {
		snippet models.Snippet
		score   int
	}
	var related []scored
	for _, sn := range all {
		if sn.ID == id {
			continue
		}
		if sc := CalculateSimilarity(*target, sn); sc > 0 {
			related = append(related, scored{snippet: sn, score: sc})
		}
	}
	slices.SortStableFunc(related, func(a, b scored) int { return b.score - a.score })
	if len(related) > limit {
		related = related[:limit]
	}

	out := make([]models.Snippet, len(related))
	for i, r := range related {
		out[i] = r.snippet
	}
	return out, nil
}

// ByCategory returns snippets whose title, description, or tags contain the
// category string, case-insensitively. Useful for cross-subject discovery
// ("sorting", "loops").
func (s *Service) ByCategory(ctx context.Context, category string) ([]models.Snippet, error) {
	all, err := s.store.GetAllSnippets(ctx, store.Filters{})
	if err != nil {
		return nil, err
	}
	c := strings.ToLower(category)

	var out []models.Snippet
	for _, sn := range all {
		parts := append([]string{sn.Title, sn.Description}, sn.Tags...)
		if strings.Contains(strings.ToLower(strings.Join(parts, " ")), c) {
			out = append(out, sn)
		}
	}
	return out, nil
}

// MostPopular orders snippets by weighted usage (copies double, views
// single) and returns the top entries. A limit below one defaults to ten.
func (s *Service) MostPopular(ctx context.Context, limit int) ([]models.Snippet, error) {
	if limit <= 0 {
		limit = 10
	}
	all, err := s.store.GetAllSnippets(ctx, store.Filters{})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(all, func(a, b models.Snippet) int {
		return popularity(b) - popularity(a)
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func popularity(sn models.Snippet) int {
	return int(sn.Analytics.TimesCopied)*2 + int(sn.Analytics.TimesViewed)
}

// RecentlyAdded returns snippets created within the last given days, newest
// first. Defaults: seven days, ten entries.
func (s *Service) RecentlyAdded(ctx context.Context, days, limit int) ([]models.Snippet, error) {
	if days <= 0 {
		days = 7
	}
	if limit <= 0 {
		limit = 10
	}
	all, err := s.store.GetAllSnippets(ctx, store.Filters{})
	if err != nil {
		return nil, err
	}
	cutoff := s.now().AddDate(0, 0, -days).UnixMilli()

	var out []models.Snippet
	for _, sn := range all {
		if sn.CreatedAt >= cutoff {
			out = append(out, sn)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Snippet) int {
		if b.CreatedAt > a.CreatedAt {
			return 1
		}
		if b.CreatedAt < a.CreatedAt {
			return -1
		}
		return 0
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// FrequentErrors returns error-type snippets ordered by view count.
func (s *Service) FrequentErrors(ctx context.Context, limit int) ([]models.Snippet, error) {
	if limit <= 0 {
		limit = 10
	}
	errs, err := s.store.GetAllSnippets(ctx, store.Filters{Type: models.TypeError})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(errs, func(a, b models.Snippet) int {
		return int(b.Analytics.TimesViewed) - int(a.Analytics.TimesViewed)
	})
	if len(errs) > limit {
		errs = errs[:limit]
	}
	return errs, nil
}
