package search

import (
	"context"

	"github.com/ryanahq/ryana/internal/models"
	"github.com/ryanahq/ryana/internal/store"
)

// TagCount is one entry of the top-tags list.
type TagCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Stats aggregates vault-wide counters for the dashboard.
type Stats struct {
	Total            int        `json:"total"`
	Code             int        `json:"code"`
	Errors           int        `json:"errors"`
	Favourites       int        `json:"favorites"`
	Subjects         int        `json:"subjects"`
	UniqueTags       int        `json:"uniqueTags"`
	Languages        int        `json:"languages"`
	MostUsedLanguage string     `json:"mostUsedLanguage"`
	MostUsedSubject  string     `json:"mostUsedSubject"`
	TopTags          []TagCount `json:"topTags"`
	TotalViews       int        `json:"totalViews"`
	TotalCopies      int        `json:"totalCopies"`
	CreatedThisWeek  int        `json:"createdThisWeek"`
}

// GetStatistics computes the aggregate counters over the whole vault.
func (s *Service) GetStatistics(ctx context.Context) (*Stats, error) {
	snippets, err := s.store.GetAllSnippets(ctx, store.Filters{})
	if err != nil {
		return nil, err
	}
	subjects, err := s.store.GetAllSubjects(ctx)
	if err != nil {
		return nil, err
	}
	tags, err := s.store.GetAllTags(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Total:      len(snippets),
		Subjects:   len(subjects),
		UniqueTags: len(tags),
		TopTags:    []TagCount{},
	}

	var languages, subjectNames []string
	weekAgo := s.now().AddDate(0, 0, -7).UnixMilli()
	for _, sn := range snippets {
		switch sn.Type {
		case models.TypeCode:
			stats.Code++
		case models.TypeError:
			stats.Errors++
		}
		if sn.Favourite {
			stats.Favourites++
		}
		languages = append(languages, sn.Language)
		subjectNames = append(subjectNames, sn.Subject)
		stats.TotalViews += int(sn.Analytics.TimesViewed)
		stats.TotalCopies += int(sn.Analytics.TimesCopied)
		if sn.CreatedAt >= weekAgo {
			stats.CreatedThisWeek++
		}
	}

	stats.Languages = len(distinctLanguages(snippets))
	stats.MostUsedLanguage = mostCommon(languages)
	stats.MostUsedSubject = mostCommon(subjectNames)

	for i, t := range tags {
		if i == 5 {
			break
		}
		stats.TopTags = append(stats.TopTags, TagCount{Name: t.Name, Count: t.Count})
	}
	return stats, nil
}

// mostCommon returns the most frequent non-empty value, ties broken by
// first encounter. Returns "None" when the input holds no non-empty value.
func mostCommon(values []string) string {
	counts := make(map[string]int)
	var order []string
	for _, v := range values {
		if v == "" {
			continue
		}
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}

	best := ""
	bestCount := 0
	for _, v := range order {
		if counts[v] > bestCount {
			bestCount = counts[v]
			best = v
		}
	}
	if best == "" {
		return "None"
	}
	return best
}

// distinctLanguages lists the languages in first-encounter order.
func distinctLanguages(snippets []models.Snippet) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, sn := range snippets {
		if _, ok := seen[sn.Language]; !ok {
			seen[sn.Language] = struct{}{}
			out = append(out, sn.Language)
		}
	}
	return out
}
