package search

import (
	"context"
	"strings"

	"github.com/ryanahq/ryana/internal/store"
)

// SnippetSuggestion is a title hit tagged with its category.
type SnippetSuggestion struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

// NameSuggestion is a tag, subject, or language hit tagged with its category.
type NameSuggestion struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Suggestions groups the four independent top-five suggestion slices for a
// partial query.
type Suggestions struct {
	Snippets  []SnippetSuggestion `json:"snippets"`
	Tags      []NameSuggestion    `json:"tags"`
	Subjects  []NameSuggestion    `json:"subjects"`
	Languages []NameSuggestion    `json:"languages"`
}

// GetSearchSuggestions returns up to five substring matches per category:
// snippet titles, tag names, subject names, and distinct languages.
func (s *Service) GetSearchSuggestions(ctx context.Context, partial string) (*Suggestions, error) {
	p := strings.ToLower(partial)
	out := &Suggestions{
		Snippets:  []SnippetSuggestion{},
		Tags:      []NameSuggestion{},
		Subjects:  []NameSuggestion{},
		Languages: []NameSuggestion{},
	}

	snippets, err := s.store.GetAllSnippets(ctx, store.Filters{})
	if err != nil {
		return nil, err
	}
	tags, err := s.store.GetAllTags(ctx)
	if err != nil {
		return nil, err
	}
	subjects, err := s.store.GetAllSubjects(ctx)
	if err != nil {
		return nil, err
	}

	for _, sn := range snippets {
		if strings.Contains(strings.ToLower(sn.Title), p) {
			out.Snippets = append(out.Snippets, SnippetSuggestion{ID: sn.ID, Title: sn.Title, Type: "snippet"})
			if len(out.Snippets) == 5 {
				break
			}
		}
	}
	for _, t := range tags {
		if strings.Contains(strings.ToLower(t.Name), p) {
			out.Tags = append(out.Tags, NameSuggestion{Name: t.Name, Type: "tag"})
			if len(out.Tags) == 5 {
				break
			}
		}
	}
	for _, sub := range subjects {
		if strings.Contains(strings.ToLower(sub.Name), p) {
			out.Subjects = append(out.Subjects, NameSuggestion{Name: sub.Name, Type: "subject"})
			if len(out.Subjects) == 5 {
				break
			}
		}
	}
	for _, lang := range distinctLanguages(snippets) {
		if strings.Contains(strings.ToLower(lang), p) {
			out.Languages = append(out.Languages, NameSuggestion{Name: lang, Type: "language"})
			if len(out.Languages) == 5 {
				break
			}
		}
	}
	return out, nil
}
