package api

import (
	"github.com/ryanahq/ryana/internal/models"
	"github.com/ryanahq/ryana/internal/search"
)

// SnippetListResponse wraps a snippet listing.
type SnippetListResponse struct {
	Snippets []models.Snippet `json:"snippets" validate:"required"`
	Total    int              `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps ranked or filtered search results.
type SearchResponse struct {
	Results []models.Snippet `json:"results" validate:"required"`
}

// SubjectListResponse wraps a subject listing.
type SubjectListResponse struct {
	Subjects []models.Subject `json:"subjects" validate:"required"`
}

// TagListResponse wraps the tag aggregate listing.
type TagListResponse struct {
	Tags []models.Tag `json:"tags" validate:"required"`
}

// OptionsResponse lists the distinct filter values the UI offers.
type OptionsResponse struct {
	Languages []string `json:"languages" validate:"required"`
	Subjects  []string `json:"subjects" validate:"required"`
}

// ImportRequest is the request body for POST /import.
type ImportRequest struct {
	Mode     string           `json:"mode" example:"merge" validate:"required"`
	Confirm  bool             `json:"confirm,omitempty"`
	Snapshot *models.Snapshot `json:"snapshot" validate:"required"`
}

// StatsResponse is the dashboard statistics payload (aliased from the
// search layer).
type StatsResponse = search.Stats

// SuggestionsResponse is the autocomplete payload (aliased from the
// search layer).
type SuggestionsResponse = search.Suggestions
