package models

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/ryanahq/ryana/internal/apperr"
)

// Export variants carried in Snapshot.ExportType.
const (
	ExportTypeFull     = ""
	ExportTypeSelected = "selected"
	ExportTypeSubject  = "subject"
)

// Snapshot is the portable JSON document produced by export and consumed by
// import. Selected and by-subject variants carry a filtered snippet
// subsequence with nil settings and tags.
type Snapshot struct {
	Version    int        `json:"version"`
	ExportedAt int64      `json:"exportedAt"`
	ExportType string     `json:"exportType,omitempty"`
	Subject    string     `json:"subject,omitempty"`
	Snippets   []Snippet  `json:"snippets"`
	Subjects   []Subject  `json:"subjects"`
	Settings   *Settings  `json:"settings"`
	Tags       []Tag      `json:"tags"`
}

// Validate checks the snapshot structure before any import mutation runs.
// It is a pure read; no writes may happen before it passes.
func (s *Snapshot) Validate() error {
	err := validation.ValidateStruct(s,
		validation.Field(&s.Version, validation.Required, validation.Min(1)),
		validation.Field(&s.ExportedAt, validation.Required, validation.Min(int64(1))),
		validation.Field(&s.Snippets, validation.NotNil),
	)
	if err != nil {
		return fmt.Errorf("snapshot: %v: %w", err, apperr.ErrValidation)
	}
	for i, sn := range s.Snippets {
		if sn.ID == "" || sn.Title == "" || sn.Code == "" {
			return fmt.Errorf("snapshot: snippet %d is missing id, title, or code: %w", i, apperr.ErrValidation)
		}
	}
	return nil
}

// ImportCounts tallies the outcome for one collection during an import.
type ImportCounts struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// ImportStats summarizes a completed import. Subjects are never
// merge-updated (add-or-skip only), so Subjects.Updated stays zero.
type ImportStats struct {
	Snippets ImportCounts `json:"snippets"`
	Subjects ImportCounts `json:"subjects"`
}
