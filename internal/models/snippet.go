// Package models defines the domain types for Ryana.
//
// Timestamps are int64 milliseconds since the Unix epoch throughout, which
// keeps JSON snapshots portable across installations.
package models

// Snippet types.
const (
	TypeCode  = "code"
	TypeError = "error"
)

// Snippet represents a stored code sample or error log, the primary content
// entity of the vault.
type Snippet struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Language    string       `json:"language"`
	Subject     string       `json:"subject"`
	Tags        []string     `json:"tags"`
	Code        string       `json:"code"`
	Type        string       `json:"type"`
	Errors      []ErrorEntry `json:"errors"`
	Usage       Usage        `json:"usage"`
	Favourite   bool         `json:"favourite"`
	ColorCode   string       `json:"colorCode"`
	Analytics   Analytics    `json:"analytics"`
	Versions    []Version    `json:"versions"`
	CreatedAt   int64        `json:"createdAt"`
	UpdatedAt   int64        `json:"updatedAt"`
	Sync        SyncState    `json:"sync"`
}

// ErrorEntry is one recorded error with its solution, attached to an
// error-type snippet.
type ErrorEntry struct {
	Message   string   `json:"message"`
	Solution  string   `json:"solution"`
	Links     []string `json:"links"`
	CreatedAt int64    `json:"createdAt"`
}

// Usage describes when, where, and how a snippet is meant to be applied.
type Usage struct {
	When  string `json:"when"`
	Where string `json:"where"`
	How   string `json:"how"`
}

// Analytics tracks per-snippet view and copy counters.
type Analytics struct {
	TimesCopied uint32 `json:"timesCopied"`
	TimesViewed uint32 `json:"timesViewed"`
	LastCopied  *int64 `json:"lastCopied"`
	LastViewed  *int64 `json:"lastViewed"`
}

// Version is a reserved slot for snippet version history.
type Version struct {
	Code      string `json:"code"`
	CreatedAt int64  `json:"createdAt"`
}

// SyncState is reserved for future remote synchronization.
type SyncState struct {
	Source     string  `json:"source"`
	LastSynced *int64  `json:"lastSynced"`
	RemoteID   *string `json:"remoteId"`
}

// SnippetPatch carries a partial snippet update. Nil fields are left
// untouched; ID and CreatedAt are immutable and therefore absent.
type SnippetPatch struct {
	Title       *string       `json:"title"`
	Description *string       `json:"description"`
	Language    *string       `json:"language"`
	Subject     *string       `json:"subject"`
	Tags        *[]string     `json:"tags"`
	Code        *string       `json:"code"`
	Type        *string       `json:"type"`
	Errors      *[]ErrorEntry `json:"errors"`
	Usage       *Usage        `json:"usage"`
	Favourite   *bool         `json:"favourite"`
	ColorCode   *string       `json:"colorCode"`
	Analytics   *Analytics    `json:"analytics"`
	Versions    *[]Version    `json:"versions"`
	Sync        *SyncState    `json:"sync"`
}

// PatchFromSnippet builds a full patch from s, used by merge imports to
// overwrite an existing record with an incoming one.
func PatchFromSnippet(s Snippet) SnippetPatch {
	return SnippetPatch{
		Title:       &s.Title,
		Description: &s.Description,
		Language:    &s.Language,
		Subject:     &s.Subject,
		Tags:        &s.Tags,
		Code:        &s.Code,
		Type:        &s.Type,
		Errors:      &s.Errors,
		Usage:       &s.Usage,
		Favourite:   &s.Favourite,
		ColorCode:   &s.ColorCode,
		Analytics:   &s.Analytics,
		Versions:    &s.Versions,
		Sync:        &s.Sync,
	}
}
