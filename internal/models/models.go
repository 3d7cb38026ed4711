package models

// Subject is a user-defined category (e.g. a course) that snippets reference
// by name. Names are unique across the collection.
type Subject struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ColorCode   string `json:"colorCode"`
	ColorIndex  int    `json:"colorIndex"`
	Description string `json:"description"`
	Year        int    `json:"year"`
	Semester    int    `json:"semester"`
	CreatedAt   int64  `json:"createdAt"`
}

// SubjectPatch carries a partial subject update.
type SubjectPatch struct {
	Name        *string `json:"name"`
	ColorCode   *string `json:"colorCode"`
	ColorIndex  *int    `json:"colorIndex"`
	Description *string `json:"description"`
	Year        *int    `json:"year"`
	Semester    *int    `json:"semester"`
}

// Tag is a denormalized usage-count aggregate over Snippet.Tags. It is
// created when a tag name is first used and deleted when its count drops
// to zero; it is never written directly by a user-facing operation.
type Tag struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Count    int    `json:"count"`
	LastUsed int64  `json:"lastUsed"`
}

// SettingsID is the fixed key of the singleton settings record.
const SettingsID = "user-settings"

// Settings is the single global preferences record. The sync fields are
// reserved for future remote synchronization.
type Settings struct {
	ID                string  `json:"id"`
	Theme             string  `json:"theme"`
	SyncEnabled       bool    `json:"syncEnabled"`
	SyncProvider      *string `json:"syncProvider"`
	AuthToken         *string `json:"authToken"`
	DefaultLanguage   string  `json:"defaultLanguage"`
	AutoSave          bool    `json:"autoSave"`
	KeyboardShortcuts bool    `json:"keyboardShortcuts"`
	CreatedAt         int64   `json:"createdAt"`
	UpdatedAt         int64   `json:"updatedAt"`
}

// SettingsPatch carries a partial settings update.
type SettingsPatch struct {
	Theme             *string `json:"theme"`
	SyncEnabled       *bool   `json:"syncEnabled"`
	SyncProvider      *string `json:"syncProvider"`
	AuthToken         *string `json:"authToken"`
	DefaultLanguage   *string `json:"defaultLanguage"`
	AutoSave          *bool   `json:"autoSave"`
	KeyboardShortcuts *bool   `json:"keyboardShortcuts"`
}
