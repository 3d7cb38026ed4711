package store

import (
	"context"
	"testing"

	"github.com/ryanahq/ryana/internal/models"
)

func TestOpen_SeedsSettingsAndSchemaVersion(t *testing.T) {
	st := newTestStore(t)

	v, err := st.SchemaVersion()
	if err != nil {
		t.Fatal(err)
	}
	if v != schemaVersion {
		t.Errorf("schema version = %d, want %d", v, schemaVersion)
	}

	settings, err := st.GetSettings(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if settings.ID != models.SettingsID {
		t.Errorf("settings id = %q, want %q", settings.ID, models.SettingsID)
	}
	if settings.Theme != "light" || settings.DefaultLanguage != "javascript" {
		t.Errorf("seeded defaults = %q/%q, want light/javascript", settings.Theme, settings.DefaultLanguage)
	}
	if !settings.AutoSave || !settings.KeyboardShortcuts || settings.SyncEnabled {
		t.Error("seeded flags wrong")
	}
}

func TestUpdateSettings_MergesPatch(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	before, _ := st.GetSettings(ctx)

	theme := "dark"
	if err := st.UpdateSettings(ctx, models.SettingsPatch{Theme: &theme}); err != nil {
		t.Fatal(err)
	}

	after, _ := st.GetSettings(ctx)
	if after.Theme != "dark" {
		t.Errorf("theme = %q, want dark", after.Theme)
	}
	if after.DefaultLanguage != before.DefaultLanguage {
		t.Error("untouched field changed")
	}
	if after.UpdatedAt < before.UpdatedAt {
		t.Error("updatedAt went backwards")
	}
	if after.CreatedAt != before.CreatedAt {
		t.Error("createdAt must not change")
	}
}

func TestExportDatabase(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	mustAdd(t, st, models.Snippet{Code: "a", Tags: []string{"t"}})
	st.AddSubject(ctx, models.Subject{Name: "S"})

	snap, err := st.ExportDatabase(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Version != schemaVersion {
		t.Errorf("version = %d, want %d", snap.Version, schemaVersion)
	}
	if snap.ExportedAt == 0 {
		t.Error("exportedAt should be set")
	}
	if len(snap.Snippets) != 1 || len(snap.Subjects) != 1 || len(snap.Tags) != 1 {
		t.Errorf("collections = %d/%d/%d, want 1/1/1",
			len(snap.Snippets), len(snap.Subjects), len(snap.Tags))
	}
	if snap.Settings == nil {
		t.Error("settings missing from full export")
	}
}

func TestClearAllData_KeepsSettings(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	mustAdd(t, st, models.Snippet{Code: "a", Tags: []string{"t"}})
	st.AddSubject(ctx, models.Subject{Name: "S"})

	theme := "dark"
	st.UpdateSettings(ctx, models.SettingsPatch{Theme: &theme})

	if err := st.ClearAllData(ctx); err != nil {
		t.Fatal(err)
	}

	snippets, _ := st.GetAllSnippets(ctx, Filters{})
	subjects, _ := st.GetAllSubjects(ctx)
	tags, _ := st.GetAllTags(ctx)
	if len(snippets) != 0 || len(subjects) != 0 || len(tags) != 0 {
		t.Errorf("collections not cleared: %d/%d/%d", len(snippets), len(subjects), len(tags))
	}

	settings, err := st.GetSettings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if settings.Theme != "dark" {
		t.Errorf("settings theme = %q, clear must not touch settings", settings.Theme)
	}
}

func TestOpen_Reopen(t *testing.T) {
	// Reopening an existing database must not disturb stored data.
	st := newTestStore(t)
	ctx := context.Background()
	id := mustAdd(t, st, models.Snippet{Code: "persist me"})

	// Simulate restart against the same file.
	path := dbPath(t, st)
	st.Close()

	st2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer st2.Close()

	sn, err := st2.GetSnippet(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if sn == nil || sn.Code != "persist me" {
		t.Errorf("snippet after reopen = %+v", sn)
	}
}

func dbPath(t *testing.T, st *Store) string {
	t.Helper()
	var path string
	if err := st.conn.QueryRow(`SELECT file FROM pragma_database_list WHERE name = 'main'`).Scan(&path); err != nil {
		t.Fatal(err)
	}
	return path
}
