package store

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/ryanahq/ryana/internal/apperr"
	"github.com/ryanahq/ryana/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbFile, err := os.CreateTemp("", "ryana-store-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	st, err := Open(dbFile.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func mustAdd(t *testing.T, st *Store, sn models.Snippet) string {
	t.Helper()
	if sn.Code == "" {
		sn.Code = "x := 1"
	}
	id, err := st.AddSnippet(context.Background(), sn)
	if err != nil {
		t.Fatalf("AddSnippet: %v", err)
	}
	return id
}

func tagCount(t *testing.T, st *Store, name string) int {
	t.Helper()
	tags, err := st.GetAllTags(context.Background())
	if err != nil {
		t.Fatalf("GetAllTags: %v", err)
	}
	for _, tag := range tags {
		if tag.Name == name {
			return tag.Count
		}
	}
	return 0
}

func TestAddSnippet_Defaults(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	id, err := st.AddSnippet(ctx, models.Snippet{Code: "print(1)"})
	if err != nil {
		t.Fatal(err)
	}

	sn, err := st.GetSnippet(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if sn.Title != "Untitled Snippet" {
		t.Errorf("title = %q, want Untitled Snippet", sn.Title)
	}
	if sn.Language != "plaintext" {
		t.Errorf("language = %q, want plaintext", sn.Language)
	}
	if sn.Type != models.TypeCode {
		t.Errorf("type = %q, want code", sn.Type)
	}
	if sn.Sync.Source != "local" {
		t.Errorf("sync source = %q, want local", sn.Sync.Source)
	}
	if sn.CreatedAt == 0 || sn.UpdatedAt == 0 {
		t.Error("timestamps should be assigned")
	}
	if len(sn.Tags) != 0 {
		t.Errorf("tags = %v, want empty", sn.Tags)
	}
}

func TestAddSnippet_EmptyCode(t *testing.T) {
	st := newTestStore(t)
	_, err := st.AddSnippet(context.Background(), models.Snippet{Title: "no code"})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestAddSnippet_PreservesProvidedIdentity(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	id, err := st.AddSnippet(ctx, models.Snippet{
		ID:        "fixed-id",
		Code:      "x",
		CreatedAt: 1111,
		UpdatedAt: 2222,
	})
	if err != nil {
		t.Fatal(err)
	}
	if id != "fixed-id" {
		t.Fatalf("id = %q, want fixed-id", id)
	}

	sn, _ := st.GetSnippet(ctx, id)
	if sn.CreatedAt != 1111 || sn.UpdatedAt != 2222 {
		t.Errorf("timestamps = %d/%d, want 1111/2222", sn.CreatedAt, sn.UpdatedAt)
	}
}

func TestGetSnippet_Missing(t *testing.T) {
	st := newTestStore(t)
	sn, err := st.GetSnippet(context.Background(), "nope")
	if err != nil {
		t.Fatalf("missing snippet should not error: %v", err)
	}
	if sn != nil {
		t.Errorf("sn = %+v, want nil", sn)
	}
}

func TestGetAllSnippets_Filters(t *testing.T) {
	st := newTestStore(t)
	fav := true
	mustAdd(t, st, models.Snippet{Code: "a", Type: models.TypeCode, Language: "go", Subject: "Algo", Favourite: true, Tags: []string{"t1"}})
	mustAdd(t, st, models.Snippet{Code: "b", Type: models.TypeError, Language: "python", Subject: "DB"})

	tests := []struct {
		name string
		f    Filters
		want int
	}{
		{"all", Filters{}, 2},
		{"type", Filters{Type: models.TypeError}, 1},
		{"language", Filters{Language: "go"}, 1},
		{"subject", Filters{Subject: "Algo"}, 1},
		{"favourite", Filters{Favourite: &fav}, 1},
		{"tag", Filters{Tag: "t1"}, 1},
		{"tag miss", Filters{Tag: "other"}, 0},
		{"combined", Filters{Type: models.TypeCode, Language: "go"}, 1},
	}
	for _, tt := range tests {
		got, err := st.GetAllSnippets(context.Background(), tt.f)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if len(got) != tt.want {
			t.Errorf("%s: len = %d, want %d", tt.name, len(got), tt.want)
		}
	}
}

func TestUpdateSnippet_NotFound(t *testing.T) {
	st := newTestStore(t)
	title := "x"
	err := st.UpdateSnippet(context.Background(), "ghost", models.SnippetPatch{Title: &title})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateSnippet_PartialPatch(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	id := mustAdd(t, st, models.Snippet{Title: "orig", Code: "orig code", Description: "desc"})

	before, _ := st.GetSnippet(ctx, id)

	title := "renamed"
	if err := st.UpdateSnippet(ctx, id, models.SnippetPatch{Title: &title}); err != nil {
		t.Fatal(err)
	}

	after, _ := st.GetSnippet(ctx, id)
	if after.Title != "renamed" {
		t.Errorf("title = %q", after.Title)
	}
	if after.Code != "orig code" || after.Description != "desc" {
		t.Error("untouched fields changed")
	}
	if after.CreatedAt != before.CreatedAt {
		t.Error("createdAt must not change on update")
	}
	if after.UpdatedAt < before.UpdatedAt {
		t.Error("updatedAt went backwards")
	}
}

func TestDeleteSnippet_NotFound(t *testing.T) {
	st := newTestStore(t)
	err := st.DeleteSnippet(context.Background(), "ghost")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// Tag count lifecycle: counts always equal the number of live snippets
// referencing the tag, and a tag vanishes when its count reaches zero.
func TestTagCounts_Lifecycle(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	a := mustAdd(t, st, models.Snippet{Code: "a", Tags: []string{"go", "shared"}})
	b := mustAdd(t, st, models.Snippet{Code: "b", Tags: []string{"shared"}})

	if got := tagCount(t, st, "shared"); got != 2 {
		t.Fatalf("shared count = %d, want 2", got)
	}
	if got := tagCount(t, st, "go"); got != 1 {
		t.Fatalf("go count = %d, want 1", got)
	}

	// Retagging a snippet moves counts both ways.
	newTags := []string{"go", "new"}
	if err := st.UpdateSnippet(ctx, b, models.SnippetPatch{Tags: &newTags}); err != nil {
		t.Fatal(err)
	}
	if got := tagCount(t, st, "shared"); got != 1 {
		t.Errorf("shared after retag = %d, want 1", got)
	}
	if got := tagCount(t, st, "go"); got != 2 {
		t.Errorf("go after retag = %d, want 2", got)
	}
	if got := tagCount(t, st, "new"); got != 1 {
		t.Errorf("new after retag = %d, want 1", got)
	}

	// Deleting snippets decrements; zero-count tags disappear.
	if err := st.DeleteSnippet(ctx, a); err != nil {
		t.Fatal(err)
	}
	if err := st.DeleteSnippet(ctx, b); err != nil {
		t.Fatal(err)
	}
	tags, err := st.GetAllTags(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 0 {
		t.Errorf("tags after deleting all snippets = %+v, want none", tags)
	}
}

func TestTagCounts_UnchangedTagsKeepCounts(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	id := mustAdd(t, st, models.Snippet{Code: "a", Tags: []string{"stable"}})

	title := "renamed"
	if err := st.UpdateSnippet(ctx, id, models.SnippetPatch{Title: &title}); err != nil {
		t.Fatal(err)
	}
	if got := tagCount(t, st, "stable"); got != 1 {
		t.Errorf("count after unrelated update = %d, want 1", got)
	}
}

func TestSearchSnippets_MatchesAllFields(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	mustAdd(t, st, models.Snippet{Title: "Needle in title", Code: "a"})
	mustAdd(t, st, models.Snippet{Code: "needle in code"})
	mustAdd(t, st, models.Snippet{Code: "c", Tags: []string{"needle-tag"}})
	mustAdd(t, st, models.Snippet{Code: "d", Errors: []models.ErrorEntry{{Message: "NEEDLE panic"}}})
	mustAdd(t, st, models.Snippet{Code: "nothing here"})

	got, err := st.SearchSnippets(ctx, "needle")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 {
		t.Errorf("matches = %d, want 4", len(got))
	}
}

func TestRecordViewAndCopy(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	id := mustAdd(t, st, models.Snippet{Code: "a"})

	if err := st.RecordView(ctx, id); err != nil {
		t.Fatal(err)
	}
	if err := st.RecordCopy(ctx, id); err != nil {
		t.Fatal(err)
	}
	if err := st.RecordCopy(ctx, id); err != nil {
		t.Fatal(err)
	}

	sn, _ := st.GetSnippet(ctx, id)
	if sn.Analytics.TimesViewed != 1 {
		t.Errorf("views = %d, want 1", sn.Analytics.TimesViewed)
	}
	if sn.Analytics.TimesCopied != 2 {
		t.Errorf("copies = %d, want 2", sn.Analytics.TimesCopied)
	}
	if sn.Analytics.LastViewed == nil || sn.Analytics.LastCopied == nil {
		t.Error("last timestamps should be set")
	}

	// Missing id is a silent no-op.
	if err := st.RecordView(ctx, "ghost"); err != nil {
		t.Errorf("view on missing id = %v, want nil", err)
	}
}

func TestGetTagSuggestions(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	mustAdd(t, st, models.Snippet{Code: "a", Tags: []string{"golang", "go", "python"}})
	mustAdd(t, st, models.Snippet{Code: "b", Tags: []string{"go"}})

	got, err := st.GetTagSuggestions(ctx, "GO")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("suggestions = %+v, want 2 entries", got)
	}
	// Ordered by count descending, like GetAllTags.
	if got[0].Name != "go" || got[1].Name != "golang" {
		t.Errorf("order = %q, %q, want go then golang", got[0].Name, got[1].Name)
	}
}
