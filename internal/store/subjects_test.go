package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ryanahq/ryana/internal/apperr"
	"github.com/ryanahq/ryana/internal/models"
)

func TestAddSubject_Defaults(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	id, err := st.AddSubject(ctx, models.Subject{Name: "Algorithms"})
	if err != nil {
		t.Fatal(err)
	}

	subjects, err := st.GetAllSubjects(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(subjects) != 1 {
		t.Fatalf("subjects = %d, want 1", len(subjects))
	}
	sub := subjects[0]
	if sub.ID != id {
		t.Errorf("id = %q, want %q", sub.ID, id)
	}
	if sub.ColorIndex != 1 || sub.Year != 1 || sub.Semester != 1 {
		t.Errorf("defaults = colorIndex %d year %d semester %d, want all 1",
			sub.ColorIndex, sub.Year, sub.Semester)
	}
	if !strings.HasPrefix(sub.ColorCode, "hsl(") {
		t.Errorf("colorCode = %q, want a generated hsl value", sub.ColorCode)
	}
	if sub.CreatedAt == 0 {
		t.Error("createdAt should be assigned")
	}
}

func TestAddSubject_EmptyName(t *testing.T) {
	st := newTestStore(t)
	_, err := st.AddSubject(context.Background(), models.Subject{})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestAddSubject_DuplicateName(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if _, err := st.AddSubject(ctx, models.Subject{Name: "DB"}); err != nil {
		t.Fatal(err)
	}
	_, err := st.AddSubject(ctx, models.Subject{Name: "DB"})
	if !errors.Is(err, apperr.ErrDuplicateName) {
		t.Errorf("err = %v, want ErrDuplicateName", err)
	}

	subjects, _ := st.GetAllSubjects(ctx)
	if len(subjects) != 1 {
		t.Errorf("subjects after failed add = %d, want 1", len(subjects))
	}
}

func TestAddSubject_PreservesProvidedIdentity(t *testing.T) {
	st := newTestStore(t)
	id, err := st.AddSubject(context.Background(), models.Subject{
		ID:        "sub-1",
		Name:      "Networks",
		CreatedAt: 4242,
	})
	if err != nil {
		t.Fatal(err)
	}
	if id != "sub-1" {
		t.Errorf("id = %q, want sub-1", id)
	}
}

func TestUpdateSubject(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	id, _ := st.AddSubject(ctx, models.Subject{Name: "OS"})

	year := 3
	if err := st.UpdateSubject(ctx, id, models.SubjectPatch{Year: &year}); err != nil {
		t.Fatal(err)
	}
	subjects, _ := st.GetAllSubjects(ctx)
	if subjects[0].Year != 3 {
		t.Errorf("year = %d, want 3", subjects[0].Year)
	}
	if subjects[0].Name != "OS" {
		t.Errorf("name = %q, patch should not clear it", subjects[0].Name)
	}
}

func TestUpdateSubject_RenameCollision(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	st.AddSubject(ctx, models.Subject{Name: "A"})
	id, _ := st.AddSubject(ctx, models.Subject{Name: "B"})

	name := "A"
	err := st.UpdateSubject(ctx, id, models.SubjectPatch{Name: &name})
	if !errors.Is(err, apperr.ErrDuplicateName) {
		t.Errorf("err = %v, want ErrDuplicateName", err)
	}

	// Renaming to its own current name is fine.
	same := "B"
	if err := st.UpdateSubject(ctx, id, models.SubjectPatch{Name: &same}); err != nil {
		t.Errorf("self-rename failed: %v", err)
	}
}

func TestUpdateSubject_NotFound(t *testing.T) {
	st := newTestStore(t)
	name := "x"
	err := st.UpdateSubject(context.Background(), "ghost", models.SubjectPatch{Name: &name})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteSubject(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	id, _ := st.AddSubject(ctx, models.Subject{Name: "Gone"})

	// Snippets keep their dangling subject label.
	snID := mustAdd(t, st, models.Snippet{Code: "a", Subject: "Gone"})

	if err := st.DeleteSubject(ctx, id); err != nil {
		t.Fatal(err)
	}
	if err := st.DeleteSubject(ctx, id); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}

	sn, _ := st.GetSnippet(ctx, snID)
	if sn.Subject != "Gone" {
		t.Errorf("snippet subject = %q, want unchanged label", sn.Subject)
	}
}
