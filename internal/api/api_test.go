package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ryanahq/ryana/internal/models"
	"github.com/ryanahq/ryana/internal/query"
	"github.com/ryanahq/ryana/internal/search"
	"github.com/ryanahq/ryana/internal/testutil"
	"github.com/ryanahq/ryana/internal/transfer"
)

// testRouter sets up a temp store and router for testing.
// authEnabled=false means disabled mode; authEnabled=true with non-empty
// token means token mode.
func testRouter(t *testing.T, authEnabled bool, token string) http.Handler {
	t.Helper()
	st := testutil.TestStore(t)
	se := search.NewService(st)
	tr := transfer.NewService(st)
	qu := query.NewService(st)
	return NewRouter(st, se, tr, qu, authEnabled, token, nil, nil)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(data)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createSnippet(t *testing.T, router http.Handler, body map[string]any) models.Snippet {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/snippets", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var sn models.Snippet
	if err := json.Unmarshal(w.Body.Bytes(), &sn); err != nil {
		t.Fatal(err)
	}
	return sn
}

func TestCreateAndGetSnippet(t *testing.T) {
	router := testRouter(t, false, "")

	created := createSnippet(t, router, map[string]any{
		"title": "Binary search",
		"code":  "func Search() {}",
		"tags":  []string{"search"},
	})
	if created.ID == "" {
		t.Fatal("created snippet has empty id")
	}

	w := doJSON(t, router, http.MethodGet, "/snippets/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var got models.Snippet
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.Title != "Binary search" {
		t.Errorf("title = %q, want Binary search", got.Title)
	}
	if got.Language != "plaintext" {
		t.Errorf("language = %q, want plaintext default", got.Language)
	}
}

func TestCreateSnippet_MissingCode(t *testing.T) {
	router := testRouter(t, false, "")

	w := doJSON(t, router, http.MethodPost, "/snippets", map[string]any{"title": "no code"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("create without code = %d, want 400", w.Code)
	}
}

func TestUpdateSnippet(t *testing.T) {
	router := testRouter(t, false, "")
	created := createSnippet(t, router, map[string]any{"code": "a"})

	w := doJSON(t, router, http.MethodPut, "/snippets/"+created.ID, map[string]any{"title": "renamed"})
	if w.Code != http.StatusOK {
		t.Fatalf("update = %d, body = %s", w.Code, w.Body.String())
	}
	var got models.Snippet
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.Title != "renamed" {
		t.Errorf("title = %q, want renamed", got.Title)
	}
	if got.Code != "a" {
		t.Errorf("code = %q, patch should not clear untouched fields", got.Code)
	}
}

func TestUpdateSnippet_NotFound(t *testing.T) {
	router := testRouter(t, false, "")

	w := doJSON(t, router, http.MethodPut, "/snippets/ghost", map[string]any{"title": "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("update missing = %d, want 404", w.Code)
	}
}

func TestDeleteSnippet(t *testing.T) {
	router := testRouter(t, false, "")
	created := createSnippet(t, router, map[string]any{"code": "bye"})

	w := doJSON(t, router, http.MethodDelete, "/snippets/"+created.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/snippets/"+created.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
}

func TestListSnippets_TypeFilter(t *testing.T) {
	router := testRouter(t, false, "")
	createSnippet(t, router, map[string]any{"code": "a", "type": "code"})
	createSnippet(t, router, map[string]any{"code": "b", "type": "error"})

	w := doJSON(t, router, http.MethodGet, "/snippets?type=error", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	var resp SnippetListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 1 {
		t.Errorf("total = %d, want 1", resp.Total)
	}
}

func TestViewAndCopyCounters(t *testing.T) {
	router := testRouter(t, false, "")
	created := createSnippet(t, router, map[string]any{"code": "n"})

	for _, p := range []string{"/view", "/copy", "/copy"} {
		w := doJSON(t, router, http.MethodPost, "/snippets/"+created.ID+p, nil)
		if w.Code != http.StatusNoContent {
			t.Fatalf("%s = %d, want 204", p, w.Code)
		}
	}

	w := doJSON(t, router, http.MethodGet, "/snippets/"+created.ID, nil)
	var got models.Snippet
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.Analytics.TimesViewed != 1 || got.Analytics.TimesCopied != 2 {
		t.Errorf("analytics = %d views, %d copies, want 1 and 2",
			got.Analytics.TimesViewed, got.Analytics.TimesCopied)
	}
}

func TestCreateSubject_Duplicate(t *testing.T) {
	router := testRouter(t, false, "")

	w := doJSON(t, router, http.MethodPost, "/subjects", map[string]any{"name": "Algorithms"})
	if w.Code != http.StatusCreated {
		t.Fatalf("first create = %d", w.Code)
	}
	w = doJSON(t, router, http.MethodPost, "/subjects", map[string]any{"name": "Algorithms"})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate create = %d, want 409", w.Code)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	router := testRouter(t, false, "")

	w := doJSON(t, router, http.MethodGet, "/settings", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get settings = %d", w.Code)
	}
	var settings models.Settings
	_ = json.Unmarshal(w.Body.Bytes(), &settings)
	if settings.Theme != "light" {
		t.Errorf("seeded theme = %q, want light", settings.Theme)
	}

	w = doJSON(t, router, http.MethodPut, "/settings", map[string]any{"theme": "dark"})
	if w.Code != http.StatusOK {
		t.Fatalf("put settings = %d", w.Code)
	}
	_ = json.Unmarshal(w.Body.Bytes(), &settings)
	if settings.Theme != "dark" {
		t.Errorf("theme after update = %q, want dark", settings.Theme)
	}
	if settings.DefaultLanguage != "javascript" {
		t.Errorf("defaultLanguage = %q, patch should not clear it", settings.DefaultLanguage)
	}
}

func TestTagsEndpoints(t *testing.T) {
	router := testRouter(t, false, "")
	createSnippet(t, router, map[string]any{"code": "a", "tags": []string{"go", "golang"}})
	createSnippet(t, router, map[string]any{"code": "b", "tags": []string{"go"}})

	w := doJSON(t, router, http.MethodGet, "/tags", nil)
	var resp TagListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Tags) != 2 {
		t.Fatalf("tags = %d, want 2", len(resp.Tags))
	}
	if resp.Tags[0].Name != "go" || resp.Tags[0].Count != 2 {
		t.Errorf("top tag = %+v, want go with count 2", resp.Tags[0])
	}

	w = doJSON(t, router, http.MethodGet, "/tags/suggestions?q=gol", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Tags) != 1 || resp.Tags[0].Name != "golang" {
		t.Errorf("suggestions for gol = %+v, want golang only", resp.Tags)
	}
}

func TestSearchEndpoint(t *testing.T) {
	router := testRouter(t, false, "")
	createSnippet(t, router, map[string]any{"title": "Quick sort", "code": "qs"})
	createSnippet(t, router, map[string]any{"title": "other", "code": "uniquetoken"})

	w := doJSON(t, router, http.MethodGet, "/search?q=uniquetoken", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d, body = %s", w.Code, w.Body.String())
	}
	var resp SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Results) != 1 {
		t.Errorf("search results = %d, want 1", len(resp.Results))
	}
}

func TestViewsEndpoint(t *testing.T) {
	router := testRouter(t, false, "")
	createSnippet(t, router, map[string]any{"code": "a", "type": "code"})
	createSnippet(t, router, map[string]any{"code": "b", "type": "error"})

	w := doJSON(t, router, http.MethodGet, "/views/errors", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("errors view = %d", w.Code)
	}
	var resp SnippetListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 1 {
		t.Errorf("errors view total = %d, want 1", resp.Total)
	}

	w = doJSON(t, router, http.MethodGet, "/views/bogus", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown view = %d, want 400", w.Code)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	router := testRouter(t, false, "")
	created := createSnippet(t, router, map[string]any{"code": "x", "title": "keep me"})

	w := doJSON(t, router, http.MethodGet, "/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export = %d", w.Code)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if len(snap.Snippets) != 1 || snap.Snippets[0].ID != created.ID {
		t.Fatalf("snapshot snippets = %+v", snap.Snippets)
	}

	// Importing back in add-only mode skips the existing id.
	w = doJSON(t, router, http.MethodPost, "/import", ImportRequest{Mode: "add", Snapshot: &snap})
	if w.Code != http.StatusOK {
		t.Fatalf("import = %d, body = %s", w.Code, w.Body.String())
	}
	var stats models.ImportStats
	_ = json.Unmarshal(w.Body.Bytes(), &stats)
	if stats.Snippets.Skipped != 1 || stats.Snippets.Added != 0 {
		t.Errorf("add-only stats = %+v, want 1 skipped", stats.Snippets)
	}
}

func TestImportReplace_RequiresConfirm(t *testing.T) {
	router := testRouter(t, false, "")
	snap := &models.Snapshot{Version: 1, ExportedAt: time.Now().UnixMilli(), Snippets: []models.Snippet{}}

	w := doJSON(t, router, http.MethodPost, "/import", ImportRequest{Mode: "replace", Snapshot: snap})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unconfirmed replace = %d, want 400", w.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	router := testRouter(t, false, "")
	createSnippet(t, router, map[string]any{"code": "a", "favourite": true})

	w := doJSON(t, router, http.MethodGet, "/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats = %d", w.Code)
	}
	var stats StatsResponse
	_ = json.Unmarshal(w.Body.Bytes(), &stats)
	if stats.Total != 1 || stats.Favourites != 1 {
		t.Errorf("stats = total %d favourites %d, want 1 and 1", stats.Total, stats.Favourites)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	router := testRouter(t, true, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/snippets", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed list = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	router := testRouter(t, true, "secret123")

	w := doJSON(t, router, http.MethodGet, "/snippets", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	router := testRouter(t, true, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/snippets", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	router := testRouter(t, false, "")

	w := doJSON(t, router, http.MethodGet, "/snippets", nil)
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// SSE endpoint auth tests. A stub handler stands in for the broker so the
// tests only exercise routing and the auth middleware.

func testRouterWithSSE(t *testing.T, authEnabled bool, token string) http.Handler {
	t.Helper()
	st := testutil.TestStore(t)
	sseHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})
	return NewRouter(st, search.NewService(st), transfer.NewService(st), query.NewService(st),
		authEnabled, token, sseHandler, nil)
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	router := testRouterWithSSE(t, true, "secret")

	w := doJSON(t, router, http.MethodGet, "/events", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	router := testRouterWithSSE(t, true, "tok")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}
