package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ryanahq/ryana/internal/query"
	"github.com/ryanahq/ryana/internal/search"
	"github.com/ryanahq/ryana/internal/store"
	"github.com/ryanahq/ryana/internal/transfer"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group;
// notify, if non-nil, receives change events after every mutation.
func NewRouter(st *store.Store, se *search.Service, tr *transfer.Service, qu *query.Service,
	authEnabled bool, token string, sseHandler http.Handler, notify Notifier) chi.Router {
	h := NewHandler(st, se, tr, qu, notify)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Snippets CRUD plus analytics and discovery.
	r.Get("/snippets", h.ListSnippets)
	r.Post("/snippets", h.CreateSnippet)
	r.Get("/snippets/popular", h.MostPopular)
	r.Get("/snippets/recent", h.RecentlyAdded)
	r.Get("/snippets/{id}", h.GetSnippet)
	r.Put("/snippets/{id}", h.UpdateSnippet)
	r.Delete("/snippets/{id}", h.DeleteSnippet)
	r.Post("/snippets/{id}/view", h.RecordView)
	r.Post("/snippets/{id}/copy", h.RecordCopy)
	r.Get("/snippets/{id}/related", h.RelatedSnippets)
	r.Get("/errors/frequent", h.FrequentErrors)

	// Subjects CRUD.
	r.Get("/subjects", h.ListSubjects)
	r.Post("/subjects", h.CreateSubject)
	r.Put("/subjects/{id}", h.UpdateSubject)
	r.Delete("/subjects/{id}", h.DeleteSubject)

	// Settings singleton.
	r.Get("/settings", h.GetSettings)
	r.Put("/settings", h.UpdateSettings)

	// Tags.
	r.Get("/tags", h.ListTags)
	r.Get("/tags/suggestions", h.TagSuggestions)

	// Search, suggestions, statistics, views.
	r.Get("/search", h.Search)
	r.Get("/suggestions", h.Suggestions)
	r.Get("/stats", h.Stats)
	r.Get("/views/{view}", h.LoadView)
	r.Get("/options", h.FilterOptions)

	// Snapshot transfer.
	r.Get("/export", h.Export)
	r.Post("/import", h.Import)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
