package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/ryanahq/ryana/internal/models"
	"github.com/ryanahq/ryana/internal/query"
	"github.com/ryanahq/ryana/internal/search"
	"github.com/ryanahq/ryana/internal/store"
	"github.com/ryanahq/ryana/internal/transfer"
)

// Notifier publishes change events to connected UI clients. A nil Notifier
// disables publishing.
type Notifier interface {
	PublishChange(collection, action, id string)
}

// Handler holds API route handlers.
type Handler struct {
	store    *store.Store
	search   *search.Service
	transfer *transfer.Service
	query    *query.Service
	notify   Notifier
}

// NewHandler creates a new Handler.
func NewHandler(st *store.Store, se *search.Service, tr *transfer.Service, qu *query.Service, n Notifier) *Handler {
	return &Handler{store: st, search: se, transfer: tr, query: qu, notify: n}
}

func (h *Handler) publish(collection, action, id string) {
	if h.notify != nil {
		h.notify.PublishChange(collection, action, id)
	}
}

// ListSnippets handles GET /api/snippets.
//
//	@Summary		List snippets with optional filters
//	@Tags			snippets
//	@Produce		json
//	@Param			type		query		string	false	"Filter by type"	Enums(code, error)
//	@Param			subject		query		string	false	"Filter by subject name"
//	@Param			language	query		string	false	"Filter by language"
//	@Param			tag			query		string	false	"Filter by tag membership"
//	@Param			favourite	query		bool	false	"Filter by favourite flag"
//	@Success		200			{object}	SnippetListResponse
//	@Security		BearerAuth
//	@Router			/snippets [get]
func (h *Handler) ListSnippets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.Filters{
		Type:     q.Get("type"),
		Subject:  q.Get("subject"),
		Language: q.Get("language"),
		Tag:      q.Get("tag"),
	}
	if v := q.Get("favourite"); v != "" {
		fav := v == "true" || v == "1"
		f.Favourite = &fav
	}

	snippets, err := h.store.GetAllSnippets(r.Context(), f)
	if err != nil {
		writeError(w, "list snippets", err)
		return
	}
	writeJSON(w, http.StatusOK, SnippetListResponse{Snippets: snippets, Total: len(snippets)})
}

// GetSnippet handles GET /api/snippets/{id}.
//
//	@Summary		Get a single snippet by id
//	@Tags			snippets
//	@Produce		json
//	@Param			id	path		string	true	"Snippet id"
//	@Success		200	{object}	models.Snippet
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/snippets/{id} [get]
func (h *Handler) GetSnippet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sn, err := h.store.GetSnippet(r.Context(), id)
	if err != nil {
		writeError(w, "get snippet", err)
		return
	}
	if sn == nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, sn)
}

// CreateSnippet handles POST /api/snippets.
//
//	@Summary		Create a snippet
//	@Tags			snippets
//	@Accept			json
//	@Produce		json
//	@Param			body	body		models.Snippet	true	"Snippet to create"
//	@Success		201		{object}	models.Snippet
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/snippets [post]
func (h *Handler) CreateSnippet(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var draft models.Snippet
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	id, err := h.store.AddSnippet(r.Context(), draft)
	if err != nil {
		writeError(w, "create snippet", err)
		return
	}
	sn, err := h.store.GetSnippet(r.Context(), id)
	if err != nil {
		writeError(w, "create snippet", err)
		return
	}
	h.publish("snippet", "created", id)
	writeJSON(w, http.StatusCreated, sn)
}

// UpdateSnippet handles PUT /api/snippets/{id}.
//
//	@Summary		Partially update a snippet
//	@Tags			snippets
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Snippet id"
//	@Param			body	body		models.SnippetPatch	true	"Fields to change"
//	@Success		200		{object}	models.Snippet
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/snippets/{id} [put]
func (h *Handler) UpdateSnippet(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	id := chi.URLParam(r, "id")
	var patch models.SnippetPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.store.UpdateSnippet(r.Context(), id, patch); err != nil {
		writeError(w, "update snippet", err)
		return
	}
	sn, err := h.store.GetSnippet(r.Context(), id)
	if err != nil {
		writeError(w, "update snippet", err)
		return
	}
	h.publish("snippet", "updated", id)
	writeJSON(w, http.StatusOK, sn)
}

// DeleteSnippet handles DELETE /api/snippets/{id}.
//
//	@Summary		Delete a snippet
//	@Tags			snippets
//	@Param			id	path	string	true	"Snippet id"
//	@Success		204	"Snippet deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/snippets/{id} [delete]
func (h *Handler) DeleteSnippet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteSnippet(r.Context(), id); err != nil {
		writeError(w, "delete snippet", err)
		return
	}
	h.publish("snippet", "deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

// RecordView handles POST /api/snippets/{id}/view. Unknown ids are a no-op.
func (h *Handler) RecordView(w http.ResponseWriter, r *http.Request) {
	if err := h.store.RecordView(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "record view", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RecordCopy handles POST /api/snippets/{id}/copy. Unknown ids are a no-op.
func (h *Handler) RecordCopy(w http.ResponseWriter, r *http.Request) {
	if err := h.store.RecordCopy(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "record copy", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RelatedSnippets handles GET /api/snippets/{id}/related.
//
//	@Summary		Find snippets similar to the given one
//	@Tags			snippets
//	@Produce		json
//	@Param			id		path		string	true	"Snippet id"
//	@Param			limit	query		int		false	"Max results (default 5)"
//	@Success		200		{object}	SearchResponse
//	@Security		BearerAuth
//	@Router			/snippets/{id}/related [get]
func (h *Handler) RelatedSnippets(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.search.FindRelatedSnippets(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		writeError(w, "related snippets", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// MostPopular handles GET /api/snippets/popular.
func (h *Handler) MostPopular(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.search.MostPopular(r.Context(), limit)
	if err != nil {
		writeError(w, "popular snippets", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// RecentlyAdded handles GET /api/snippets/recent.
func (h *Handler) RecentlyAdded(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.search.RecentlyAdded(r.Context(), days, limit)
	if err != nil {
		writeError(w, "recent snippets", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// FrequentErrors handles GET /api/errors/frequent.
func (h *Handler) FrequentErrors(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.search.FrequentErrors(r.Context(), limit)
	if err != nil {
		writeError(w, "frequent errors", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Search handles GET /api/search.
//
//	@Summary		Ranked search with optional exact-match filters
//	@Tags			search
//	@Produce		json
//	@Param			q			query		string	false	"Free-text query"
//	@Param			type		query		string	false	"Type filter"	Enums(code, error)
//	@Param			language	query		string	false	"Language filter (case-insensitive)"
//	@Param			subject		query		string	false	"Subject filter"
//	@Param			tags		query		string	false	"Comma-separated tags, any-match"
//	@Param			favourite	query		bool	false	"Favourite filter"
//	@Param			from		query		int		false	"Created-at lower bound, ms"
//	@Param			to			query		int		false	"Created-at upper bound, ms"
//	@Param			category	query		string	false	"Category shortcut over title, description, and tags"
//	@Success		200			{object}	SearchResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if cat := q.Get("category"); cat != "" {
		results, err := h.search.ByCategory(r.Context(), cat)
		if err != nil {
			writeError(w, "search", err)
			return
		}
		writeJSON(w, http.StatusOK, SearchResponse{Results: results})
		return
	}

	c := search.Criteria{
		Query:    q.Get("q"),
		Type:     q.Get("type"),
		Language: q.Get("language"),
		Subject:  q.Get("subject"),
	}
	if v := q.Get("tags"); v != "" {
		c.Tags = strings.Split(v, ",")
	}
	if v := q.Get("favourite"); v != "" {
		fav := v == "true" || v == "1"
		c.Favourite = &fav
	}
	c.DateFrom, _ = strconv.ParseInt(q.Get("from"), 10, 64)
	c.DateTo, _ = strconv.ParseInt(q.Get("to"), 10, 64)

	results, err := h.search.AdvancedSearch(r.Context(), c)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Suggestions handles GET /api/suggestions.
func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	sugg, err := h.search.GetSearchSuggestions(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, "suggestions", err)
		return
	}
	writeJSON(w, http.StatusOK, sugg)
}

// Stats handles GET /api/stats.
//
//	@Summary		Vault-wide statistics
//	@Tags			stats
//	@Produce		json
//	@Success		200	{object}	StatsResponse
//	@Security		BearerAuth
//	@Router			/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.search.GetStatistics(r.Context())
	if err != nil {
		writeError(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// LoadView handles GET /api/views/{view}.
//
//	@Summary		Load a filtered, sorted snippet view
//	@Tags			views
//	@Produce		json
//	@Param			view		path		string	true	"View name"	Enums(all, favorites, errors)
//	@Param			q			query		string	false	"Free-text filter"
//	@Param			language	query		string	false	"Language filter"
//	@Param			subject		query		string	false	"Subject filter"
//	@Param			sort		query		string	false	"Sort order"	Enums(updated, created, title, copied, viewed)
//	@Success		200			{object}	SnippetListResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/views/{view} [get]
func (h *Handler) LoadView(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	state := query.State{
		Query:    q.Get("q"),
		Language: q.Get("language"),
		Subject:  q.Get("subject"),
		SortBy:   q.Get("sort"),
	}
	snippets, err := h.query.LoadView(r.Context(), query.View(chi.URLParam(r, "view")), state)
	if err != nil {
		writeError(w, "load view", err)
		return
	}
	writeJSON(w, http.StatusOK, SnippetListResponse{Snippets: snippets, Total: len(snippets)})
}

// FilterOptions handles GET /api/options.
func (h *Handler) FilterOptions(w http.ResponseWriter, r *http.Request) {
	languages, err := h.query.LanguageOptions(r.Context())
	if err != nil {
		writeError(w, "filter options", err)
		return
	}
	subjects, err := h.query.SubjectOptions(r.Context())
	if err != nil {
		writeError(w, "filter options", err)
		return
	}
	if languages == nil {
		languages = []string{}
	}
	if subjects == nil {
		subjects = []string{}
	}
	writeJSON(w, http.StatusOK, OptionsResponse{Languages: languages, Subjects: subjects})
}

// ListSubjects handles GET /api/subjects.
func (h *Handler) ListSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.store.GetAllSubjects(r.Context())
	if err != nil {
		writeError(w, "list subjects", err)
		return
	}
	writeJSON(w, http.StatusOK, SubjectListResponse{Subjects: subjects})
}

// CreateSubject handles POST /api/subjects.
//
//	@Summary		Create a subject
//	@Tags			subjects
//	@Accept			json
//	@Produce		json
//	@Param			body	body		models.Subject	true	"Subject to create"
//	@Success		201		{object}	models.Subject
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/subjects [post]
func (h *Handler) CreateSubject(w http.ResponseWriter, r *http.Request) {
	var draft models.Subject
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	id, err := h.store.AddSubject(r.Context(), draft)
	if err != nil {
		writeError(w, "create subject", err)
		return
	}
	sub, err := h.findSubject(r, id)
	if err != nil {
		writeError(w, "create subject", err)
		return
	}
	h.publish("subject", "created", id)
	writeJSON(w, http.StatusCreated, sub)
}

// UpdateSubject handles PUT /api/subjects/{id}.
func (h *Handler) UpdateSubject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var patch models.SubjectPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.store.UpdateSubject(r.Context(), id, patch); err != nil {
		writeError(w, "update subject", err)
		return
	}
	sub, err := h.findSubject(r, id)
	if err != nil {
		writeError(w, "update subject", err)
		return
	}
	h.publish("subject", "updated", id)
	writeJSON(w, http.StatusOK, sub)
}

// DeleteSubject handles DELETE /api/subjects/{id}. Snippets filed under the
// subject keep their subject string.
func (h *Handler) DeleteSubject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteSubject(r.Context(), id); err != nil {
		writeError(w, "delete subject", err)
		return
	}
	h.publish("subject", "deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) findSubject(r *http.Request, id string) (*models.Subject, error) {
	subjects, err := h.store.GetAllSubjects(r.Context())
	if err != nil {
		return nil, err
	}
	for i := range subjects {
		if subjects[i].ID == id {
			return &subjects[i], nil
		}
	}
	return nil, nil
}

// GetSettings handles GET /api/settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.GetSettings(r.Context())
	if err != nil {
		writeError(w, "get settings", err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// UpdateSettings handles PUT /api/settings.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch models.SettingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.store.UpdateSettings(r.Context(), patch); err != nil {
		writeError(w, "update settings", err)
		return
	}
	settings, err := h.store.GetSettings(r.Context())
	if err != nil {
		writeError(w, "update settings", err)
		return
	}
	h.publish("settings", "updated", models.SettingsID)
	writeJSON(w, http.StatusOK, settings)
}

// ListTags handles GET /api/tags.
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.store.GetAllTags(r.Context())
	if err != nil {
		writeError(w, "list tags", err)
		return
	}
	writeJSON(w, http.StatusOK, TagListResponse{Tags: tags})
}

// TagSuggestions handles GET /api/tags/suggestions.
func (h *Handler) TagSuggestions(w http.ResponseWriter, r *http.Request) {
	tags, err := h.store.GetTagSuggestions(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, "tag suggestions", err)
		return
	}
	writeJSON(w, http.StatusOK, TagListResponse{Tags: tags})
}

// Export handles GET /api/export.
//
//	@Summary		Export the vault as a portable snapshot
//	@Tags			transfer
//	@Produce		json
//	@Param			subject	query		string	false	"Export only this subject's snippets"
//	@Param			ids		query		string	false	"Comma-separated snippet ids to export"
//	@Success		200		{object}	models.Snapshot
//	@Security		BearerAuth
//	@Router			/export [get]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var snap *models.Snapshot
	var err error
	switch {
	case q.Get("subject") != "":
		snap, err = h.transfer.ExportBySubject(r.Context(), q.Get("subject"))
	case q.Get("ids") != "":
		snap, err = h.transfer.ExportSelected(r.Context(), strings.Split(q.Get("ids"), ","))
	default:
		snap, err = h.transfer.ExportAll(r.Context())
	}
	if err != nil {
		writeError(w, "export", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Import handles POST /api/import.
//
//	@Summary		Import a snapshot under a reconciliation policy
//	@Tags			transfer
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ImportRequest	true	"Snapshot plus policy"
//	@Success		200		{object}	models.ImportStats
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/import [post]
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 50<<20)
	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Snapshot == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("snapshot is required"))
		return
	}
	mode, err := transfer.ParseMode(req.Mode)
	if err != nil {
		writeError(w, "import", err)
		return
	}
	stats, err := h.transfer.Import(r.Context(), req.Snapshot, transfer.Options{
		Mode:           mode,
		ConfirmReplace: req.Confirm,
	})
	if err != nil {
		writeError(w, "import", err)
		return
	}
	h.publish("snippet", "imported", "")
	writeJSON(w, http.StatusOK, stats)
}
