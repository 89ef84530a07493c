package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"producthot/internal/channels"
	"producthot/internal/digest"
	"producthot/internal/logging"
	"producthot/internal/model"
	"producthot/internal/state"

	"github.com/go-chi/chi/v5"
)

type handlers struct {
	store       *state.Store
	refresher   Refresher
	health      func(ctx context.Context) error
	digestTitle string
}

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, v any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: v})
}

// ids keeps empty lists as [] rather than null.
func ids(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Message: msg})
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// parseFilter reads category, q and sort. An empty or "all" category matches everything.
func parseFilter(q url.Values) (state.Filter, error) {
	var f state.Filter
	switch c := model.Category(strings.TrimSpace(q.Get("category"))); {
	case c == "" || c == "all":
	case slices.Contains(model.Categories, c):
		f.Category = c
	default:
		return state.Filter{}, fmt.Errorf("unknown category %s", strconv.Quote(string(c)))
	}
	f.Query = q.Get("q")
	sortKey, err := state.ParseSortKey(q.Get("sort"))
	if err != nil {
		return state.Filter{}, err
	}
	f.Sort = sortKey
	return f, nil
}

// listNews applies category, q and sort from the query string. Without any of
// them the stored filter is used.
func (h *handlers) listNews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("category") && !q.Has("q") && !q.Has("sort") {
		writeData(w, h.store.Filtered())
		return
	}
	f, err := parseFilter(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeData(w, f.Apply(h.store.News()))
}

func (h *handlers) getFilter(w http.ResponseWriter, r *http.Request) {
	writeData(w, h.store.Snapshot().Filter)
}

func (h *handlers) setFilter(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.store.Dispatch(r.Context(), state.SetFilter{Filter: f}); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeData(w, f)
}

func (h *handlers) resetFilter(w http.ResponseWriter, r *http.Request) {
	_ = h.store.Dispatch(r.Context(), state.ResetFilter{})
	writeData(w, h.store.Snapshot().Filter)
}

func (h *handlers) getSettings(w http.ResponseWriter, r *http.Request) {
	writeData(w, h.store.Settings())
}

// patchSettings takes a JSON object of setting keys to values, e.g.
// {"theme":"dark","refresh_interval":"10m"}. Nothing changes unless every key is valid.
func (h *handlers) patchSettings(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "body must be a JSON object")
		return
	}
	s := h.store.Settings()
	keys := make([]string, 0, len(patch))
	for k := range patch {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if err := s.Set(k, fmt.Sprint(patch[k])); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if err := h.store.Dispatch(r.Context(), state.UpdateSettings{Settings: s}); err != nil {
		h.storeError(w, r, err)
		return
	}
	writeData(w, h.store.Settings())
}

func (h *handlers) listChannels(w http.ResponseWriter, r *http.Request) {
	writeData(w, h.store.Channels())
}

func (h *handlers) getChannel(w http.ResponseWriter, r *http.Request) {
	ch, ok := channels.Find(h.store.Channels(), model.Category(chi.URLParam(r, "id")))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown channel")
		return
	}
	writeData(w, ch)
}

func (h *handlers) refresh(w http.ResponseWriter, r *http.Request) {
	if h.refresher == nil {
		writeError(w, http.StatusServiceUnavailable, "refresh is not available")
		return
	}
	if err := h.refresher.Refresh(r.Context(), true); err != nil {
		if errors.Is(err, state.ErrStaleGeneration) {
			writeError(w, http.StatusConflict, "superseded by a newer refresh")
			return
		}
		logging.From(r.Context()).Error("server: refresh failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	snap := h.store.Snapshot()
	writeData(w, map[string]any{
		"items":       len(snap.News),
		"lastUpdated": snap.LastUpdated,
	})
}

// digest renders the top items of every channel as HTML.
func (h *handlers) digest(w http.ResponseWriter, r *http.Request) {
	topN := 10
	if v := r.URL.Query().Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "top must be a non-negative integer")
			return
		}
		topN = n
	}
	d := digest.Build(h.store.Channels(), digest.Options{
		Title:  h.digestTitle,
		Locale: h.store.Settings().Language,
		TopN:   topN,
	})
	out, err := digest.RenderHTML(d)
	if err != nil {
		logging.From(r.Context()).Error("server: digest failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to render digest")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(out))
}

func (h *handlers) listFavorites(w http.ResponseWriter, r *http.Request) {
	writeData(w, ids(h.store.Favorites()))
}

func (h *handlers) addFavorite(w http.ResponseWriter, r *http.Request) {
	h.mutateID(w, r, h.store.AddFavorite, h.store.Favorites)
}

func (h *handlers) removeFavorite(w http.ResponseWriter, r *http.Request) {
	h.mutateID(w, r, h.store.RemoveFavorite, h.store.Favorites)
}

func (h *handlers) listBookmarks(w http.ResponseWriter, r *http.Request) {
	writeData(w, ids(h.store.Bookmarks()))
}

func (h *handlers) addBookmark(w http.ResponseWriter, r *http.Request) {
	h.mutateID(w, r, h.store.AddBookmark, h.store.Bookmarks)
}

func (h *handlers) removeBookmark(w http.ResponseWriter, r *http.Request) {
	h.mutateID(w, r, h.store.RemoveBookmark, h.store.Bookmarks)
}

func (h *handlers) listHistory(w http.ResponseWriter, r *http.Request) {
	writeData(w, ids(h.store.History()))
}

func (h *handlers) addHistory(w http.ResponseWriter, r *http.Request) {
	h.mutateID(w, r, h.store.AddHistory, h.store.History)
}

func (h *handlers) clearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ClearHistory(r.Context()); err != nil {
		h.storeError(w, r, err)
		return
	}
	writeData(w, ids(h.store.History()))
}

// mutateID parses {id}, applies op and answers with the resulting list.
func (h *handlers) mutateID(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id int) error, list func() []int) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "id must be a positive integer")
		return
	}
	if err := op(r.Context(), id); err != nil {
		h.storeError(w, r, err)
		return
	}
	writeData(w, ids(list()))
}

// storeError reports a failed persist. The in-memory change has already been applied.
func (h *handlers) storeError(w http.ResponseWriter, r *http.Request, err error) {
	logging.From(r.Context()).Error("server: persist failed", "error", err)
	writeError(w, http.StatusInternalServerError, "failed to save preferences")
}
