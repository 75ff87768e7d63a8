package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/expopass/server/internal/api/problem"
	"github.com/expopass/server/internal/domain/locations"
)

// Searcher is the query side of the search index.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]locations.SearchDocument, error)
}

// SearchHandler serves free-text location search against the index.
type SearchHandler struct {
	Searcher Searcher
	Env      string
}

func NewSearchHandler(searcher Searcher, env string) *SearchHandler {
	return &SearchHandler{Searcher: searcher, Env: env}
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	if h.Searcher == nil {
		problem.Write(w, r, problem.SearchDisabled, nil, h.Env)
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		writeDomainError(w, r, locations.ValidationError{Field: "q", Message: "required"}, h.Env)
		return
	}
	limit := 25
	if value, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && value > 0 && value <= 100 {
		limit = value
	}

	docs, err := h.Searcher.Search(r.Context(), query, limit)
	if err != nil {
		problem.Write(w, r, problem.ServerError, err, h.Env)
		return
	}
	if docs == nil {
		docs = []locations.SearchDocument{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": docs})
}
