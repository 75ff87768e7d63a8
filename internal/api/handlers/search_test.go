package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/expopass/server/internal/domain/locations"
)

type stubSearcher func(query string, limit int) ([]locations.SearchDocument, error)

func (s stubSearcher) Search(_ context.Context, query string, limit int) ([]locations.SearchDocument, error) {
	return s(query, limit)
}

func TestSearchReturnsDocuments(t *testing.T) {
	searcher := stubSearcher(func(query string, limit int) ([]locations.SearchDocument, error) {
		require.Equal(t, "ahmed", query)
		require.Equal(t, 10, limit)
		return []locations.SearchDocument{{ID: "p-1", Pincode: "380001", City: "Ahmedabad"}}, nil
	})

	h := NewSearchHandler(searcher, "test")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/locations/search?q=ahmed&limit=10", nil)
	res := httptest.NewRecorder()

	h.Search(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	var payload struct {
		Items []locations.SearchDocument `json:"items"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))
	require.Len(t, payload.Items, 1)
	require.Equal(t, "Ahmedabad", payload.Items[0].City)
}

func TestSearchEmptyResultIsEmptyList(t *testing.T) {
	searcher := stubSearcher(func(string, int) ([]locations.SearchDocument, error) {
		return nil, nil
	})

	h := NewSearchHandler(searcher, "test")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/locations/search?q=nowhere", nil)
	res := httptest.NewRecorder()

	h.Search(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	require.JSONEq(t, `{"items":[]}`, res.Body.String())
}

func TestSearchRequiresQuery(t *testing.T) {
	h := NewSearchHandler(stubSearcher(func(string, int) ([]locations.SearchDocument, error) {
		return nil, errors.New("should not be called")
	}), "test")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/locations/search", nil)
	res := httptest.NewRecorder()

	h.Search(res, req)

	require.Equal(t, http.StatusBadRequest, res.Code)
}

func TestSearchDisabledWithoutBackend(t *testing.T) {
	h := NewSearchHandler(nil, "test")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/locations/search?q=ahmed", nil)
	res := httptest.NewRecorder()

	h.Search(res, req)

	require.Equal(t, http.StatusServiceUnavailable, res.Code)
}
