package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/expopass/server/internal/api/problem"
	"github.com/expopass/server/internal/domain/locations"
)

const maxJSONBody = 10 << 20 // 10 MiB, import payloads included

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// writeDomainError maps domain error types onto problem responses so
// every handler reports validation, conflict, missing-row and
// child-guard failures the same way.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error, env string) {
	var validationErr locations.ValidationError
	if errors.As(err, &validationErr) {
		problem.Write(w, r, problem.Validation, err, env,
			problem.WithErrors(map[string]any{validationErr.Field: validationErr.Message}))
		return
	}

	var conflictErr locations.ConflictError
	if errors.As(err, &conflictErr) {
		problem.Write(w, r, problem.Conflict, err, env,
			problem.WithErrors(map[string]any{conflictErr.Field: conflictErr.Value}))
		return
	}

	var depErr locations.DependencyExistsError
	if errors.As(err, &depErr) {
		problem.Write(w, r, problem.DependencyExists, err, env,
			problem.WithErrors(map[string]any{
				"childLevel": string(depErr.ChildLevel),
				"count":      depErr.Count,
			}))
		return
	}

	if errors.Is(err, locations.ErrNotFound) {
		problem.Write(w, r, problem.NotFound, err, env)
		return
	}

	problem.Write(w, r, problem.ServerError, err, env)
}

func parseListParams(r *http.Request) locations.ListParams {
	query := r.URL.Query()
	params := locations.ListParams{
		ParentID:        query.Get("parentId"),
		Query:           query.Get("q"),
		IncludeInactive: query.Get("includeInactive") == "true",
	}
	if value, err := strconv.Atoi(query.Get("offset")); err == nil && value > 0 {
		params.Offset = value
	}
	if value, err := strconv.Atoi(query.Get("limit")); err == nil && value > 0 {
		params.Limit = value
	}
	return params
}
