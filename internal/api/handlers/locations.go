package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/expopass/server/internal/api/problem"
	"github.com/expopass/server/internal/domain/locations"
	"github.com/expopass/server/internal/metrics"
)

// LocationsHandler serves the admin CRUD, lookup, deletion and
// reconciliation endpoints for the location hierarchy.
type LocationsHandler struct {
	Service   *locations.Service
	Deletes   *locations.DeleteService
	Reconcile *locations.ReconcileService
	Env       string
}

func NewLocationsHandler(service *locations.Service, deletes *locations.DeleteService, reconcile *locations.ReconcileService, env string) *LocationsHandler {
	return &LocationsHandler{Service: service, Deletes: deletes, Reconcile: reconcile, Env: env}
}

type listResponse struct {
	Items  any `json:"items"`
	Total  int `json:"total"`
	Offset int `json:"offset"`
}

type countryPayload struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type statePayload struct {
	CountryID string `json:"countryId"`
	Name      string `json:"name"`
	Code      string `json:"code"`
}

type cityPayload struct {
	StateID string `json:"stateId"`
	Name    string `json:"name"`
}

type pincodePayload struct {
	CityID  string `json:"cityId"`
	Pincode string `json:"pincode"`
	Area    string `json:"area"`
}

func (h *LocationsHandler) ListCountries(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)
	items, total, err := h.Service.ListCountries(r.Context(), params)
	if err != nil {
		writeDomainError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: countriesJSON(items), Total: total, Offset: params.Offset})
}

func (h *LocationsHandler) CreateCountry(w http.ResponseWriter, r *http.Request) {
	var payload countryPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		problem.Write(w, r, problem.Validation, err, h.Env)
		return
	}
	country, err := h.Service.CreateCountry(r.Context(), payload.Name, payload.Code)
	if err != nil {
		writeDomainError(w, r, err, h.Env)
		return
	}
	metrics.LocationsCreatedTotal.WithLabelValues(string(locations.LevelCountry)).Inc()
	writeJSON(w, http.StatusCreated, countryJSON(*country))
}

func (h *LocationsHandler) ListStates(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)
	items, total, err := h.Service.ListStates(r.Context(), params)
	if err != nil {
		writeDomainError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: statesJSON(items), Total: total, Offset: params.Offset})
}

func (h *LocationsHandler) CreateState(w http.ResponseWriter, r *http.Request) {
	var payload statePayload
	if err := decodeJSON(w, r, &payload); err != nil {
		problem.Write(w, r, problem.Validation, err, h.Env)
		return
	}
	state, err := h.Service.CreateState(r.Context(), payload.CountryID, payload.Name, payload.Code)
	if err != nil {
		writeDomainError(w, r, err, h.Env)
		return
	}
	metrics.LocationsCreatedTotal.WithLabelValues(string(locations.LevelState)).Inc()
	writeJSON(w, http.StatusCreated, stateJSON(*state))
}

func (h *LocationsHandler) ListCities(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)
	items, total, err := h.Service.ListCities(r.Context(), params)
	if err != nil {
		writeDomainError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: citiesJSON(items), Total: total, Offset: params.Offset})
}

func (h *LocationsHandler) CreateCity(w http.ResponseWriter, r *http.Request) {
	var payload cityPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		problem.Write(w, r, problem.Validation, err, h.Env)
		return
	}
	city, err := h.Service.CreateCity(r.Context(), payload.StateID, payload.Name)
	if err != nil {
		writeDomainError(w, r, err, h.Env)
		return
	}
	metrics.LocationsCreatedTotal.WithLabelValues(string(locations.LevelCity)).Inc()
	writeJSON(w, http.StatusCreated, cityJSON(*city))
}

func (h *LocationsHandler) ListPincodes(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)
	items, total, err := h.Service.ListPostalCodes(r.Context(), params)
	if err != nil {
		writeDomainError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: pincodesJSON(items), Total: total, Offset: params.Offset})
}

func (h *LocationsHandler) CreatePincode(w http.ResponseWriter, r *http.Request) {
	var payload pincodePayload
	if err := decodeJSON(w, r, &payload); err != nil {
		problem.Write(w, r, problem.Validation, err, h.Env)
		return
	}
	pc, err := h.Service.CreatePostalCode(r.Context(), payload.CityID, payload.Pincode, payload.Area)
	if err != nil {
		writeDomainError(w, r, err, h.Env)
		return
	}
	metrics.LocationsCreatedTotal.WithLabelValues(string(locations.LevelPostalCode)).Inc()
	writeJSON(w, http.StatusCreated, pincodeJSON(*pc))
}

// Lookup resolves a pincode to every matching area with the full parent
// chain attached.
func (h *LocationsHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	details, err := h.Service.LookupByCode(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		metrics.LookupsTotal.WithLabelValues("miss").Inc()
		writeDomainError(w, r, err, h.Env)
		return
	}
	metrics.LookupsTotal.WithLabelValues("hit").Inc()

	items := make([]map[string]any, 0, len(details))
	for _, detail := range details {
		item := pincodeJSON(detail.PostalCode)
		if detail.City.Resolved != nil {
			item["city"] = cityJSON(*detail.City.Resolved)
		}
		if detail.State.Resolved != nil {
			item["state"] = stateJSON(*detail.State.Resolved)
		}
		if detail.Country.Resolved != nil {
			item["country"] = countryJSON(*detail.Country.Resolved)
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// Delete applies the deletion policy to one entity. The level comes
// from the route. A path ID that is not a UUID cannot match any row,
// so it short-circuits to the same not-found the store would report.
func (h *LocationsHandler) Delete(level locations.Level) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if uuid.Validate(id) != nil {
			writeDomainError(w, r, locations.NotFoundError{Level: level, ID: id}, h.Env)
			return
		}
		result, err := h.Deletes.Delete(r.Context(), level, id)
		if err != nil {
			writeDomainError(w, r, err, h.Env)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

type bulkDeletePayload struct {
	IDs []string `json:"ids"`
}

func (h *LocationsHandler) BulkDelete(level locations.Level) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload bulkDeletePayload
		if err := decodeJSON(w, r, &payload); err != nil {
			problem.Write(w, r, problem.Validation, err, h.Env)
			return
		}
		if len(payload.IDs) == 0 {
			writeDomainError(w, r, locations.ValidationError{Field: "ids", Message: "required"}, h.Env)
			return
		}
		result, err := h.Deletes.BulkDelete(r.Context(), level, payload.IDs)
		if err != nil {
			writeDomainError(w, r, err, h.Env)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// RecalculateUsage sweeps one level's usage counters.
func (h *LocationsHandler) RecalculateUsage(level locations.Level) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := h.Reconcile.RecalculateUsage(r.Context(), level)
		if err != nil {
			writeDomainError(w, r, err, h.Env)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// RecalculateAllUsage sweeps every level and returns the nested summary.
func (h *LocationsHandler) RecalculateAllUsage(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Reconcile.RecalculateAllUsage(r.Context())
	if err != nil {
		writeDomainError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func countryJSON(c locations.Country) map[string]any {
	return map[string]any{
		"id":         c.ID,
		"ulid":       c.ULID,
		"name":       c.Name,
		"code":       c.Code,
		"isActive":   c.IsActive,
		"stateCount": c.StateCount,
		"usageCount": c.UsageCount,
		"createdAt":  c.CreatedAt.Format(time.RFC3339),
		"updatedAt":  c.UpdatedAt.Format(time.RFC3339),
	}
}

func stateJSON(s locations.State) map[string]any {
	return map[string]any{
		"id":         s.ID,
		"ulid":       s.ULID,
		"countryId":  s.CountryID,
		"name":       s.Name,
		"code":       s.Code,
		"isActive":   s.IsActive,
		"cityCount":  s.CityCount,
		"usageCount": s.UsageCount,
		"createdAt":  s.CreatedAt.Format(time.RFC3339),
		"updatedAt":  s.UpdatedAt.Format(time.RFC3339),
	}
}

func cityJSON(c locations.City) map[string]any {
	return map[string]any{
		"id":           c.ID,
		"ulid":         c.ULID,
		"stateId":      c.StateID,
		"name":         c.Name,
		"isActive":     c.IsActive,
		"pincodeCount": c.PincodeCount,
		"usageCount":   c.UsageCount,
		"createdAt":    c.CreatedAt.Format(time.RFC3339),
		"updatedAt":    c.UpdatedAt.Format(time.RFC3339),
	}
}

func pincodeJSON(pc locations.PostalCode) map[string]any {
	return map[string]any{
		"id":         pc.ID,
		"ulid":       pc.ULID,
		"cityId":     pc.CityID,
		"pincode":    pc.Pincode,
		"area":       pc.Area,
		"isActive":   pc.IsActive,
		"usageCount": pc.UsageCount,
		"createdAt":  pc.CreatedAt.Format(time.RFC3339),
		"updatedAt":  pc.UpdatedAt.Format(time.RFC3339),
	}
}

func countriesJSON(items []locations.Country) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		out = append(out, countryJSON(item))
	}
	return out
}

func statesJSON(items []locations.State) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		out = append(out, stateJSON(item))
	}
	return out
}

func citiesJSON(items []locations.City) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		out = append(out, cityJSON(item))
	}
	return out
}

func pincodesJSON(items []locations.PostalCode) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		out = append(out, pincodeJSON(item))
	}
	return out
}
