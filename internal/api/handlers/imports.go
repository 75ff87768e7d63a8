package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/expopass/server/internal/api/problem"
	"github.com/expopass/server/internal/domain/locations"
	"github.com/expopass/server/internal/importfile"
	"github.com/expopass/server/internal/metrics"
)

const maxImportUpload = 50 << 20 // 50 MiB

// ImportsHandler serves bulk import: a JSON row array for API callers
// and multipart CSV/XLSX/JSON uploads from the admin console.
type ImportsHandler struct {
	Import *locations.ImportService
	Env    string
}

func NewImportsHandler(importService *locations.ImportService, env string) *ImportsHandler {
	return &ImportsHandler{Import: importService, Env: env}
}

type importPayload struct {
	Rows []locations.ImportRow `json:"rows"`
}

// ImportJSON accepts rows inline. The response is always 200 with the
// per-row breakdown; row failures are data, not transport errors.
func (h *ImportsHandler) ImportJSON(w http.ResponseWriter, r *http.Request) {
	var payload importPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		problem.Write(w, r, problem.Validation, err, h.Env)
		return
	}
	if len(payload.Rows) == 0 {
		writeDomainError(w, r, locations.ValidationError{Field: "rows", Message: "required"}, h.Env)
		return
	}
	h.run(w, r, payload.Rows, "json")
}

// ImportFile accepts a multipart upload under the "file" field.
func (h *ImportsHandler) ImportFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportUpload)
	file, header, err := r.FormFile("file")
	if err != nil {
		problem.Write(w, r, problem.Validation, err, h.Env, problem.WithTitle("Missing file upload"))
		return
	}
	defer file.Close()

	rows, err := importfile.Read(file, header.Filename)
	if err != nil {
		problem.Write(w, r, problem.Validation, err, h.Env, problem.WithTitle("Unreadable import file"))
		return
	}
	if len(rows) == 0 {
		writeDomainError(w, r, locations.ValidationError{Field: "file", Message: "no data rows"}, h.Env)
		return
	}
	h.run(w, r, rows, formatOf(header.Filename))
}

func (h *ImportsHandler) run(w http.ResponseWriter, r *http.Request, rows []locations.ImportRow, format string) {
	start := time.Now()
	result, err := h.Import.ImportRows(r.Context(), rows)
	if err != nil {
		writeDomainError(w, r, err, h.Env)
		return
	}

	metrics.ImportDuration.WithLabelValues(format).Observe(time.Since(start).Seconds())
	metrics.ImportRowsTotal.WithLabelValues("created").Add(float64(result.Success))
	metrics.ImportRowsTotal.WithLabelValues("skipped").Add(float64(result.Skipped))
	metrics.ImportRowsTotal.WithLabelValues("failed").Add(float64(result.Failed))

	writeJSON(w, http.StatusOK, result)
}

func formatOf(filename string) string {
	switch {
	case strings.HasSuffix(strings.ToLower(filename), ".csv"):
		return "csv"
	case strings.HasSuffix(strings.ToLower(filename), ".xlsx"):
		return "xlsx"
	case strings.HasSuffix(strings.ToLower(filename), ".json"):
		return "json"
	}
	return "other"
}
