// Package problem writes RFC 7807 responses. The API's error
// vocabulary lives here as canned definitions so handlers never spell
// out type URIs or titles inline.
package problem

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
)

const contentType = "application/problem+json"

// TypeBase prefixes every problem type URI the API emits.
const TypeBase = "https://expopass.dev/problems/"

// Definition is a canned problem: the stable type URI plus the default
// title and status for one error category.
type Definition struct {
	Type   string
	Title  string
	Status int
}

// The full set of problems the location API can return.
var (
	Validation       = Definition{TypeBase + "validation-error", "Invalid request", http.StatusBadRequest}
	Conflict         = Definition{TypeBase + "conflict", "Already exists", http.StatusConflict}
	DependencyExists = Definition{TypeBase + "dependency-exists", "Dependent records exist", http.StatusConflict}
	NotFound         = Definition{TypeBase + "not-found", "Not found", http.StatusNotFound}
	Unauthorized     = Definition{TypeBase + "unauthorized", "Unauthorized", http.StatusUnauthorized}
	Forbidden        = Definition{TypeBase + "forbidden", "Insufficient permissions", http.StatusForbidden}
	RateLimited      = Definition{TypeBase + "rate-limited", "Too many requests", http.StatusTooManyRequests}
	SearchDisabled   = Definition{TypeBase + "search-disabled", "Search is not configured", http.StatusServiceUnavailable}
	ServerError      = Definition{TypeBase + "server-error", "Server error", http.StatusInternalServerError}
)

// Details is the wire body.
type Details struct {
	Type     string         `json:"type"`
	Title    string         `json:"title"`
	Status   int            `json:"status"`
	Detail   string         `json:"detail,omitempty"`
	Instance string         `json:"instance,omitempty"`
	Errors   map[string]any `json:"errors,omitempty"`
}

type Option func(*Details)

// WithTitle overrides the definition's default title for one response.
func WithTitle(title string) Option {
	return func(d *Details) {
		d.Title = title
	}
}

func WithDetail(detail string) Option {
	return func(d *Details) {
		d.Detail = detail
	}
}

func WithErrors(errs map[string]any) Option {
	return func(d *Details) {
		d.Errors = errs
	}
}

// Write renders the canned problem. Outside development and test the
// detail is the generic status text, never err's message; err still
// reaches the request log either way.
func Write(w http.ResponseWriter, r *http.Request, def Definition, err error, env string, opts ...Option) {
	details := Details{
		Type:   def.Type,
		Title:  def.Title,
		Status: def.Status,
	}
	for _, opt := range opts {
		opt(&details)
	}

	if details.Detail == "" && err != nil {
		if env == "development" || env == "test" {
			details.Detail = err.Error()
		} else {
			details.Detail = http.StatusText(def.Status)
		}
	}
	if details.Instance == "" && r != nil {
		details.Instance = r.URL.Path
	}

	if err != nil {
		logger := zerolog.Ctx(r.Context())
		evt := logger.Warn()
		if def.Status >= 500 {
			evt = logger.Error()
		}
		evt.Err(err).
			Int("status", def.Status).
			Str("type", def.Type).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg(details.Title)
	}

	writeBody(w, details)
}

func writeBody(w http.ResponseWriter, details Details) {
	payload, err := json.Marshal(details)
	if err != nil {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"type":"about:blank","title":"Internal Server Error","status":500}`))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(details.Status)
	_, _ = w.Write(payload)
}

// Sentinels for auth failures that carry no underlying error of their
// own.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)
