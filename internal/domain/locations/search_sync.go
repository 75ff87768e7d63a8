package locations

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/expopass/server/internal/metrics"
)

// SearchDocument is the denormalized representation of a postal code
// handed to the search index. Blob combines every searchable field into
// one normalized lowercase string for fuzzy prefix search; the
// individual fields remain available as filters.
type SearchDocument struct {
	ID      string `json:"id"`
	Pincode string `json:"pincode"`
	Area    string `json:"area"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	Blob    string `json:"blob"`
}

// Indexer receives postal-code create/update/delete events. It is a
// best-effort collaborator: callers wrap every invocation so an index
// failure can never fail the primary operation.
type Indexer interface {
	IndexPostalCode(ctx context.Context, doc SearchDocument) error
	DeletePostalCode(ctx context.Context, id string) error
}

// BuildSearchDocument assembles the indexable view of a postal code
// from its resolved parent chain.
func BuildSearchDocument(pc *PostalCode, city *City, state *State, country *Country) SearchDocument {
	doc := SearchDocument{
		ID:      pc.ID,
		Pincode: pc.Pincode,
		Area:    pc.Area,
	}
	if city != nil {
		doc.City = city.Name
	}
	if state != nil {
		doc.State = state.Name
	}
	if country != nil {
		doc.Country = country.Name
	}
	parts := make([]string, 0, 5)
	for _, part := range []string{doc.Pincode, doc.Area, doc.City, doc.State, doc.Country} {
		if part != "" {
			parts = append(parts, strings.ToLower(part))
		}
	}
	doc.Blob = strings.Join(parts, " ")
	return doc
}

// indexBestEffort pushes a document to the search index, logging and
// swallowing any failure. The database write already succeeded; the
// index catches up on the next rebuild.
func indexBestEffort(ctx context.Context, indexer Indexer, doc SearchDocument) {
	if indexer == nil {
		return
	}
	if err := indexer.IndexPostalCode(ctx, doc); err != nil {
		metrics.SearchSyncFailuresTotal.WithLabelValues("index").Inc()
		zerolog.Ctx(ctx).Warn().
			Err(err).
			Str("postal_code_id", doc.ID).
			Str("pincode", doc.Pincode).
			Msg("search index sync failed")
	}
}

// deleteIndexBestEffort removes a document, same contract as
// indexBestEffort.
func deleteIndexBestEffort(ctx context.Context, indexer Indexer, id string) {
	if indexer == nil {
		return
	}
	if err := indexer.DeletePostalCode(ctx, id); err != nil {
		metrics.SearchSyncFailuresTotal.WithLabelValues("delete").Inc()
		zerolog.Ctx(ctx).Warn().
			Err(err).
			Str("postal_code_id", id).
			Msg("search index delete failed")
	}
}
