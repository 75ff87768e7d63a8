// Package search maintains the denormalized postal-code index used by
// admin-facing location search. The database stays the source of truth;
// the index is rebuilt wholesale by the reindex job and patched
// incrementally on create and delete.
package search

import (
	"context"

	"github.com/expopass/server/internal/domain/locations"
)

// Noop satisfies locations.Indexer without a backend. Used when search
// is disabled and in tests that do not care about indexing.
type Noop struct{}

func (Noop) IndexPostalCode(ctx context.Context, doc locations.SearchDocument) error { return nil }
func (Noop) DeletePostalCode(ctx context.Context, id string) error                   { return nil }
