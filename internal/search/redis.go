package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/expopass/server/internal/domain/locations"
)

const (
	docKeyPrefix = "pincode:"
	indexSetKey  = "pincode:index"

	opTimeout = 3 * time.Second
)

// RedisIndexer stores each postal-code document as a hash under
// pincode:{id} and tracks document IDs in one set so rebuilds and
// scans never need KEYS.
type RedisIndexer struct {
	client *redis.Client
}

func NewRedisIndexer(client *redis.Client) *RedisIndexer {
	return &RedisIndexer{client: client}
}

// Ping verifies the backend is reachable. Wired into the readiness
// probe; an unreachable index degrades search but never writes.
func (r *RedisIndexer) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func docKey(id string) string {
	return docKeyPrefix + id
}

func docFields(doc locations.SearchDocument) map[string]any {
	return map[string]any{
		"id":      doc.ID,
		"pincode": doc.Pincode,
		"area":    doc.Area,
		"city":    doc.City,
		"state":   doc.State,
		"country": doc.Country,
		"blob":    doc.Blob,
	}
}

func docFromFields(fields map[string]string) locations.SearchDocument {
	return locations.SearchDocument{
		ID:      fields["id"],
		Pincode: fields["pincode"],
		Area:    fields["area"],
		City:    fields["city"],
		State:   fields["state"],
		Country: fields["country"],
		Blob:    fields["blob"],
	}
}

func (r *RedisIndexer) IndexPostalCode(ctx context.Context, doc locations.SearchDocument) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, docKey(doc.ID), docFields(doc))
	pipe.SAdd(ctx, indexSetKey, doc.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("index postal code %s: %w", doc.ID, err)
	}
	return nil
}

func (r *RedisIndexer) DeletePostalCode(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, docKey(id))
	pipe.SRem(ctx, indexSetKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete postal code %s from index: %w", id, err)
	}
	return nil
}

// Search scans the index set and matches query as a substring of each
// document's lowercase blob. Linear, but the corpus is postal codes for
// a handful of countries; a dedicated search engine is not warranted.
func (r *RedisIndexer) Search(ctx context.Context, query string, limit int) ([]locations.SearchDocument, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 25
	}

	var results []locations.SearchDocument
	iter := r.client.SScan(ctx, indexSetKey, 0, "", 256).Iterator()
	for iter.Next(ctx) {
		fields, err := r.client.HGetAll(ctx, docKey(iter.Val())).Result()
		if err != nil {
			return nil, fmt.Errorf("read indexed document %s: %w", iter.Val(), err)
		}
		if len(fields) == 0 {
			// Orphaned set member; the next rebuild clears it.
			continue
		}
		if !strings.Contains(fields["blob"], query) {
			continue
		}
		results = append(results, docFromFields(fields))
		if len(results) >= limit {
			break
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan index: %w", err)
	}
	return results, nil
}

// Rebuild replaces the whole index with docs. Existing members not in
// docs are removed, so the rebuild doubles as orphan cleanup.
func (r *RedisIndexer) Rebuild(ctx context.Context, docs []locations.SearchDocument) (int, error) {
	existing, err := r.client.SMembers(ctx, indexSetKey).Result()
	if err != nil {
		return 0, fmt.Errorf("list indexed ids: %w", err)
	}

	keep := make(map[string]bool, len(docs))
	pipe := r.client.TxPipeline()
	for _, doc := range docs {
		keep[doc.ID] = true
		pipe.HSet(ctx, docKey(doc.ID), docFields(doc))
		pipe.SAdd(ctx, indexSetKey, doc.ID)
	}
	for _, id := range existing {
		if !keep[id] {
			pipe.Del(ctx, docKey(id))
			pipe.SRem(ctx, indexSetKey, id)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("rebuild index: %w", err)
	}

	zerolog.Ctx(ctx).Info().
		Int("indexed", len(docs)).
		Int("removed", len(existing)-countKept(existing, keep)).
		Msg("search index rebuilt")
	return len(docs), nil
}

func countKept(existing []string, keep map[string]bool) int {
	kept := 0
	for _, id := range existing {
		if keep[id] {
			kept++
		}
	}
	return kept
}
