// Package internal documents the location server internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP handlers, middleware, problem responses, and routing
// - domain: the location hierarchy, import, and reconciliation logic
// - storage: PostgreSQL repositories and migrations
// - importfile: CSV and XLSX parsing for bulk imports
// - search: the Redis-backed postal-code index
// - jobs: background workers and queues
// - auth, config, metrics, sanitize: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal
