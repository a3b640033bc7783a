// Package store provides durable storage for the capture engine: the rules
// catalog, the contexts catalog, and the generated per-entity event tables.
//
// Two backends are supported through the Dialect interface:
//   - SQLite (primary; WAL mode, single writer, user_version migrations)
//   - PostgreSQL (via lib/pq; advisory locks for installer mutual exclusion)
//
// Catalog layout:
//   - scribe_rules: one row per installed capture rule, carrying the rule's
//     content hash as a queryable annotation for drift detection
//   - scribe_contexts: one immutable row per resolved context record
//   - <entity>_event: append-only mirror of a tracked entity's columns plus
//     label, created_at, and context_id
//
// Timestamps are stored as RFC 3339 text in both dialects so that catalog
// reads behave identically regardless of backend.
package store
