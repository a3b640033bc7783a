// Package rule provides the definition types for capture rules.
//
// This package contains type definitions, validation, and content hashing
// only. All other internal packages import rule; rule imports nothing
// internal. This keeps definitions the foundational layer with no circular
// dependencies.
//
// A rule definition has a stable identity: its name plus a SHA-256 content
// hash computed over a canonical JSON serialization of the definition. The
// hash is what the installer persists and what drift detection compares
// against.
package rule
