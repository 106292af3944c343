// Package store persists papers, generated videos, summaries, and quizzes in
// SQLite.
//
// The Store manages database connections, schema initialization, busy-retry
// semantics, and upsert operations keyed by the external paper identifier so
// regeneration never produces duplicate rows. Schema changes bump the version
// in schema.go; users delete the database to adopt the new schema.
//
// Treat this package as the single source of truth for persistence semantics;
// when you add new fields, update schema.sql and bump schemaVersion.
package store
