// Package queue persists podcast work items in SQLite and exposes helpers for
// driving their lifecycle.
//
// The Store manages the database connection, schema initialization, stats,
// heartbeat tracking, stuck-item recovery and the status transitions that
// move a thought from pending through analysis, narration, artwork, render,
// upload and announcement. Items carry progress fields and artifact paths so
// stages coordinate through the row and the podcast folder it points at.
//
// Schema changes append a statement to migrations in schema.go; Open applies
// the ones a database has not seen yet and refuses databases from a newer
// build.
package queue
