// Package queue persists editing jobs in SQLite and models their status
// lifecycle. Each item tracks one source recording from intake through
// silence detection, AI analysis, and timeline export. The daemon polls the
// store for actionable items; the CLI reads it for presentation.
package queue
