// Package recorder archives stats stream snapshots into PostgreSQL.
//
// Snapshots are queued in memory and written in batches with append-only
// semantics (never update, only insert). Each row keeps the raw JSON payload
// so schema changes on the agent side never lose data.
package recorder
