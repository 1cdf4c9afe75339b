// Package database provides connection pool management for PostgreSQL.
//
// The snapshot recorder archives stats stream snapshots into a single
// Postgres database; nothing else in the client needs storage.
package database
