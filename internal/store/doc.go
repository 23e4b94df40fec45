// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from the
// services that use them; the Postgres implementations live in
// internal/platform/postgres.
package store
