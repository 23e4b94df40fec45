// Package postgres provides PostgreSQL implementations of the store
// interfaces defined in internal/store. All implementations accept a
// store.DBTX so they can run against either a database connection or a
// transaction, and map database errors to the store's sentinel errors.
// Schema migrations live under migrations/ and are applied with goose.
package postgres
