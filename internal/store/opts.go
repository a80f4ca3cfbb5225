package store

import "strings"

// DetectDSNType reports which backend a DSN selects: "postgres" for
// connection URLs, "memory" for an empty DSN, "sqlite" for file paths.
func DetectDSNType(dsn string) string {
	switch {
	case dsn == "":
		return "memory"
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"), strings.Contains(dsn, "host="):
		return "postgres"
	default:
		return "sqlite"
	}
}

// Opts holds configuration options for store backends.
type Opts struct {
	// DSN is the database connection string: a file path for SQLite, a
	// connection URL for Postgres.
	DSN string
}

// Option configures store creation.
type Option func(*Opts)

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}
