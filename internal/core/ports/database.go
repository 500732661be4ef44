// internal/core/ports/database.go
package ports

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Database defines the port for database operations, abstracting away the
// concrete pgxpool implementation from the adapters and handlers that need it.
type Database interface {
	Close()
	Ping(ctx context.Context) error
	Health(ctx context.Context) map[string]interface{}
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	SendBatch(ctx context.Context, batch *pgx.Batch) pgx.BatchResults
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rows pgx.CopyFromSource) (int64, error)
}

// SchemaStatus compares the applied schema version with the newest migration
// shipped with the binary
type SchemaStatus struct {
	Version uint `json:"version"`
	Latest  uint `json:"latest"`
	Dirty   bool `json:"dirty"`
}

// Current reports whether every shipped migration has been applied cleanly
func (s SchemaStatus) Current() bool {
	return !s.Dirty && s.Version >= s.Latest
}

// SchemaInspector reads the migration state of the products schema
type SchemaInspector interface {
	SchemaStatus(ctx context.Context) (SchemaStatus, error)
}
