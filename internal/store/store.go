// Package store defines the storage collaborator contract of the
// ingestion pipeline and provides the Postgres and DuckDB backends. The
// pipeline only ever talks to the Store and Sink interfaces; everything
// else (DDL, bulk-load mechanics, connection ownership) is backend
// business.
package store

import (
	"context"
	"fmt"

	"github.com/aisflow/aisflow/pkg/parse"
)

// SourceFile is the per-file ingestion record: audit trail and
// idempotency marker in one.
type SourceFile struct {
	Filename string
	Ext      string
	Invalid  int64
	Clean    int64
	Dirty    int64
}

// Sink is one persistent destination for validated records. InsertBatch
// persists the whole batch as one bulk write followed by a commit; a
// failure drops the batch (at-most-once policy, enforced by the caller).
type Sink interface {
	Name() string
	InsertBatch(ctx context.Context, recs []*parse.Record) error
}

// Store is the storage collaborator used by the dispatcher.
//
// Backends must hand each concurrent caller its own connection: both batch
// writers and the dispatcher use the Store simultaneously.
type Store interface {
	Clean() Sink
	Dirty() Sink

	// DropIndices removes the sink indexes before a bulk load;
	// CreateIndices rebuilds them after the queues have drained.
	DropIndices(ctx context.Context) error
	CreateIndices(ctx context.Context) error

	// HasIngested reports whether filename already has a SourceFile row.
	HasIngested(ctx context.Context, filename string) (bool, error)

	// RecordIngestion writes the SourceFile row for a completed file.
	RecordIngestion(ctx context.Context, sf SourceFile) error

	Close(ctx context.Context) error
}

// Backend selects a store implementation.
type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendDuckDB   Backend = "duckdb"
)

// Options configures Open.
type Options struct {
	Backend Backend
	// DSN is the Postgres connection string, or the DuckDB database file
	// path for the embedded backend.
	DSN string
}

// Open connects the configured backend and bootstraps its schema.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendPostgres:
		return openPostgres(ctx, opts.DSN)
	case BackendDuckDB:
		return openDuckDB(ctx, opts.DSN)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}
