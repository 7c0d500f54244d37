package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aisflow/aisflow/pkg/parse"
)

// postgresStore persists records in Postgres through a pgx pool. The pool
// hands each batch writer its own connection, so clean and dirty commits
// never share a session.
type postgresStore struct {
	pool  *pgxpool.Pool
	clean *pgSink
	dirty *pgSink
}

// pgIndices are the per-sink indexes dropped before a bulk load and
// rebuilt afterwards.
var pgIndices = []struct{ name, table, column string }{
	{"idx_ais_clean_mmsi", "ais_clean", "mmsi"},
	{"idx_ais_clean_time", "ais_clean", "msg_time"},
	{"idx_ais_clean_message_id", "ais_clean", "message_id"},
	{"idx_ais_dirty_mmsi", "ais_dirty", "mmsi"},
	{"idx_ais_dirty_time", "ais_dirty", "msg_time"},
	{"idx_ais_dirty_message_id", "ais_dirty", "message_id"},
}

func openPostgres(ctx context.Context, dsn string) (Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &postgresStore{
		pool:  pool,
		clean: &pgSink{pool: pool, table: "ais_clean"},
		dirty: &pgSink{pool: pool, table: "ais_dirty"},
	}
	if err := s.bootstrap(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// bootstrap creates the tables if they do not exist yet. This is first-run
// setup, not migration.
func (s *postgresStore) bootstrap(ctx context.Context) error {
	stmts := []string{
		"CREATE TABLE IF NOT EXISTS ais_clean " + messageTableDDL,
		"CREATE TABLE IF NOT EXISTS ais_dirty " + messageTableDDL,
		"CREATE TABLE IF NOT EXISTS ais_sources " + sourcesTableDDL,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap schema: %w", err)
		}
	}
	return nil
}

func (s *postgresStore) Clean() Sink { return s.clean }
func (s *postgresStore) Dirty() Sink { return s.dirty }

func (s *postgresStore) DropIndices(ctx context.Context) error {
	for _, ix := range pgIndices {
		if _, err := s.pool.Exec(ctx, "DROP INDEX IF EXISTS "+ix.name); err != nil {
			return fmt.Errorf("drop index %s: %w", ix.name, err)
		}
	}
	return nil
}

func (s *postgresStore) CreateIndices(ctx context.Context) error {
	for _, ix := range pgIndices {
		stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", ix.name, ix.table, ix.column)
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create index %s: %w", ix.name, err)
		}
	}
	return nil
}

func (s *postgresStore) HasIngested(ctx context.Context, filename string) (bool, error) {
	var n int64
	err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM ais_sources WHERE filename = $1", filename).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query sources: %w", err)
	}
	return n > 0, nil
}

func (s *postgresStore) RecordIngestion(ctx context.Context, sf SourceFile) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO ais_sources (filename, ext, invalid, clean, dirty) VALUES ($1, $2, $3, $4, $5)",
		sf.Filename, sf.Ext, sf.Invalid, sf.Clean, sf.Dirty)
	if err != nil {
		return fmt.Errorf("record ingestion of %s: %w", sf.Filename, err)
	}
	return nil
}

func (s *postgresStore) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}

// pgSink bulk-loads one message table with COPY.
type pgSink struct {
	pool  *pgxpool.Pool
	table string
}

func (p *pgSink) Name() string { return p.table }

func (p *pgSink) InsertBatch(ctx context.Context, recs []*parse.Record) error {
	if len(recs) == 0 {
		return nil
	}
	_, err := p.pool.CopyFrom(ctx,
		pgx.Identifier{p.table},
		messageColumns,
		pgx.CopyFromSlice(len(recs), func(i int) ([]any, error) {
			return rowValues(recs[i]), nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy into %s: %w", p.table, err)
	}
	return nil
}
