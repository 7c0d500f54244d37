package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/aisflow/aisflow/pkg/parse"
)

// duckStore is the embedded backend for local runs: the same logical
// schema as Postgres inside a single DuckDB file. database/sql pools
// connections, so each batch writer gets its own.
type duckStore struct {
	db    *sql.DB
	clean *duckSink
	dirty *duckSink
}

var duckIndices = []struct{ name, table, column string }{
	{"idx_ais_clean_mmsi", "ais_clean", "mmsi"},
	{"idx_ais_clean_time", "ais_clean", "msg_time"},
	{"idx_ais_dirty_mmsi", "ais_dirty", "mmsi"},
	{"idx_ais_dirty_time", "ais_dirty", "msg_time"},
}

func openDuckDB(ctx context.Context, path string) (Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}

	s := &duckStore{
		db:    db,
		clean: &duckSink{db: db, table: "ais_clean"},
		dirty: &duckSink{db: db, table: "ais_dirty"},
	}
	if err := s.bootstrap(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *duckStore) bootstrap(ctx context.Context) error {
	stmts := []string{
		"CREATE TABLE IF NOT EXISTS ais_clean " + messageTableDDL,
		"CREATE TABLE IF NOT EXISTS ais_dirty " + messageTableDDL,
		"CREATE TABLE IF NOT EXISTS ais_sources " + sourcesTableDDL,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap schema: %w", err)
		}
	}
	return nil
}

func (s *duckStore) Clean() Sink { return s.clean }
func (s *duckStore) Dirty() Sink { return s.dirty }

func (s *duckStore) DropIndices(ctx context.Context) error {
	for _, ix := range duckIndices {
		if _, err := s.db.ExecContext(ctx, "DROP INDEX IF EXISTS "+ix.name); err != nil {
			return fmt.Errorf("drop index %s: %w", ix.name, err)
		}
	}
	return nil
}

func (s *duckStore) CreateIndices(ctx context.Context) error {
	for _, ix := range duckIndices {
		stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", ix.name, ix.table, ix.column)
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create index %s: %w", ix.name, err)
		}
	}
	return nil
}

func (s *duckStore) HasIngested(ctx context.Context, filename string) (bool, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM ais_sources WHERE filename = ?", filename).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query sources: %w", err)
	}
	return n > 0, nil
}

func (s *duckStore) RecordIngestion(ctx context.Context, sf SourceFile) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO ais_sources (filename, ext, invalid, clean, dirty) VALUES (?, ?, ?, ?, ?)",
		sf.Filename, sf.Ext, sf.Invalid, sf.Clean, sf.Dirty)
	if err != nil {
		return fmt.Errorf("record ingestion of %s: %w", sf.Filename, err)
	}
	return nil
}

func (s *duckStore) Close(ctx context.Context) error {
	return s.db.Close()
}

// duckSink inserts batches inside one transaction per batch.
type duckSink struct {
	db    *sql.DB
	table string
}

func (d *duckSink) Name() string { return d.table }

func (d *duckSink) InsertBatch(ctx context.Context, recs []*parse.Record) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	placeholders := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(messageColumns)), ", ") + ")"
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES %s",
		d.table, strings.Join(messageColumns, ", "), placeholders))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		if _, err := stmt.ExecContext(ctx, rowValues(rec)...); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert into %s: %w", d.table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}
