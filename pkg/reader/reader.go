// Package reader provides lazy producers of raw AIS records for the
// supported input formats. Each reader streams records to a channel and
// maps its native field names onto the canonical schema, so the parser
// only ever sees schema columns.
package reader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aisflow/aisflow/pkg/parse"
	"github.com/aisflow/aisflow/pkg/schema"
)

// ErrContextCanceled is returned when a read is aborted by context
// cancellation.
var ErrContextCanceled = errors.New("reader: context canceled")

// HeaderError reports schema columns missing from a delimited file header.
// It aborts the whole file before any record is emitted.
type HeaderError struct {
	Missing []schema.Column
}

func (e *HeaderError) Error() string {
	names := make([]string, len(e.Missing))
	for i, c := range e.Missing {
		names[i] = string(c)
	}
	return fmt.Sprintf("missing columns in file header: %s", strings.Join(names, ", "))
}

// Reader streams raw records from r to out. Implementations respect
// context cancellation and never close out; the caller owns the channel.
type Reader interface {
	// Name identifies the format for logs.
	Name() string

	// Read emits one RawRecord per input record until EOF or error.
	Read(ctx context.Context, r io.Reader, out chan<- parse.RawRecord) error
}

// ForExtension selects a reader by file extension (with leading dot,
// case-insensitive). ok is false for unsupported extensions.
func ForExtension(ext string) (Reader, bool) {
	switch strings.ToLower(ext) {
	case ".csv":
		return NewCSVReader(), true
	case ".xml":
		return NewXMLReader(), true
	case ".xlsx":
		return NewXLSXReader(), true
	default:
		return nil, false
	}
}

// emit sends rec to out, honoring cancellation.
func emit(ctx context.Context, out chan<- parse.RawRecord, rec parse.RawRecord) error {
	select {
	case out <- rec:
		return nil
	case <-ctx.Done():
		return ErrContextCanceled
	}
}

// headerIndex builds the schema column → position map from a header row.
// Every schema column must appear; the header may be a superset in any
// order.
func headerIndex(header []string) (map[schema.Column]int, error) {
	byName := make(map[string]int, len(header))
	for i, name := range header {
		byName[strings.TrimSpace(name)] = i
	}

	idx := make(map[schema.Column]int, len(schema.Columns))
	var missing []schema.Column
	for _, col := range schema.Columns {
		pos, ok := byName[string(col)]
		if !ok {
			missing = append(missing, col)
			continue
		}
		idx[col] = pos
	}
	if len(missing) > 0 {
		return nil, &HeaderError{Missing: missing}
	}
	return idx, nil
}

// project extracts the schema columns from a positional row using idx.
// Short rows leave the affected columns empty.
func project(row []string, idx map[schema.Column]int) parse.RawRecord {
	rec := make(parse.RawRecord, len(idx))
	for col, pos := range idx {
		if pos < len(row) {
			rec[col] = row[pos]
		}
	}
	return rec
}
