package reader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/aisflow/aisflow/pkg/parse"
	"github.com/aisflow/aisflow/pkg/schema"
)

// CSVReader reads comma-delimited files whose first line is a header
// naming the columns. The header is order-independent and may carry extra
// columns; a header missing any schema column aborts the file with a
// HeaderError.
type CSVReader struct{}

// NewCSVReader creates a CSV reader.
func NewCSVReader() *CSVReader { return &CSVReader{} }

// Name implements Reader.
func (c *CSVReader) Name() string { return "csv" }

// Read implements Reader.
func (c *CSVReader) Read(ctx context.Context, r io.Reader, out chan<- parse.RawRecord) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // ragged rows are handled by projection
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return &HeaderError{Missing: schema.Columns}
		}
		return fmt.Errorf("read header: %w", err)
	}
	idx, err := headerIndex(header)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ErrContextCanceled
		default:
		}

		row, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			// Structurally broken lines are skipped; field-level
			// problems surface later in the parser.
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				continue
			}
			return fmt.Errorf("read row: %w", err)
		}
		if err := emit(ctx, out, project(row, idx)); err != nil {
			return err
		}
	}
}
