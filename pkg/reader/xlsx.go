package reader

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/aisflow/aisflow/pkg/parse"
	"github.com/aisflow/aisflow/pkg/schema"
)

// XLSXReader reads spreadsheet files. The first row of the first sheet is
// a header with the same contract as the CSV reader; rows are streamed via
// the row iterator so large workbooks are not loaded whole.
type XLSXReader struct{}

// NewXLSXReader creates a spreadsheet reader.
func NewXLSXReader() *XLSXReader { return &XLSXReader{} }

// Name implements Reader.
func (x *XLSXReader) Name() string { return "xlsx" }

// Read implements Reader.
func (x *XLSXReader) Read(ctx context.Context, r io.Reader, out chan<- parse.RawRecord) error {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &HeaderError{Missing: schema.Columns}
	}
	rows, err := f.Rows(sheets[0])
	if err != nil {
		return fmt.Errorf("iterate rows: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return &HeaderError{Missing: schema.Columns}
	}
	header, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("read header row: %w", err)
	}
	idx, err := headerIndex(header)
	if err != nil {
		return err
	}

	for rows.Next() {
		select {
		case <-ctx.Done():
			return ErrContextCanceled
		default:
		}

		row, err := rows.Columns()
		if err != nil {
			return fmt.Errorf("read row: %w", err)
		}
		if len(row) == 0 {
			continue
		}
		if err := emit(ctx, out, project(row, idx)); err != nil {
			return err
		}
	}
	return rows.Error()
}
