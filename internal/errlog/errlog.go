// Package errlog writes the per-file log of parse-rejected raw records.
// One CSV per input file: the schema columns in canonical order plus an
// Error_Message column with the rejection reason.
package errlog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aisflow/aisflow/pkg/parse"
	"github.com/aisflow/aisflow/pkg/schema"
)

// Log is an open error log for one input file.
type Log struct {
	f *os.File
	w *csv.Writer

	// Rows counts appended entries.
	Rows int64
}

// Open creates the error log for an input file under dir, writing the
// header immediately. The log name is the input's base name with a .csv
// extension, so one log exists per input regardless of source format.
func Open(dir, inputName string) (*Log, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create error log dir: %w", err)
	}
	base := strings.TrimSuffix(inputName, filepath.Ext(inputName)) + ".csv"
	f, err := os.Create(filepath.Join(dir, base))
	if err != nil {
		return nil, fmt.Errorf("create error log: %w", err)
	}

	l := &Log{f: f, w: csv.NewWriter(f)}
	if err := l.w.Write(schema.Header("Error_Message")); err != nil {
		f.Close()
		return nil, fmt.Errorf("write error log header: %w", err)
	}
	return l, nil
}

// Append records one rejected raw record with its rejection reason.
func (l *Log) Append(raw parse.RawRecord, reason string) error {
	row := make([]string, 0, len(schema.Columns)+1)
	for _, col := range schema.Columns {
		row = append(row, raw[col])
	}
	row = append(row, reason)
	if err := l.w.Write(row); err != nil {
		return fmt.Errorf("append error log: %w", err)
	}
	l.Rows++
	return nil
}

// Close flushes and closes the log.
func (l *Log) Close() error {
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		l.f.Close()
		return fmt.Errorf("flush error log: %w", err)
	}
	return l.f.Close()
}
