// Package parse converts raw AIS records into typed rows. A record is
// parsed as a whole: any field that fails conversion rejects the entire
// record, reporting the offending column.
package parse

import (
	"fmt"
	"time"

	"github.com/aisflow/aisflow/pkg/convert"
	"github.com/aisflow/aisflow/pkg/schema"
)

// RawRecord maps schema columns to raw text as produced by a file reader.
// A missing key is equivalent to an empty string.
type RawRecord map[schema.Column]string

// Record is a fully typed AIS row. Nil pointer fields are SQL nulls.
// Time is never null; a missing or malformed timestamp rejects the row.
type Record struct {
	MMSI       *int64
	Time       time.Time
	MessageID  *int64
	NavStatus  *int64
	SOG        *float64
	Longitude  *float64
	Latitude   *float64
	COG        *float64
	Heading    *float64
	IMO        *int64
	Draught    *float64
	Dest       string
	VesselName string
	ETAMonth   *int64
	ETADay     *int64
	ETAHour    *int64
	ETAMinute  *int64

	// Source tags the provenance feed of the record.
	Source int
}

// ParseError reports the first column of a raw record that failed
// conversion.
type ParseError struct {
	Column schema.Column
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("column %s: %v", e.Column, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse converts every schema column of raw independently and tags the
// result with the provenance source. No partial records are produced.
func Parse(raw RawRecord, source int) (*Record, error) {
	rec := &Record{Source: source}
	var err error

	if rec.MMSI, err = convert.IntOrNull(raw[schema.MMSI]); err != nil {
		return nil, &ParseError{Column: schema.MMSI, Err: err}
	}
	if rec.Time, err = convert.Timestamp(raw[schema.Time]); err != nil {
		return nil, &ParseError{Column: schema.Time, Err: err}
	}
	if rec.MessageID, err = convert.IntOrNull(raw[schema.MessageID]); err != nil {
		return nil, &ParseError{Column: schema.MessageID, Err: err}
	}
	if rec.NavStatus, err = convert.IntOrNull(raw[schema.NavStatus]); err != nil {
		return nil, &ParseError{Column: schema.NavStatus, Err: err}
	}
	if rec.SOG, err = convert.FloatOrNull(raw[schema.SOG]); err != nil {
		return nil, &ParseError{Column: schema.SOG, Err: err}
	}
	if rec.Longitude, err = convert.FloatOrNull(raw[schema.Longitude]); err != nil {
		return nil, &ParseError{Column: schema.Longitude, Err: err}
	}
	if rec.Latitude, err = convert.FloatOrNull(raw[schema.Latitude]); err != nil {
		return nil, &ParseError{Column: schema.Latitude, Err: err}
	}
	if rec.COG, err = convert.FloatOrNull(raw[schema.COG]); err != nil {
		return nil, &ParseError{Column: schema.COG, Err: err}
	}
	if rec.Heading, err = convert.FloatOrNull(raw[schema.Heading]); err != nil {
		return nil, &ParseError{Column: schema.Heading, Err: err}
	}
	if rec.IMO, err = convert.RegistryOrNull(raw[schema.IMO]); err != nil {
		return nil, &ParseError{Column: schema.IMO, Err: err}
	}
	if rec.Draught, err = convert.FloatOrNull(raw[schema.Draught]); err != nil {
		return nil, &ParseError{Column: schema.Draught, Err: err}
	}
	rec.Dest = convert.LongString(raw[schema.Dest])
	rec.VesselName = convert.LongString(raw[schema.VesselName])
	if rec.ETAMonth, err = convert.IntOrNull(raw[schema.ETAMonth]); err != nil {
		return nil, &ParseError{Column: schema.ETAMonth, Err: err}
	}
	if rec.ETADay, err = convert.IntOrNull(raw[schema.ETADay]); err != nil {
		return nil, &ParseError{Column: schema.ETADay, Err: err}
	}
	if rec.ETAHour, err = convert.IntOrNull(raw[schema.ETAHour]); err != nil {
		return nil, &ParseError{Column: schema.ETAHour, Err: err}
	}
	if rec.ETAMinute, err = convert.IntOrNull(raw[schema.ETAMinute]); err != nil {
		return nil, &ParseError{Column: schema.ETAMinute, Err: err}
	}

	return rec, nil
}
