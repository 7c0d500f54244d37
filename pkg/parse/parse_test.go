package parse

import (
	"errors"
	"testing"
	"time"

	"github.com/aisflow/aisflow/pkg/schema"
)

// fullRaw returns a well-formed raw record covering every schema column.
func fullRaw() RawRecord {
	return RawRecord{
		schema.MMSI:       "227006760",
		schema.Time:       "20120101_120000",
		schema.MessageID:  "1",
		schema.NavStatus:  "0",
		schema.SOG:        "10.5",
		schema.Longitude:  "1.5",
		schema.Latitude:   "50.2",
		schema.COG:        "200.1",
		schema.Heading:    "180",
		schema.IMO:        "9074729",
		schema.Draught:    "5.5",
		schema.Dest:       "ROTTERDAM",
		schema.VesselName: "WAVE DANCER",
		schema.ETAMonth:   "3",
		schema.ETADay:     "15",
		schema.ETAHour:    "14",
		schema.ETAMinute:  "30",
	}
}

func TestParseFullRecord(t *testing.T) {
	rec, err := Parse(fullRaw(), 7)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if rec.MMSI == nil || *rec.MMSI != 227006760 {
		t.Errorf("MMSI = %v", rec.MMSI)
	}
	want := time.Date(2012, 1, 1, 12, 0, 0, 0, time.UTC)
	if !rec.Time.Equal(want) {
		t.Errorf("Time = %v, want %v", rec.Time, want)
	}
	if rec.MessageID == nil || *rec.MessageID != 1 {
		t.Errorf("MessageID = %v", rec.MessageID)
	}
	if rec.SOG == nil || *rec.SOG != 10.5 {
		t.Errorf("SOG = %v", rec.SOG)
	}
	if rec.IMO == nil || *rec.IMO != 9074729 {
		t.Errorf("IMO = %v", rec.IMO)
	}
	if rec.Dest != "ROTTERDAM" || rec.VesselName != "WAVE DANCER" {
		t.Errorf("strings = %q, %q", rec.Dest, rec.VesselName)
	}
	if rec.ETAMinute == nil || *rec.ETAMinute != 30 {
		t.Errorf("ETAMinute = %v", rec.ETAMinute)
	}
	if rec.Source != 7 {
		t.Errorf("Source = %d, want 7", rec.Source)
	}
}

func TestParseMissingKeysAreNull(t *testing.T) {
	// Tagged-markup records can omit fields entirely; a missing key must
	// behave like empty text.
	raw := RawRecord{
		schema.MMSI:      "227006760",
		schema.Time:      "20120101_120000",
		schema.MessageID: "5",
	}
	rec, err := Parse(raw, 0)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if rec.NavStatus != nil || rec.SOG != nil || rec.IMO != nil || rec.ETAMonth != nil {
		t.Error("missing columns should parse to null")
	}
	if rec.Dest != "" || rec.VesselName != "" {
		t.Error("missing string columns should parse to empty")
	}
}

func TestParseRejectsWholeRecord(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(RawRecord)
		column schema.Column
	}{
		{"bad mmsi", func(r RawRecord) { r[schema.MMSI] = "not-a-number" }, schema.MMSI},
		{"bad timestamp", func(r RawRecord) { r[schema.Time] = "2012-01-01" }, schema.Time},
		{"missing timestamp", func(r RawRecord) { delete(r, schema.Time) }, schema.Time},
		{"bad sog", func(r RawRecord) { r[schema.SOG] = "fast" }, schema.SOG},
		{"bad eta", func(r RawRecord) { r[schema.ETAHour] = "noon" }, schema.ETAHour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := fullRaw()
			tt.mutate(raw)
			_, err := Parse(raw, 0)
			if err == nil {
				t.Fatal("expected parse failure")
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error is not a ParseError: %v", err)
			}
			if pe.Column != tt.column {
				t.Errorf("offending column = %s, want %s", pe.Column, tt.column)
			}
		})
	}
}
