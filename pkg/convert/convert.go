// Package convert holds the pure field converters that map raw AIS text
// values to typed values or null. Converters never panic; failures are
// reported as *ConversionError values.
package convert

import (
	"fmt"
	"strconv"
	"time"
)

// TimeLayout is the strict timestamp format of raw AIS feeds
// (YYYYMMDD_HHMMSS).
const TimeLayout = "20060102_150405"

// maxRegistryLen is the longest raw value accepted for the vessel registry
// number; anything longer becomes null rather than an error.
const maxRegistryLen = 20

// ConversionError reports a raw value that could not be converted.
type ConversionError struct {
	Value string
	Kind  string
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert %q as %s: %v", e.Value, e.Kind, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// IntOrNull converts s to an integer. Empty input is null.
func IntOrNull(s string) (*int64, error) {
	if len(s) == 0 {
		return nil, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, &ConversionError{Value: s, Kind: "integer", Err: err}
	}
	return &v, nil
}

// FloatOrNull converts s to a float. Empty input and the literal "None"
// (emitted by some upstream decoders) are null.
func FloatOrNull(s string) (*float64, error) {
	if len(s) == 0 || s == "None" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, &ConversionError{Value: s, Kind: "float", Err: err}
	}
	return &v, nil
}

// LongString bounds free-text fields for storage. Values longer than 255
// runes are truncated to 254. The off-by-one is the documented truncation
// policy of the upstream feed handling, kept for compatibility.
func LongString(s string) string {
	r := []rune(s)
	if len(r) > 255 {
		return string(r[:254])
	}
	return s
}

// RegistryOrNull converts a vessel registry (IMO) number. Overlong raw
// values are null by policy, not an error; everything else follows
// IntOrNull.
func RegistryOrNull(s string) (*int64, error) {
	if len(s) > maxRegistryLen {
		return nil, nil
	}
	return IntOrNull(s)
}

// Timestamp parses the strict YYYYMMDD_HHMMSS message timestamp.
func Timestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}, &ConversionError{Value: s, Kind: "timestamp", Err: err}
	}
	return t, nil
}
