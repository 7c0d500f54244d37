// Package validate applies AIS domain rules to typed records. Validation
// classifies each record exactly once: a nil return means clean, a
// *ValidationError means dirty. Records are never discarded here.
package validate

import (
	"fmt"

	"github.com/aisflow/aisflow/pkg/parse"
)

// positionBearing is the set of message types that must carry a valid
// position. For every other type, longitude and latitude are forced to
// null regardless of their parsed values.
var positionBearing = map[int64]bool{
	1: true, 2: true, 3: true, 4: true, 9: true, 11: true,
	17: true, 18: true, 19: true, 21: true, 27: true,
}

// Rules bundles the domain validity predicates. They are supplied by the
// caller so deployments can swap in feed-specific bounds; DefaultRules
// implements the standard AIS payload ranges.
type Rules struct {
	ValidMMSI      func(*int64) bool
	ValidMessageID func(*int64) bool
	ValidIMO       func(int64) bool
	ValidLongitude func(*float64) bool
	ValidLatitude  func(*float64) bool
	ValidNavStatus func(int64) bool
	ValidSOG       func(float64) bool
	ValidCOG       func(float64) bool
	ValidHeading   func(float64) bool
}

// DefaultRules returns predicates using the ITU-R M.1371 field ranges.
func DefaultRules() Rules {
	return Rules{
		ValidMMSI: func(v *int64) bool {
			return v != nil && *v >= 100000000 && *v <= 999999999
		},
		ValidMessageID: func(v *int64) bool {
			return v != nil && *v >= 1 && *v <= 27
		},
		ValidIMO:       validIMOChecksum,
		ValidLongitude: func(v *float64) bool { return v != nil && *v >= -180 && *v <= 180 },
		ValidLatitude:  func(v *float64) bool { return v != nil && *v >= -90 && *v <= 90 },
		ValidNavStatus: func(v int64) bool { return v >= 0 && v <= 15 },
		ValidSOG:       func(v float64) bool { return v >= 0 && v <= 102.2 },
		ValidCOG:       func(v float64) bool { return v >= 0 && v <= 359.9 },
		ValidHeading:   func(v float64) bool { return (v >= 0 && v <= 359) || v == 511 },
	}
}

// validIMOChecksum verifies the 7-digit IMO number check digit: the sum of
// the first six digits weighted 7..2 must end in the seventh digit.
func validIMOChecksum(imo int64) bool {
	if imo < 1000000 || imo > 9999999 {
		return false
	}
	check := imo % 10
	rest := imo / 10
	sum := int64(0)
	for w := int64(2); w <= 7; w++ {
		sum += (rest % 10) * w
		rest /= 10
	}
	return sum%10 == check
}

// ValidationError marks a record that failed mandatory validation and
// belongs in the dirty sink.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("record invalid: %s", e.Reason)
}

// Validate applies the domain rules to rec in place and reports whether the
// record is clean (nil) or dirty (*ValidationError).
//
// Independently of the outcome, the four soft fields (navigational status,
// SOG, COG, heading) are individually nulled when out of range, and
// position fields are nulled for non-position-bearing message types.
func Validate(rec *parse.Record, rules Rules) error {
	// Soft fields first: they are nulled on both the clean and dirty
	// paths and never reject the record.
	if rec.NavStatus != nil && !rules.ValidNavStatus(*rec.NavStatus) {
		rec.NavStatus = nil
	}
	if rec.SOG != nil && !rules.ValidSOG(*rec.SOG) {
		rec.SOG = nil
	}
	if rec.COG != nil && !rules.ValidCOG(*rec.COG) {
		rec.COG = nil
	}
	if rec.Heading != nil && !rules.ValidHeading(*rec.Heading) {
		rec.Heading = nil
	}

	if rec.MessageID == nil || !positionBearing[*rec.MessageID] {
		rec.Longitude = nil
		rec.Latitude = nil
	}

	if !rules.ValidMMSI(rec.MMSI) {
		return &ValidationError{Reason: "MMSI"}
	}
	if !rules.ValidMessageID(rec.MessageID) {
		return &ValidationError{Reason: "Message_ID"}
	}
	if rec.IMO != nil && !rules.ValidIMO(*rec.IMO) {
		return &ValidationError{Reason: "IMO"}
	}
	if rec.MessageID != nil && positionBearing[*rec.MessageID] {
		if !rules.ValidLongitude(rec.Longitude) || !rules.ValidLatitude(rec.Latitude) {
			return &ValidationError{Reason: "position"}
		}
	}
	return nil
}

// PositionBearing reports whether message type id must carry a position.
func PositionBearing(id int64) bool { return positionBearing[id] }
