// Package schema defines the canonical AIS column schema shared by every
// file reader, the row parser, and the validator. Readers map their native
// field names onto this schema; downstream code never sees format-specific
// names.
package schema

// Column is a canonical column name. The values double as the CSV header
// names expected in delimited input files.
type Column string

const (
	MMSI       Column = "MMSI"
	Time       Column = "Time"
	MessageID  Column = "Message_ID"
	NavStatus  Column = "Navigational_status"
	SOG        Column = "SOG"
	Longitude  Column = "Longitude"
	Latitude   Column = "Latitude"
	COG        Column = "COG"
	Heading    Column = "Heading"
	IMO        Column = "IMO"
	Draught    Column = "Draught"
	Dest       Column = "Destination"
	VesselName Column = "Vessel_Name"
	ETAMonth   Column = "ETA_month"
	ETADay     Column = "ETA_day"
	ETAHour    Column = "ETA_hour"
	ETAMinute  Column = "ETA_minute"
)

// Columns is the ordered canonical schema. Error logs and projections use
// this order.
var Columns = []Column{
	MMSI,
	Time,
	MessageID,
	NavStatus,
	SOG,
	Longitude,
	Latitude,
	COG,
	Heading,
	IMO,
	Draught,
	Dest,
	VesselName,
	ETAMonth,
	ETADay,
	ETAHour,
	ETAMinute,
}

// RecordTag is the tagged-markup element that terminates one record.
const RecordTag = "aismessage"

// XMLTags maps tagged-markup element names onto schema columns. Tags
// outside this map are ignored by the XML reader.
var XMLTags = map[string]Column{
	"mmsi":        MMSI,
	"date_time":   Time,
	"msg_type":    MessageID,
	"nav_status":  NavStatus,
	"sog":         SOG,
	"lon":         Longitude,
	"lat":         Latitude,
	"cog":         COG,
	"heading":     Heading,
	"imo":         IMO,
	"draught":     Draught,
	"destination": Dest,
	"vessel_name": VesselName,
	"eta_month":   ETAMonth,
	"eta_day":     ETADay,
	"eta_hour":    ETAHour,
	"eta_minute":  ETAMinute,
}

// Header returns the schema column names as strings, optionally followed by
// extra columns. Used for CSV headers of error logs.
func Header(extra ...string) []string {
	out := make([]string, 0, len(Columns)+len(extra))
	for _, c := range Columns {
		out = append(out, string(c))
	}
	return append(out, extra...)
}
