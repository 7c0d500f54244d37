package store

import "github.com/aisflow/aisflow/pkg/parse"

// messageColumns is the physical column order of the clean and dirty
// tables. Both backends share it.
var messageColumns = []string{
	"mmsi",
	"msg_time",
	"message_id",
	"nav_status",
	"sog",
	"longitude",
	"latitude",
	"cog",
	"heading",
	"imo",
	"draught",
	"destination",
	"vessel_name",
	"eta_month",
	"eta_day",
	"eta_hour",
	"eta_minute",
	"source",
}

// messageTableDDL is the shared column definition of the message tables.
const messageTableDDL = `(
	mmsi        BIGINT,
	msg_time    TIMESTAMP NOT NULL,
	message_id  INTEGER,
	nav_status  INTEGER,
	sog         DOUBLE PRECISION,
	longitude   DOUBLE PRECISION,
	latitude    DOUBLE PRECISION,
	cog         DOUBLE PRECISION,
	heading     DOUBLE PRECISION,
	imo         BIGINT,
	draught     DOUBLE PRECISION,
	destination VARCHAR(255),
	vessel_name VARCHAR(255),
	eta_month   INTEGER,
	eta_day     INTEGER,
	eta_hour    INTEGER,
	eta_minute  INTEGER,
	source      INTEGER
)`

// sourcesTableDDL defines the File Ingestion Record table.
const sourcesTableDDL = `(
	filename VARCHAR(255) NOT NULL,
	ext      VARCHAR(16),
	invalid  BIGINT,
	clean    BIGINT,
	dirty    BIGINT
)`

// rowValues flattens a record into messageColumns order. Nil pointers map
// to SQL nulls.
func rowValues(rec *parse.Record) []any {
	return []any{
		nullInt(rec.MMSI),
		rec.Time,
		nullInt(rec.MessageID),
		nullInt(rec.NavStatus),
		nullFloat(rec.SOG),
		nullFloat(rec.Longitude),
		nullFloat(rec.Latitude),
		nullFloat(rec.COG),
		nullFloat(rec.Heading),
		nullInt(rec.IMO),
		nullFloat(rec.Draught),
		rec.Dest,
		rec.VesselName,
		nullInt(rec.ETAMonth),
		nullInt(rec.ETADay),
		nullInt(rec.ETAHour),
		nullInt(rec.ETAMinute),
		rec.Source,
	}
}

func nullInt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
