// Row types written by the tracker to its sinks.
package telemetry

import (
	"os"
	"time"
)

// PositionRow is one position fix for GreptimeDB.
type PositionRow struct {
	SiteID      string    `json:"site_id"`      // TAG
	DeviceID    string    `json:"device_id"`    // TAG
	X           float64   `json:"x"`            // FIELD
	Y           float64   `json:"y"`            // FIELD
	Confidence  float64   `json:"confidence"`   // FIELD
	SensorCount int       `json:"sensor_count"` // FIELD
	Method      string    `json:"method"`       // FIELD
	Timestamp   time.Time `json:"ts"`           // TIME INDEX
}

// PositionTableName holds the table name used when writing position history.
// It defaults to "position_history" but can be overridden via the
// POSITION_TABLE environment variable.
var PositionTableName = func() string {
	if env := os.Getenv("POSITION_TABLE"); env != "" {
		return env
	}
	return "position_history"
}()

func (PositionRow) TableName() string {
	return PositionTableName
}

// TransitionRow is one zone enter/exit event.
type TransitionRow struct {
	SiteID    string    `json:"site_id"`
	DeviceID  string    `json:"device_id"`
	ZoneID    string    `json:"zone_id"`
	ZoneName  string    `json:"zone_name"`
	Event     string    `json:"event"` // "entered" | "exited"
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Timestamp time.Time `json:"ts"`
}

// TransitionTableName holds the table name for zone transitions, overridable
// via the TRANSITION_TABLE environment variable.
var TransitionTableName = func() string {
	if env := os.Getenv("TRANSITION_TABLE"); env != "" {
		return env
	}
	return "zone_transitions"
}()

func (TransitionRow) TableName() string {
	return TransitionTableName
}
