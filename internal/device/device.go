// Sensor and tracked-device registries feeding the position engine.
package device

import (
	"time"

	"indoortrack/internal/position"
)

// Sensor kinds supported by the intake layer.
const (
	TypeMQTT      = "mqtt"
	TypeESPHome   = "esphome"
	TypeBluetooth = "bluetooth"
	TypeMmWave    = "mmwave"
)

// Sensor is a fixed receiver at a known location.
type Sensor struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Type     string         `json:"type"`
	Location position.Point `json:"location"`
	Enabled  bool           `json:"enabled"`
	LastSeen time.Time      `json:"last_seen"`
}

// externalFix is a direct position observation from a high-precision sensor.
type externalFix struct {
	point      position.Point
	confidence float64
	timestamp  time.Time
}

// TrackedDevice is a device whose position is being estimated.
type TrackedDevice struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	MACAddress string    `json:"mac_address,omitempty"`
	LastSeen   time.Time `json:"last_seen"`

	// Latest reading per sensor; replaced wholesale as new observations
	// arrive, evicted once stale.
	readings map[string]position.SensorReading
	external *externalFix
}
