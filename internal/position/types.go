// Core types for the position estimation engine.
package position

import "time"

// Method identifies how a position estimate was produced.
type Method string

const (
	MethodTrilateration   Method = "trilateration"
	MethodWeightedAverage Method = "weighted_average"
	MethodSensorFusion    Method = "sensor_fusion"
	MethodMmWaveOnly      Method = "mmwave_only"
)

// Point is a 2-D location in meters.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SensorReading ties one tracked device to one sensor at one instant.
// At least one of RSSI or Distance must be set for the reading to be usable;
// a missing Distance is derived from RSSI via the calibration model.
type SensorReading struct {
	SensorID   string    `json:"sensor_id"`
	Location   Point     `json:"location"`
	RSSI       *float64  `json:"rssi,omitempty"`
	Distance   *float64  `json:"distance,omitempty"`
	Timestamp  time.Time `json:"ts"`
	Confidence float64   `json:"confidence"`
}

// Position is the engine's output for one device at one tick.
type Position struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Confidence  float64 `json:"confidence"`
	SensorCount int     `json:"sensor_count"`
	Method      Method  `json:"method"`
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
