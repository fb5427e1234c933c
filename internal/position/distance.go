package position

import "math"

// Default calibration for indoor BLE deployments.
const (
	DefaultReferenceRSSI    = -59.0 // dBm measured at 1 meter
	DefaultPathLossExponent = 2.5
)

// nearFieldDistance is returned for signals at or above the 1m reference,
// where the log-distance model would go negative or undefined.
const nearFieldDistance = 0.5

// Calibration holds the deployment-wide path loss constants.
type Calibration struct {
	ReferenceRSSI    float64
	PathLossExponent float64
}

// DefaultCalibration returns calibration constants suitable for a typical
// indoor environment.
func DefaultCalibration() Calibration {
	return Calibration{
		ReferenceRSSI:    DefaultReferenceRSSI,
		PathLossExponent: DefaultPathLossExponent,
	}
}

// RSSIToDistance converts a signal strength reading to an estimated distance
// in meters using the log-distance path loss model:
//
//	RSSI = ref - 10 * n * log10(d)
//
// Always returns a finite positive distance for finite input.
func (c Calibration) RSSIToDistance(rssi float64) float64 {
	if rssi >= c.ReferenceRSSI {
		return nearFieldDistance
	}
	return math.Pow(10, (c.ReferenceRSSI-rssi)/(10*c.PathLossExponent))
}
