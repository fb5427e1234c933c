package position

import "math"

// Ceiling for the weighted average confidence. The method ignores geometry,
// so it never claims more certainty than a converged trilateration.
const weightedConfidenceCap = 0.6

// WeightedAverage estimates a coarse position as the signal-strength-weighted
// mean of the contributing sensor locations. Only readings carrying an RSSI
// value contribute; returns nil when none do. Used as the fallback when
// trilateration is unavailable.
func WeightedAverage(readings []SensorReading) *Position {
	var totalWeight, wx, wy float64
	used := 0
	for _, r := range readings {
		if r.RSSI == nil {
			continue
		}
		// Exponential weighting so stronger signals dominate.
		w := math.Pow(10, *r.RSSI/20) * r.Confidence
		totalWeight += w
		wx += r.Location.X * w
		wy += r.Location.Y * w
		used++
	}
	if totalWeight == 0 {
		return nil
	}

	confidence := math.Min(weightedConfidenceCap, float64(used)/10)
	return &Position{
		X:           wx / totalWeight,
		Y:           wy / totalWeight,
		Confidence:  confidence,
		SensorCount: used,
		Method:      MethodWeightedAverage,
	}
}
