package position

// FilterConfig holds the smoothing filter variances.
type FilterConfig struct {
	ProcessVariance     float64
	MeasurementVariance float64
}

// Engine estimates device positions from sensor readings. It owns one
// smoothing filter per tracked device; an Engine is not safe for concurrent
// use, the tick driver must serialize calls.
type Engine struct {
	cal       Calibration
	filterCfg FilterConfig
	filters   map[string]*KalmanFilter
}

// NewEngine creates an engine with the given calibration and filter
// configuration. Zero-valued calibration fields fall back to the defaults.
func NewEngine(cal Calibration, filterCfg FilterConfig) *Engine {
	if cal.ReferenceRSSI == 0 {
		cal.ReferenceRSSI = DefaultReferenceRSSI
	}
	if cal.PathLossExponent <= 0 {
		cal.PathLossExponent = DefaultPathLossExponent
	}
	return &Engine{
		cal:       cal,
		filterCfg: filterCfg,
		filters:   make(map[string]*KalmanFilter),
	}
}

// Calibration returns the engine's path loss constants.
func (e *Engine) Calibration() Calibration { return e.cal }

// CalculatePosition estimates a device position from the current readings.
// Trilateration is attempted first, then the weighted average fallback; nil
// means no estimate is possible this tick. With smoothing enabled the result
// coordinates are run through the device's filter; confidence, method, and
// sensor count are reported unsmoothed.
func (e *Engine) CalculatePosition(deviceID string, readings []SensorReading, smoothing bool) *Position {
	if len(readings) == 0 {
		return nil
	}

	pos := e.Trilaterate(readings)
	if pos == nil {
		pos = WeightedAverage(readings)
	}
	if pos == nil {
		return nil
	}

	if smoothing {
		smoothed := e.filter(deviceID).Update(Point{X: pos.X, Y: pos.Y})
		pos.X = smoothed.X
		pos.Y = smoothed.Y
	}
	return pos
}

// Fuse blends an RSSI-derived position with an independently supplied
// high-precision fix. With no external fix the trilateration result is
// returned as-is (including nil); with no RSSI solution the external fix
// stands alone.
func (e *Engine) Fuse(readings []SensorReading, external *Point, externalConfidence float64) *Position {
	rssiPos := e.Trilaterate(readings)

	if external == nil {
		return rssiPos
	}
	externalConfidence = clamp01(externalConfidence)

	if rssiPos == nil {
		return &Position{
			X:           external.X,
			Y:           external.Y,
			Confidence:  externalConfidence,
			SensorCount: 1,
			Method:      MethodMmWaveOnly,
		}
	}

	rssiWeight, extWeight := rssiPos.Confidence, externalConfidence
	totalWeight := rssiWeight + extWeight
	if totalWeight == 0 {
		// Neither source claims any certainty; split the difference.
		rssiWeight, extWeight, totalWeight = 0.5, 0.5, 1
	}
	return &Position{
		X:           (rssiPos.X*rssiWeight + external.X*extWeight) / totalWeight,
		Y:           (rssiPos.Y*rssiWeight + external.Y*extWeight) / totalWeight,
		Confidence:  (rssiPos.Confidence + externalConfidence) / 2,
		SensorCount: rssiPos.SensorCount + 1,
		Method:      MethodSensorFusion,
	}
}

// ResetFilter clears the smoothing state for a device, for example after it
// reappears following a long absence.
func (e *Engine) ResetFilter(deviceID string) {
	if f, ok := e.filters[deviceID]; ok {
		f.Reset()
	}
}

func (e *Engine) filter(deviceID string) *KalmanFilter {
	f, ok := e.filters[deviceID]
	if !ok {
		f = NewKalmanFilter(e.filterCfg.ProcessVariance, e.filterCfg.MeasurementVariance)
		e.filters[deviceID] = f
	}
	return f
}
