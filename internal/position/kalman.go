package position

// Default filter variances; tunable per deployment via config.
const (
	DefaultProcessVariance     = 0.1
	DefaultMeasurementVariance = 1.0
)

// KalmanFilter smooths successive position measurements for one device.
// Both axes share a single scalar error term and gain.
type KalmanFilter struct {
	processVariance     float64
	measurementVariance float64

	estimate      Point
	estimateError float64
	initialized   bool
}

// NewKalmanFilter creates a filter with the given variances. Non-positive
// values fall back to the defaults.
func NewKalmanFilter(processVariance, measurementVariance float64) *KalmanFilter {
	if processVariance <= 0 {
		processVariance = DefaultProcessVariance
	}
	if measurementVariance <= 0 {
		measurementVariance = DefaultMeasurementVariance
	}
	return &KalmanFilter{
		processVariance:     processVariance,
		measurementVariance: measurementVariance,
		estimateError:       1.0,
	}
}

// Update folds a new measurement into the estimate and returns the smoothed
// position. The first measurement is returned unchanged.
func (f *KalmanFilter) Update(measurement Point) Point {
	if !f.initialized {
		f.estimate = measurement
		f.initialized = true
		return f.estimate
	}

	predictedError := f.estimateError + f.processVariance
	gain := predictedError / (predictedError + f.measurementVariance)

	f.estimate = Point{
		X: f.estimate.X + gain*(measurement.X-f.estimate.X),
		Y: f.estimate.Y + gain*(measurement.Y-f.estimate.Y),
	}
	f.estimateError = (1 - gain) * predictedError

	return f.estimate
}

// Reset clears the estimate; the next Update behaves like the first.
func (f *KalmanFilter) Reset() {
	f.initialized = false
	f.estimate = Point{}
	f.estimateError = 1.0
}
