package position

import (
	"math"
	"testing"
)

func TestCalculatePosition_EmptyReadings(t *testing.T) {
	eng := NewEngine(DefaultCalibration(), FilterConfig{})
	if pos := eng.CalculatePosition("dev", nil, true); pos != nil {
		t.Errorf("expected nil for no readings, got %+v", pos)
	}
}

func TestCalculatePosition_FallsBackToWeightedAverage(t *testing.T) {
	eng := NewEngine(DefaultCalibration(), FilterConfig{})
	// Two sensors: insufficient geometry for trilateration, valid rssi.
	readings := []SensorReading{
		{Location: Point{X: 0, Y: 0}, RSSI: ptr(-60.0), Confidence: 1},
		{Location: Point{X: 10, Y: 0}, RSSI: ptr(-70.0), Confidence: 1},
	}
	pos := eng.CalculatePosition("dev", readings, false)
	if pos == nil {
		t.Fatal("expected a fallback estimate")
	}
	if pos.Method != MethodWeightedAverage {
		t.Errorf("method=%s, want %s", pos.Method, MethodWeightedAverage)
	}
	if pos.SensorCount != 2 {
		t.Errorf("sensor_count=%d, want 2", pos.SensorCount)
	}
}

func TestCalculatePosition_NoUsableSignal(t *testing.T) {
	eng := NewEngine(DefaultCalibration(), FilterConfig{})
	readings := []SensorReading{
		{Location: Point{X: 0, Y: 0}, Confidence: 1},
		{Location: Point{X: 10, Y: 0}, Confidence: 1},
	}
	if pos := eng.CalculatePosition("dev", readings, true); pos != nil {
		t.Errorf("expected nil without rssi or distance, got %+v", pos)
	}
}

func TestCalculatePosition_SmoothingStabilizesTrajectory(t *testing.T) {
	eng := NewEngine(DefaultCalibration(), FilterConfig{})
	sensors := []Point{{0, 0}, {10, 0}, {0, 10}}

	first := eng.CalculatePosition("dev", exactReadings(Point{X: 5, Y: 5}, sensors), true)
	if first == nil {
		t.Fatal("expected an estimate")
	}
	// The first smoothed estimate passes through unchanged.
	if math.Abs(first.X-5) > 1e-3 || math.Abs(first.Y-5) > 1e-3 {
		t.Errorf("first estimate (%f, %f), want (5, 5)", first.X, first.Y)
	}

	// A jump to (9, 5) should be damped by the filter.
	second := eng.CalculatePosition("dev", exactReadings(Point{X: 9, Y: 5}, sensors), true)
	if second == nil {
		t.Fatal("expected an estimate")
	}
	if second.X >= 9 {
		t.Errorf("x=%f, want smoothed value below the raw measurement 9", second.X)
	}
	// Smoothing must not touch confidence or method.
	if second.Method != MethodTrilateration {
		t.Errorf("method=%s, want %s", second.Method, MethodTrilateration)
	}
	if second.Confidence < 0.99 {
		t.Errorf("confidence=%f, want untouched by smoothing", second.Confidence)
	}
}

func TestCalculatePosition_FiltersAreIndependentPerDevice(t *testing.T) {
	eng := NewEngine(DefaultCalibration(), FilterConfig{})
	sensors := []Point{{0, 0}, {10, 0}, {0, 10}}

	eng.CalculatePosition("a", exactReadings(Point{X: 1, Y: 1}, sensors), true)
	// A fresh device's first estimate is the raw measurement, not influenced
	// by device "a" history.
	pos := eng.CalculatePosition("b", exactReadings(Point{X: 8, Y: 8}, sensors), true)
	if pos == nil {
		t.Fatal("expected an estimate")
	}
	if math.Abs(pos.X-8) > 1e-3 || math.Abs(pos.Y-8) > 1e-3 {
		t.Errorf("device b estimate (%f, %f), want (8, 8)", pos.X, pos.Y)
	}
}

func TestFuse_NoInputs(t *testing.T) {
	eng := NewEngine(DefaultCalibration(), FilterConfig{})
	if pos := eng.Fuse(nil, nil, 0.9); pos != nil {
		t.Errorf("expected nil, got %+v", pos)
	}
}

func TestFuse_ExternalOnly(t *testing.T) {
	eng := NewEngine(DefaultCalibration(), FilterConfig{})
	pos := eng.Fuse(nil, &Point{X: 3, Y: 4}, 0.9)
	if pos == nil {
		t.Fatal("expected a position")
	}
	if pos.X != 3 || pos.Y != 4 {
		t.Errorf("got (%f, %f), want (3, 4)", pos.X, pos.Y)
	}
	if pos.Method != MethodMmWaveOnly {
		t.Errorf("method=%s, want %s", pos.Method, MethodMmWaveOnly)
	}
	if pos.Confidence != 0.9 {
		t.Errorf("confidence=%f, want 0.9", pos.Confidence)
	}
	if pos.SensorCount != 1 {
		t.Errorf("sensor_count=%d, want 1", pos.SensorCount)
	}
}

func TestFuse_BlendsBothSources(t *testing.T) {
	eng := NewEngine(DefaultCalibration(), FilterConfig{})
	readings := exactReadings(Point{X: 4, Y: 4}, []Point{{0, 0}, {10, 0}, {0, 10}})
	pos := eng.Fuse(readings, &Point{X: 6, Y: 4}, 1.0)
	if pos == nil {
		t.Fatal("expected a fused position")
	}
	if pos.Method != MethodSensorFusion {
		t.Errorf("method=%s, want %s", pos.Method, MethodSensorFusion)
	}
	// Equal confidences (~1 each) put the fused x near the midpoint 5.
	if math.Abs(pos.X-5) > 0.05 {
		t.Errorf("x=%f, want ~5", pos.X)
	}
	if pos.SensorCount != 4 {
		t.Errorf("sensor_count=%d, want rssi count + 1 = 4", pos.SensorCount)
	}
	if pos.Confidence < 0.97 {
		t.Errorf("fused confidence=%f, want average near 1", pos.Confidence)
	}
}

func TestFuse_RSSIOnlyPassesThrough(t *testing.T) {
	eng := NewEngine(DefaultCalibration(), FilterConfig{})
	readings := exactReadings(Point{X: 4, Y: 4}, []Point{{0, 0}, {10, 0}, {0, 10}})
	pos := eng.Fuse(readings, nil, 0.9)
	if pos == nil {
		t.Fatal("expected the trilateration result")
	}
	if pos.Method != MethodTrilateration {
		t.Errorf("method=%s, want %s", pos.Method, MethodTrilateration)
	}
}
