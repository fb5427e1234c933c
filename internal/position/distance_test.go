package position

import (
	"math"
	"testing"
)

func TestRSSIToDistance_ReferencePoint(t *testing.T) {
	cal := DefaultCalibration()
	// At exactly the 1m reference the model clamps to the near field.
	if got := cal.RSSIToDistance(cal.ReferenceRSSI); got != nearFieldDistance {
		t.Errorf("RSSIToDistance(ref)=%f, want %f", got, nearFieldDistance)
	}
	if got := cal.RSSIToDistance(-30); got != nearFieldDistance {
		t.Errorf("RSSIToDistance(-30)=%f, want near field %f", got, nearFieldDistance)
	}
}

func TestRSSIToDistance_PathLossInversion(t *testing.T) {
	cal := Calibration{ReferenceRSSI: -59, PathLossExponent: 2.5}
	// -59 - 10*2.5*log10(10) = -84 dBm should invert to 10m.
	got := cal.RSSIToDistance(-84)
	if math.Abs(got-10) > 1e-9 {
		t.Errorf("RSSIToDistance(-84)=%f, want 10", got)
	}
}

func TestRSSIToDistance_Monotonic(t *testing.T) {
	cal := DefaultCalibration()
	prev := math.Inf(1)
	for rssi := -100.0; rssi <= -30; rssi += 0.5 {
		d := cal.RSSIToDistance(rssi)
		if d <= 0 || math.IsInf(d, 0) || math.IsNaN(d) {
			t.Fatalf("RSSIToDistance(%f)=%f not finite positive", rssi, d)
		}
		if d > prev {
			t.Fatalf("distance increased with stronger signal: rssi=%f d=%f prev=%f", rssi, d, prev)
		}
		prev = d
	}
}
