package ingest

import (
	"testing"
	"time"

	"indoortrack/internal/device"
	"indoortrack/internal/position"
)

func newTestSource() (*MQTTSource, *device.Manager) {
	devices := device.NewManager()
	devices.AddSensor("s1", "Sensor One", device.TypeESPHome, position.Point{X: 0, Y: 0})
	devices.AddSensor("radar", "Radar", device.TypeMmWave, position.Point{X: 5, Y: 5})
	return &MQTTSource{
		topicPrefix: "indoortrack/readings",
		devices:     devices,
		now:         func() time.Time { return time.Unix(1000, 0) },
	}, devices
}

func TestHandleMessage_RecordsReading(t *testing.T) {
	src, devices := newTestSource()

	err := src.handleMessage("indoortrack/readings/s1/badge-1", []byte(`{"rssi":-65.5}`))
	if err != nil {
		t.Fatalf("handleMessage: %v", err)
	}

	readings := devices.Readings("badge-1")
	if len(readings) != 1 {
		t.Fatalf("expected 1 reading, got %d", len(readings))
	}
	r := readings[0]
	if r.RSSI == nil || *r.RSSI != -65.5 {
		t.Errorf("unexpected RSSI: %+v", r.RSSI)
	}
	if r.Confidence != 1 {
		t.Errorf("missing confidence should default to 1, got %v", r.Confidence)
	}
	if !r.Timestamp.Equal(time.Unix(1000, 0)) {
		t.Errorf("missing timestamp should default to now, got %v", r.Timestamp)
	}
}

func TestHandleMessage_MmWavePayload(t *testing.T) {
	src, devices := newTestSource()

	err := src.handleMessage("indoortrack/readings/radar/badge-1", []byte(`{"x":3.5,"y":4.5,"confidence":0.8}`))
	if err != nil {
		t.Fatalf("handleMessage: %v", err)
	}

	p, conf := devices.ExternalFix("badge-1")
	if p == nil {
		t.Fatal("expected an external fix")
	}
	if p.X != 3.5 || p.Y != 4.5 || conf != 0.8 {
		t.Errorf("unexpected fix: %+v conf=%v", p, conf)
	}
}

func TestHandleMessage_Rejections(t *testing.T) {
	src, _ := newTestSource()

	cases := []struct {
		name    string
		topic   string
		payload string
	}{
		{"malformed topic", "indoortrack/readings/s1", `{"rssi":-60}`},
		{"unknown sensor", "indoortrack/readings/nope/badge-1", `{"rssi":-60}`},
		{"bad json", "indoortrack/readings/s1/badge-1", `{`},
		{"negative distance", "indoortrack/readings/s1/badge-1", `{"distance":-2}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := src.handleMessage(tc.topic, []byte(tc.payload)); err == nil {
				t.Fatalf("expected error for %s", tc.name)
			}
		})
	}
}
