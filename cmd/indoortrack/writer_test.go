package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"indoortrack/internal/config"
	"indoortrack/internal/telemetry"
	"indoortrack/internal/tracker"
)

func TestNewWritersPrintOnly(t *testing.T) {
	pw, tw, cleanup, err := newWriters(&config.TrackingConfig{}, true, false, "")
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	cleanup()
	if _, ok := pw.(*tracker.JSONStdoutWriter); !ok {
		t.Fatalf("expected *tracker.JSONStdoutWriter, got %T", pw)
	}
	if _, ok := tw.(*tracker.JSONStdoutWriter); !ok {
		t.Fatalf("expected *tracker.JSONStdoutWriter, got %T", tw)
	}
}

func TestNewWritersGreptimeFallback(t *testing.T) {
	t.Setenv("GREPTIMEDB_ENDPOINT", "")
	pw, _, cleanup, err := newWriters(&config.TrackingConfig{}, false, false, "")
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	cleanup()
	if _, ok := pw.(*tracker.JSONStdoutWriter); !ok {
		t.Fatalf("expected *tracker.JSONStdoutWriter, got %T", pw)
	}
}

func TestNewWritersLogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "positions.log")
	pw, tw, cleanup, err := newWriters(&config.TrackingConfig{}, true, false, path)
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	defer cleanup()
	if _, ok := pw.(*tracker.MultiWriter); !ok {
		t.Fatalf("expected *tracker.MultiWriter, got %T", pw)
	}
	row := telemetry.PositionRow{SiteID: "s1", DeviceID: "d1", Timestamp: time.Now()}
	if err := pw.Write(row); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	tr := telemetry.TransitionRow{SiteID: "s1", DeviceID: "d1", ZoneID: "z1", Event: "entered", Timestamp: time.Now()}
	if err := tw.WriteTransition(tr); err != nil {
		t.Fatalf("write transition failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Size() == 0 {
		t.Fatalf("expected log file to be non-empty")
	}
	transInfo, err := os.Stat(path + ".transitions")
	if err != nil {
		t.Fatalf("stat transitions failed: %v", err)
	}
	if transInfo.Size() == 0 {
		t.Fatalf("expected transition file to be non-empty")
	}
}
