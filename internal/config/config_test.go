package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_Valid(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "tracking.yaml")
	yaml := `
site_id: test-site
sensors:
  - id: s1
    name: Sensor One
    type: esphome
    x: 0.0
    y: 0.0
  - id: s2
    type: mqtt
    x: 10.0
    y: 0.0
zones:
  - name: Lobby
    coordinates:
      - [0.0, 0.0]
      - [10.0, 0.0]
      - [10.0, 10.0]
`
	if err := os.WriteFile(tmpFile, []byte(yaml), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	cfg, err := Load(tmpFile, "../../schemas/tracking.cue")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.SiteID != "test-site" {
		t.Errorf("SiteID = %q, want test-site", cfg.SiteID)
	}
	if len(cfg.Sensors) != 2 || cfg.Sensors[0].ID != "s1" {
		t.Errorf("unexpected sensor data: %+v", cfg.Sensors)
	}
	if len(cfg.Zones) != 1 || len(cfg.Zones[0].Coordinates) != 3 {
		t.Errorf("unexpected zone data: %+v", cfg.Zones)
	}
	if !cfg.SmoothingEnabled() {
		t.Error("smoothing should default to enabled")
	}
}

func TestLoadConfig_SmoothingDisabled(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "tracking.yaml")
	yaml := `
site_id: test-site
smoothing: none
`
	if err := os.WriteFile(tmpFile, []byte(yaml), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	cfg, err := Load(tmpFile, "../../schemas/tracking.cue")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.SmoothingEnabled() {
		t.Error("smoothing should be disabled")
	}
}

func TestLoadConfig_RejectsTinyZone(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "tracking.yaml")
	yaml := `
zones:
  - name: Sliver
    coordinates:
      - [0.0, 0.0]
      - [1.0, 1.0]
`
	if err := os.WriteFile(tmpFile, []byte(yaml), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	if _, err := Load(tmpFile, "../../schemas/tracking.cue"); err == nil {
		t.Fatal("expected error for zone with fewer than 3 vertices")
	}
}

func TestLoadConfig_RejectsDuplicateSensor(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "tracking.yaml")
	yaml := `
sensors:
  - id: s1
    x: 0.0
    y: 0.0
  - id: s1
    x: 1.0
    y: 1.0
`
	if err := os.WriteFile(tmpFile, []byte(yaml), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	if _, err := Load(tmpFile, "../../schemas/tracking.cue"); err == nil {
		t.Fatal("expected error for duplicate sensor id")
	}
}
