// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Calibration holds the deployment-wide path loss constants.
type Calibration struct {
	ReferenceRSSI    float64 `yaml:"reference_rssi"`
	PathLossExponent float64 `yaml:"path_loss_exponent"`
}

// Filter holds the smoothing filter variances.
type Filter struct {
	ProcessVariance     float64 `yaml:"process_variance"`
	MeasurementVariance float64 `yaml:"measurement_variance"`
}

// Sensor places a fixed receiver in the tracking plane.
type Sensor struct {
	ID       string  `yaml:"id"`
	Name     string  `yaml:"name"`
	Type     string  `yaml:"type"`
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Disabled bool    `yaml:"disabled"`
}

// Device declares a device to track at startup. Devices may also appear
// dynamically when their first reading arrives.
type Device struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	MACAddress string `yaml:"mac_address"`
}

// Zone defines a named polygonal region.
type Zone struct {
	ID          string       `yaml:"id"`
	Name        string       `yaml:"name"`
	Coordinates [][2]float64 `yaml:"coordinates"`
	Color       string       `yaml:"color"`
	Disabled    bool         `yaml:"disabled"`
}

// MQTT configures the reading intake subscription.
type MQTT struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
}

// Kafka configures the zone transition event bus.
type Kafka struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// TrackingConfig is the root configuration for a deployment.
type TrackingConfig struct {
	SiteID      string      `yaml:"site_id"`
	Smoothing   string      `yaml:"smoothing"` // "kalman" (default) or "none"
	Calibration Calibration `yaml:"calibration"`
	Filter      Filter      `yaml:"filter"`
	Sensors     []Sensor    `yaml:"sensors"`
	Devices     []Device    `yaml:"devices"`
	Zones       []Zone      `yaml:"zones"`
	MQTT        MQTT        `yaml:"mqtt"`
	Kafka       Kafka       `yaml:"kafka"`
}

// SmoothingEnabled reports whether position smoothing is active.
func (c *TrackingConfig) SmoothingEnabled() bool {
	return c.Smoothing != "none"
}

// Load loads YAML config and validates it against a CUE schema.
func Load(configPath, cueSchemaPath string) (*TrackingConfig, error) {
	if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var cfg TrackingConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.check(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *TrackingConfig) check() error {
	seen := make(map[string]bool, len(c.Sensors))
	for _, s := range c.Sensors {
		if s.ID == "" {
			return fmt.Errorf("sensor without id")
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate sensor id %q", s.ID)
		}
		seen[s.ID] = true
	}
	for _, z := range c.Zones {
		if len(z.Coordinates) < 3 {
			return fmt.Errorf("zone %q has %d vertices, need at least 3", z.Name, len(z.Coordinates))
		}
	}
	return nil
}
