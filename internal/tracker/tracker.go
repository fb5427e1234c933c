// Tracker orchestrating position estimation and zone occupancy ticks
package tracker

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"indoortrack/internal/config"
	"indoortrack/internal/device"
	"indoortrack/internal/position"
	"indoortrack/internal/telemetry"
	"indoortrack/internal/zone"
)

// staleReadingFactor controls how many tick intervals a reading survives
// before it is dropped from position estimation.
const staleReadingFactor = 3

// Tracker drives the estimation loop: it collects the freshest readings per
// device, estimates a position, evaluates zone membership, and hands the
// results to the configured writers.
type Tracker struct {
	siteID           string
	devices          *device.Manager
	engine           *position.Engine
	zones            *zone.Tracker
	writer           PositionWriter
	transitionWriter TransitionWriter
	tickInterval     time.Duration
	smoothing        bool
	last             map[string]telemetry.PositionRow
	now              func() time.Time
	mu               sync.Mutex
}

// NewTracker wires the engines together and seeds sensors, devices, and
// zones from the configuration.
func NewTracker(siteID string, cfg *config.TrackingConfig, writer PositionWriter, tWriter TransitionWriter, tickInterval time.Duration) (*Tracker, error) {
	t := &Tracker{
		siteID: siteID,
		devices: device.NewManager(),
		engine: position.NewEngine(
			position.Calibration{
				ReferenceRSSI:    cfg.Calibration.ReferenceRSSI,
				PathLossExponent: cfg.Calibration.PathLossExponent,
			},
			position.FilterConfig{
				ProcessVariance:     cfg.Filter.ProcessVariance,
				MeasurementVariance: cfg.Filter.MeasurementVariance,
			},
		),
		writer:           writer,
		transitionWriter: tWriter,
		tickInterval:     tickInterval,
		smoothing:        cfg.SmoothingEnabled(),
		last:             make(map[string]telemetry.PositionRow),
		now:              time.Now,
	}

	for _, s := range cfg.Sensors {
		t.devices.AddSensor(s.ID, s.Name, s.Type, position.Point{X: s.X, Y: s.Y})
		if s.Disabled {
			t.devices.SetSensorEnabled(s.ID, false)
		}
	}
	for _, d := range cfg.Devices {
		t.devices.AddDevice(d.ID, d.Name, d.MACAddress)
	}
	zones, err := ZoneTrackerFromConfig(cfg.Zones)
	if err != nil {
		return nil, err
	}
	t.zones = zones
	return t, nil
}

// ZoneTrackerFromConfig seeds a zone tracker from configured zone
// definitions. The replay path uses it to re-derive transitions without a
// full Tracker.
func ZoneTrackerFromConfig(zones []config.Zone) (*zone.Tracker, error) {
	zt := zone.NewTracker()
	for _, z := range zones {
		coords := make([]position.Point, len(z.Coordinates))
		for i, c := range z.Coordinates {
			coords[i] = position.Point{X: c[0], Y: c[1]}
		}
		if _, err := zt.CreateZone(zone.Zone{
			ID:          z.ID,
			Name:        z.Name,
			Coordinates: coords,
			Color:       z.Color,
			Enabled:     !z.Disabled,
		}); err != nil {
			return nil, fmt.Errorf("zone %q: %w", z.Name, err)
		}
	}
	return zt, nil
}

// Devices exposes the reading intake for ingest sources.
func (t *Tracker) Devices() *device.Manager {
	return t.devices
}

// PositionSnapshot returns the latest estimated position per device.
func (t *Tracker) PositionSnapshot() []telemetry.PositionRow {
	t.mu.Lock()
	defer t.mu.Unlock()
	rows := make([]telemetry.PositionRow, 0, len(t.last))
	for _, row := range t.last {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].DeviceID < rows[j].DeviceID })
	return rows
}

// Zones returns copies of all configured zones.
func (t *Tracker) Zones() []*zone.Zone {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.zones.Zones()
}

// Zone returns a copy of one zone.
func (t *Tracker) Zone(id string) (*zone.Zone, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.zones.Zone(id)
}

// CreateZone adds a zone at runtime.
func (t *Tracker) CreateZone(z zone.Zone) (*zone.Zone, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.zones.CreateZone(z)
}

// UpdateZone modifies an existing zone.
func (t *Tracker) UpdateZone(id string, update zone.ZoneUpdate) (*zone.Zone, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.zones.UpdateZone(id, update)
}

// DeleteZone removes a zone.
func (t *Tracker) DeleteZone(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.zones.DeleteZone(id)
}

// ZoneOccupancy lists the devices currently inside a zone.
func (t *Tracker) ZoneOccupancy(zoneID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.zones.Occupancy(zoneID)
}

// DeviceZones lists the zones a device currently occupies.
func (t *Tracker) DeviceZones(deviceID string) []*zone.Zone {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.zones.DeviceZones(deviceID)
}

// SiteHealth summarizes the tracking state for monitoring.
type SiteHealth struct {
	SiteID  string `json:"site_id"`
	Sensors int    `json:"sensors"`
	Devices int    `json:"devices"`
	Zones   int    `json:"zones"`
	Located int    `json:"located"`
}

// Health returns aggregated counts for the site.
func (t *Tracker) Health() SiteHealth {
	t.mu.Lock()
	defer t.mu.Unlock()
	return SiteHealth{
		SiteID:  t.siteID,
		Sensors: len(t.devices.Sensors()),
		Devices: len(t.devices.Devices()),
		Zones:   len(t.zones.Zones()),
		Located: len(t.last),
	}
}
