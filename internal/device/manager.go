package device

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"indoortrack/internal/position"
)

// Observation is one raw intake payload before validation. RSSI/Distance
// apply to ranging sensors; X/Y carry a direct fix from mmwave sensors.
type Observation struct {
	RSSI       *float64
	Distance   *float64
	X          *float64
	Y          *float64
	Confidence float64
	Timestamp  time.Time
}

// Manager owns the sensor and tracked-device registries and the ephemeral
// per-(device, sensor) reading store. Safe for concurrent use: the intake
// layer records readings while the tick driver drains them.
type Manager struct {
	mu      sync.Mutex
	sensors map[string]*Sensor
	devices map[string]*TrackedDevice
	now     func() time.Time
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{
		sensors: make(map[string]*Sensor),
		devices: make(map[string]*TrackedDevice),
		now:     time.Now,
	}
}

// AddSensor registers a sensor at a fixed location.
func (m *Manager) AddSensor(id, name, sensorType string, location position.Point) *Sensor {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &Sensor{ID: id, Name: name, Type: sensorType, Location: location, Enabled: true}
	m.sensors[id] = s
	return s
}

// SetSensorEnabled flips a sensor's enabled flag. Disabled sensors still
// exist but their observations are dropped at intake.
func (m *Manager) SetSensorEnabled(id string, enabled bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sensors[id]
	if !ok {
		return false
	}
	s.Enabled = enabled
	return true
}

// RemoveSensor drops a sensor from the registry.
func (m *Manager) RemoveSensor(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sensors[id]; !ok {
		return false
	}
	delete(m.sensors, id)
	return true
}

// Sensors returns a snapshot of all registered sensors, sorted by id.
func (m *Manager) Sensors() []Sensor {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Sensor, 0, len(m.sensors))
	for _, s := range m.sensors {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AddDevice registers a device to track.
func (m *Manager) AddDevice(id, name, mac string) *TrackedDevice {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addDeviceLocked(id, name, mac)
}

func (m *Manager) addDeviceLocked(id, name, mac string) *TrackedDevice {
	d := &TrackedDevice{
		ID:         id,
		Name:       name,
		MACAddress: mac,
		readings:   make(map[string]position.SensorReading),
	}
	m.devices[id] = d
	return d
}

// RemoveDevice stops tracking a device.
func (m *Manager) RemoveDevice(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.devices[id]; !ok {
		return false
	}
	delete(m.devices, id)
	return true
}

// Devices returns a snapshot of all tracked devices, sorted by id.
func (m *Manager) Devices() []TrackedDevice {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]TrackedDevice, 0, len(m.devices))
	for _, d := range m.devices {
		cp := *d
		cp.readings = nil
		cp.external = nil
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DeviceIDs returns the ids of all tracked devices, sorted.
func (m *Manager) DeviceIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.devices))
	for id := range m.devices {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// RecordReading validates and stores one observation tying a device to a
// sensor. Devices are auto-registered on first sight; observations from
// unknown or disabled sensors are rejected. This is the finite-input
// boundary: NaN or Inf values never reach the solver.
func (m *Manager) RecordReading(deviceID, sensorID string, obs Observation) error {
	if err := validate(obs); err != nil {
		return fmt.Errorf("reading %s/%s: %w", deviceID, sensorID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sensor, ok := m.sensors[sensorID]
	if !ok {
		return fmt.Errorf("reading %s/%s: unknown sensor", deviceID, sensorID)
	}
	if !sensor.Enabled {
		return fmt.Errorf("reading %s/%s: sensor disabled", deviceID, sensorID)
	}

	dev, ok := m.devices[deviceID]
	if !ok {
		dev = m.addDeviceLocked(deviceID, deviceID, "")
	}

	ts := obs.Timestamp
	if ts.IsZero() {
		ts = m.now()
	}
	confidence := obs.Confidence
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	if sensor.Type == TypeMmWave && obs.X != nil && obs.Y != nil {
		dev.external = &externalFix{
			point:      position.Point{X: *obs.X, Y: *obs.Y},
			confidence: confidence,
			timestamp:  ts,
		}
	} else {
		dev.readings[sensorID] = position.SensorReading{
			SensorID:   sensorID,
			Location:   sensor.Location,
			RSSI:       obs.RSSI,
			Distance:   obs.Distance,
			Timestamp:  ts,
			Confidence: confidence,
		}
	}

	dev.LastSeen = ts
	sensor.LastSeen = ts
	return nil
}

// Readings returns the current (non-stale-purged) readings for a device.
func (m *Manager) Readings(deviceID string) []position.SensorReading {
	m.mu.Lock()
	defer m.mu.Unlock()
	dev, ok := m.devices[deviceID]
	if !ok {
		return nil
	}
	out := make([]position.SensorReading, 0, len(dev.readings))
	for _, r := range dev.readings {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SensorID < out[j].SensorID })
	return out
}

// ExternalFix returns the device's latest direct position observation, or
// nil when none is current.
func (m *Manager) ExternalFix(deviceID string) (*position.Point, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dev, ok := m.devices[deviceID]
	if !ok || dev.external == nil {
		return nil, 0
	}
	p := dev.external.point
	return &p, dev.external.confidence
}

// ClearStale evicts readings and external fixes older than maxAge.
func (m *Manager) ClearStale(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-maxAge)
	for _, dev := range m.devices {
		for sensorID, r := range dev.readings {
			if r.Timestamp.Before(cutoff) {
				delete(dev.readings, sensorID)
			}
		}
		if dev.external != nil && dev.external.timestamp.Before(cutoff) {
			dev.external = nil
		}
	}
}

func validate(obs Observation) error {
	check := func(name string, v *float64) error {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return fmt.Errorf("%s is not finite", name)
		}
		return nil
	}
	if obs.RSSI == nil && obs.Distance == nil && (obs.X == nil || obs.Y == nil) {
		return fmt.Errorf("no rssi, distance, or direct fix")
	}
	if err := check("rssi", obs.RSSI); err != nil {
		return err
	}
	if err := check("distance", obs.Distance); err != nil {
		return err
	}
	if err := check("x", obs.X); err != nil {
		return err
	}
	if err := check("y", obs.Y); err != nil {
		return err
	}
	if math.IsNaN(obs.Confidence) || math.IsInf(obs.Confidence, 0) {
		return fmt.Errorf("confidence is not finite")
	}
	if obs.Distance != nil && *obs.Distance < 0 {
		return fmt.Errorf("distance is negative")
	}
	return nil
}
