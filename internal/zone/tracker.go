package zone

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"indoortrack/internal/position"
)

// Event distinguishes zone transition directions.
type Event string

const (
	EventEntered Event = "entered"
	EventExited  Event = "exited"
)

// Transition records one device crossing a zone boundary during a tick.
type Transition struct {
	Event    Event   `json:"event"`
	ZoneID   string  `json:"zone_id"`
	ZoneName string  `json:"zone_name"`
	DeviceID string  `json:"device_id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// Tracker maintains zone definitions and per-device occupancy state, and
// derives enter/exit transitions from fresh positions. It is not safe for
// concurrent use; the tick driver serializes access.
type Tracker struct {
	zones       map[string]*Zone
	deviceZones map[string]map[string]struct{}
}

// NewTracker creates an empty zone tracker.
func NewTracker() *Tracker {
	return &Tracker{
		zones:       make(map[string]*Zone),
		deviceZones: make(map[string]map[string]struct{}),
	}
}

// CreateZone registers a new zone. An empty id is replaced with a fresh
// uuid; polygons need at least three vertices.
func (t *Tracker) CreateZone(z Zone) (*Zone, error) {
	if z.Name == "" {
		return nil, fmt.Errorf("zone name is required")
	}
	if len(z.Coordinates) < 3 {
		return nil, fmt.Errorf("zone %q needs at least 3 vertices, got %d", z.Name, len(z.Coordinates))
	}
	if z.ID == "" {
		z.ID = uuid.New().String()
	}
	if _, exists := t.zones[z.ID]; exists {
		return nil, fmt.Errorf("zone %s already exists", z.ID)
	}
	if z.Color == "" {
		z.Color = DefaultColor
	}
	z.OccupiedBy = nil
	stored := z.clone()
	t.zones[z.ID] = stored
	return stored.clone(), nil
}

// ZoneUpdate carries a partial modification of an existing zone. Absent
// fields (empty strings, nil slice, nil Enabled) leave the stored value
// untouched.
type ZoneUpdate struct {
	Name        string           `json:"name"`
	Coordinates []position.Point `json:"coordinates"`
	Color       string           `json:"color"`
	Enabled     *bool            `json:"enabled"`
}

// UpdateZone applies the present fields of update to an existing zone.
// Occupancy is preserved; it is re-derived on the next tick anyway.
func (t *Tracker) UpdateZone(id string, update ZoneUpdate) (*Zone, error) {
	z, ok := t.zones[id]
	if !ok {
		return nil, fmt.Errorf("zone %s not found", id)
	}
	if update.Name != "" {
		z.Name = update.Name
	}
	if update.Coordinates != nil {
		if len(update.Coordinates) < 3 {
			return nil, fmt.Errorf("zone %q needs at least 3 vertices, got %d", z.Name, len(update.Coordinates))
		}
		z.Coordinates = append([]position.Point(nil), update.Coordinates...)
	}
	if update.Color != "" {
		z.Color = update.Color
	}
	if update.Enabled != nil {
		z.Enabled = *update.Enabled
	}
	return z.clone(), nil
}

// DeleteZone removes a zone and forgets any membership referencing it.
func (t *Tracker) DeleteZone(id string) bool {
	if _, ok := t.zones[id]; !ok {
		return false
	}
	delete(t.zones, id)
	for _, zones := range t.deviceZones {
		delete(zones, id)
	}
	return true
}

// Zone returns a copy of the zone with the given id.
func (t *Tracker) Zone(id string) (*Zone, bool) {
	z, ok := t.zones[id]
	if !ok {
		return nil, false
	}
	return z.clone(), true
}

// Zones returns copies of all zones, ordered by name for stable output.
func (t *Tracker) Zones() []*Zone {
	out := make([]*Zone, 0, len(t.zones))
	for _, z := range t.zones {
		out = append(out, z.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// UpdatePosition evaluates a device's fresh position against all enabled
// zones, updates occupancy state, and returns the transitions this position
// caused. All exits and entries for the device are reported before the
// caller moves on to the next device.
func (t *Tracker) UpdatePosition(deviceID string, x, y float64) []Transition {
	current := make(map[string]struct{})
	for id, z := range t.zones {
		if !z.Enabled {
			continue
		}
		if z.Contains(x, y) {
			current[id] = struct{}{}
		}
	}

	previous := t.deviceZones[deviceID]
	var transitions []Transition

	for id := range current {
		if _, was := previous[id]; was {
			continue
		}
		z := t.zones[id]
		z.OccupiedBy = append(z.OccupiedBy, deviceID)
		transitions = append(transitions, Transition{
			Event:    EventEntered,
			ZoneID:   z.ID,
			ZoneName: z.Name,
			DeviceID: deviceID,
			X:        x,
			Y:        y,
		})
	}

	for id := range previous {
		if _, still := current[id]; still {
			continue
		}
		z, ok := t.zones[id]
		if !ok {
			// Zone was deleted while the device occupied it.
			continue
		}
		z.OccupiedBy = removeString(z.OccupiedBy, deviceID)
		transitions = append(transitions, Transition{
			Event:    EventExited,
			ZoneID:   z.ID,
			ZoneName: z.Name,
			DeviceID: deviceID,
			X:        x,
			Y:        y,
		})
	}

	t.deviceZones[deviceID] = current
	return transitions
}

// DeviceZones returns copies of the zones a device currently occupies.
func (t *Tracker) DeviceZones(deviceID string) []*Zone {
	ids := t.deviceZones[deviceID]
	out := make([]*Zone, 0, len(ids))
	for id := range ids {
		if z, ok := t.zones[id]; ok {
			out = append(out, z.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Occupancy lists the devices currently inside a zone.
func (t *Tracker) Occupancy(zoneID string) []string {
	z, ok := t.zones[zoneID]
	if !ok {
		return nil
	}
	return append([]string(nil), z.OccupiedBy...)
}

func removeString(s []string, v string) []string {
	for i, e := range s {
		if e == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
