package tracker

import (
	"context"
	"time"

	"indoortrack/internal/logging"
	"indoortrack/internal/position"
	"indoortrack/internal/telemetry"
)

// Run starts the tracking loop and stops when the context is done.
func (t *Tracker) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	log.Info("starting tracker", "site_id", t.siteID, "tick_interval", t.tickInterval)
	ticker := time.NewTicker(t.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.tick(ctx)
		case <-ctx.Done():
			log.Info("stopping tracker")
			return
		}
	}
}

// tick estimates positions for all devices and writes the results.
func (t *Tracker) tick(ctx context.Context) {
	log := logging.FromContext(ctx)
	var batch []telemetry.PositionRow
	var transitions []telemetry.TransitionRow

	t.mu.Lock()

	t.devices.ClearStale(staleReadingFactor * t.tickInterval)

	for _, id := range t.devices.DeviceIDs() {
		readings := t.devices.Readings(id)
		external, externalConf := t.devices.ExternalFix(id)

		pos := t.estimate(id, readings, external, externalConf)
		if pos == nil {
			// No estimate this tick: the device keeps its last known
			// position and zones until a later tick produces one.
			continue
		}

		row := telemetry.PositionRow{
			SiteID:      t.siteID,
			DeviceID:    id,
			X:           pos.X,
			Y:           pos.Y,
			Confidence:  pos.Confidence,
			SensorCount: pos.SensorCount,
			Method:      string(pos.Method),
			Timestamp:   t.now().UTC(),
		}
		t.last[id] = row
		batch = append(batch, row)

		for _, tr := range t.zones.UpdatePosition(id, pos.X, pos.Y) {
			transitions = append(transitions, telemetry.TransitionRow{
				SiteID:    t.siteID,
				DeviceID:  tr.DeviceID,
				ZoneID:    tr.ZoneID,
				ZoneName:  tr.ZoneName,
				Event:     string(tr.Event),
				X:         tr.X,
				Y:         tr.Y,
				Timestamp: row.Timestamp,
			})
		}
	}

	// Release before I/O so a slow sink does not block admin reads.
	t.mu.Unlock()

	// Batch support if writer implements WriteBatch
	if bw, ok := t.writer.(batchPositionWriter); ok {
		if err := bw.WriteBatch(batch); err != nil {
			log.Error("batch write failed", "err", err)
		}
	} else {
		for _, row := range batch {
			if err := t.writer.Write(row); err != nil {
				log.Error("write failed", "device_id", row.DeviceID, "err", err)
			}
		}
	}

	// Write zone transitions if any
	if len(transitions) > 0 && t.transitionWriter != nil {
		if bw, ok := t.transitionWriter.(batchTransitionWriter); ok {
			if err := bw.WriteTransitions(transitions); err != nil {
				log.Error("transition batch write failed", "err", err)
			}
		} else {
			for _, tr := range transitions {
				if err := t.transitionWriter.WriteTransition(tr); err != nil {
					log.Error("transition write failed", "err", err)
				}
			}
		}
	}
}

// estimate picks the estimation path for one device. Devices with an
// external fix go through sensor fusion, everything else through the
// RSSI pipeline with optional smoothing.
func (t *Tracker) estimate(id string, readings []position.SensorReading, external *position.Point, externalConf float64) *position.Position {
	if external != nil {
		return t.engine.Fuse(readings, external, externalConf)
	}
	return t.engine.CalculatePosition(id, readings, t.smoothing)
}
