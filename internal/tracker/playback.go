package tracker

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"indoortrack/internal/telemetry"
	"indoortrack/internal/zone"
)

// Replayer feeds recorded position rows back into a writer, pacing output
// by the gap between row timestamps. With a zone tracker attached it also
// re-derives the transitions the rows imply, so a replay reproduces the
// full output of the live loop rather than just its position stream.
type Replayer struct {
	Writer     PositionWriter
	Transition TransitionWriter
	Zones      *zone.Tracker
	Speed      float64
}

// Run replays all rows from r. A Speed > 0 scales the recorded pacing;
// Speed <= 0 replays without artificial delay.
func (rp *Replayer) Run(r io.Reader) error {
	dec := json.NewDecoder(r)
	var prev time.Time
	for {
		var row telemetry.PositionRow
		if err := dec.Decode(&row); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		rp.pace(prev, row.Timestamp)
		if err := rp.Writer.Write(row); err != nil {
			return err
		}
		if err := rp.replayTransitions(row); err != nil {
			return err
		}
		prev = row.Timestamp
	}
}

// RunFile opens a log file and replays its rows.
func (rp *Replayer) RunFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return rp.Run(f)
}

func (rp *Replayer) pace(prev, next time.Time) {
	if prev.IsZero() || rp.Speed <= 0 {
		return
	}
	diff := next.Sub(prev)
	if rp.Speed != 1 {
		diff = time.Duration(float64(diff) / rp.Speed)
	}
	if diff > 0 {
		time.Sleep(diff)
	}
}

func (rp *Replayer) replayTransitions(row telemetry.PositionRow) error {
	if rp.Zones == nil || rp.Transition == nil {
		return nil
	}
	for _, tr := range rp.Zones.UpdatePosition(row.DeviceID, row.X, row.Y) {
		trow := telemetry.TransitionRow{
			SiteID:    row.SiteID,
			DeviceID:  tr.DeviceID,
			ZoneID:    tr.ZoneID,
			ZoneName:  tr.ZoneName,
			Event:     string(tr.Event),
			X:         tr.X,
			Y:         tr.Y,
			Timestamp: row.Timestamp,
		}
		if err := rp.Transition.WriteTransition(trow); err != nil {
			return err
		}
	}
	return nil
}

// ReplayLog replays position rows from r to writer without zone handling.
func ReplayLog(r io.Reader, writer PositionWriter, speed float64) error {
	rp := &Replayer{Writer: writer, Speed: speed}
	return rp.Run(r)
}

// ReplayLogFile opens a file and replays its position rows.
func ReplayLogFile(path string, writer PositionWriter, speed float64) error {
	rp := &Replayer{Writer: writer, Speed: speed}
	return rp.RunFile(path)
}
