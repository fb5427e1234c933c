package tracker

import (
	"context"
	"log/slog"
	"net"
	"strconv"

	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"indoortrack/internal/telemetry"
)

// GreptimeDBWriter writes position history and zone transitions to
// GreptimeDB via the ingester client. Tables are created on first write.
type GreptimeDBWriter struct {
	client     *greptime.Client
	posTable   string
	transTable string
}

// NewGreptimeDBWriter creates a new GreptimeDB writer. The endpoint is a
// host or host:port pair for the gRPC ingest interface.
func NewGreptimeDBWriter(endpoint, database string) (*GreptimeDBWriter, error) {
	host := endpoint
	port := 4001
	if h, p, err := net.SplitHostPort(endpoint); err == nil {
		host = h
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}
	cfg := greptime.NewConfig(host).WithPort(port).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &GreptimeDBWriter{
		client:     client,
		posTable:   telemetry.PositionTableName,
		transTable: telemetry.TransitionTableName,
	}, nil
}

// Write inserts a single position row.
func (w *GreptimeDBWriter) Write(row telemetry.PositionRow) error {
	return w.WriteBatch([]telemetry.PositionRow{row})
}

// WriteBatch inserts multiple position rows.
func (w *GreptimeDBWriter) WriteBatch(rows []telemetry.PositionRow) error {
	if len(rows) == 0 {
		return nil
	}

	tbl, err := table.New(w.posTable)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("site_id", types.STRING)
	tbl.AddTagColumn("device_id", types.STRING)
	tbl.AddFieldColumn("x", types.FLOAT64)
	tbl.AddFieldColumn("y", types.FLOAT64)
	tbl.AddFieldColumn("confidence", types.FLOAT64)
	tbl.AddFieldColumn("sensor_count", types.INT64)
	tbl.AddFieldColumn("method", types.STRING)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)

	for _, r := range rows {
		if err := tbl.AddRow(r.SiteID, r.DeviceID, r.X, r.Y, r.Confidence, int64(r.SensorCount), r.Method, r.Timestamp); err != nil {
			return err
		}
	}

	if _, err := w.client.Write(context.Background(), tbl); err != nil {
		slog.Error("greptime position write failed", "err", err)
		return err
	}
	return nil
}

// WriteTransition inserts a single zone transition row.
func (w *GreptimeDBWriter) WriteTransition(row telemetry.TransitionRow) error {
	return w.WriteTransitions([]telemetry.TransitionRow{row})
}

// WriteTransitions inserts multiple zone transition rows.
func (w *GreptimeDBWriter) WriteTransitions(rows []telemetry.TransitionRow) error {
	if len(rows) == 0 {
		return nil
	}

	tbl, err := table.New(w.transTable)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("site_id", types.STRING)
	tbl.AddTagColumn("device_id", types.STRING)
	tbl.AddTagColumn("zone_id", types.STRING)
	tbl.AddFieldColumn("zone_name", types.STRING)
	tbl.AddFieldColumn("event", types.STRING)
	tbl.AddFieldColumn("x", types.FLOAT64)
	tbl.AddFieldColumn("y", types.FLOAT64)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)

	for _, r := range rows {
		if err := tbl.AddRow(r.SiteID, r.DeviceID, r.ZoneID, r.ZoneName, r.Event, r.X, r.Y, r.Timestamp); err != nil {
			return err
		}
	}

	if _, err := w.client.Write(context.Background(), tbl); err != nil {
		slog.Error("greptime transition write failed", "err", err)
		return err
	}
	return nil
}
