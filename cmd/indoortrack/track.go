package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"indoortrack/internal/admin"
	"indoortrack/internal/config"
	"indoortrack/internal/ingest"
	"indoortrack/internal/logging"
	"indoortrack/internal/tracker"
)

var (
	trackPrintOnly  bool
	trackTUI        bool
	trackConfigPath string
	trackSchemaPath string
	trackTick       time.Duration
	trackLogFile    string
	trackAdminAddr  string
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Run the real-time position tracker",
	Long:  "track ingests sensor readings, estimates device positions every tick, and emits position history and zone transitions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logging.New()
		ctx, cancel := context.WithCancel(logging.NewContext(context.Background(), log))
		defer cancel()

		cfg, err := config.Load(trackConfigPath, trackSchemaPath)
		if err != nil {
			return err
		}

		writer, transWriter, cleanup, err := newWriters(cfg, trackPrintOnly, trackTUI, trackLogFile)
		if err != nil {
			return err
		}
		defer cleanup()

		siteID := cfg.SiteID
		if env := os.Getenv("SITE_ID"); env != "" {
			siteID = env
		}
		if siteID == "" {
			siteID = "site-01"
		}

		tickInterval := trackTick
		if envTick := os.Getenv("TICK_INTERVAL"); envTick != "" {
			d, err := time.ParseDuration(envTick)
			if err != nil {
				return err
			}
			tickInterval = d
		}

		tr, err := tracker.NewTracker(siteID, cfg, writer, transWriter, tickInterval)
		if err != nil {
			return err
		}

		if env := os.Getenv("MQTT_BROKER"); env != "" {
			cfg.MQTT.Broker = env
		}
		if cfg.MQTT.Broker != "" {
			src, err := ingest.NewMQTTSource(cfg.MQTT, tr.Devices())
			if err != nil {
				return err
			}
			go func() {
				if err := src.Start(ctx); err != nil {
					log.Error("mqtt ingest failed", "err", err)
				}
			}()
		}

		srv := admin.NewServer(tr)
		go func() {
			if err := srv.Start(ctx, trackAdminAddr); err != nil && err != http.ErrServerClosed {
				log.Error("admin server failed", "err", err)
			}
		}()

		go tr.Run(ctx)

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs

		cancel()
		log.Info("tracking stopped")
		return nil
	},
}

func init() {
	trackCmd.Flags().BoolVar(&trackPrintOnly, "print-only", false, "Print positions to STDOUT instead of writing to DB")
	trackCmd.Flags().BoolVar(&trackTUI, "tui", false, "Render live positions in a terminal UI")
	trackCmd.Flags().StringVar(&trackConfigPath, "config", "config/tracking.yaml", "Path to tracking configuration YAML")
	trackCmd.Flags().StringVar(&trackSchemaPath, "schema", "schemas/tracking.cue", "Path to CUE schema file")
	trackCmd.Flags().DurationVar(&trackTick, "tick", time.Second, "Estimation tick interval (e.g. 500ms, 2s)")
	trackCmd.Flags().StringVar(&trackLogFile, "log-file", "", "Path to export position/transition logs (JSONL)")
	trackCmd.Flags().StringVar(&trackAdminAddr, "admin-addr", ":8080", "Listen address for the admin UI")
}
