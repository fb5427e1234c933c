package main

import (
	"github.com/spf13/cobra"

	"indoortrack/internal/config"
	"indoortrack/internal/tracker"
)

var (
	replayInput     string
	replaySpeed     float64
	replayPrintOnly bool
	replayConfig    string
	replaySchema    string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a position log file",
	Long: "replay feeds position rows from a log file back into GreptimeDB or STDOUT.\n" +
		"With --config, zone transitions are re-derived from the replayed positions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := &config.TrackingConfig{}
		if replayConfig != "" {
			loaded, err := config.Load(replayConfig, replaySchema)
			if err != nil {
				return err
			}
			cfg = loaded
		}

		writer, transWriter, cleanup, err := newWriters(cfg, replayPrintOnly, false, "")
		if err != nil {
			return err
		}
		defer cleanup()

		rp := &tracker.Replayer{Writer: writer, Speed: replaySpeed}
		if replayConfig != "" {
			zones, err := tracker.ZoneTrackerFromConfig(cfg.Zones)
			if err != nil {
				return err
			}
			rp.Zones = zones
			rp.Transition = transWriter
		}
		return rp.RunFile(replayInput)
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to position log file")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier")
	replayCmd.Flags().BoolVar(&replayPrintOnly, "print-only", false, "Print positions to STDOUT instead of writing to DB")
	replayCmd.Flags().StringVar(&replayConfig, "config", "", "Deployment config used to re-derive zone transitions")
	replayCmd.Flags().StringVar(&replaySchema, "schema", "schemas/tracking.cue", "Path to CUE schema for --config")
	replayCmd.MarkFlagRequired("input")
}
