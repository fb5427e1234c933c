package main

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"indoortrack/internal/config"
	"indoortrack/internal/tracker"
)

// newWriters sets up position and transition writers based on flags, config,
// and env vars. It returns the writers and a cleanup function to close any
// resources.
func newWriters(cfg *config.TrackingConfig, printOnly, tui bool, logFile string) (tracker.PositionWriter, tracker.TransitionWriter, func(), error) {
	var posWriters []tracker.PositionWriter
	var transWriters []tracker.TransitionWriter
	var closers []func()

	base, err := baseWriter(cfg, printOnly, tui)
	if err != nil {
		return nil, nil, nil, err
	}
	posWriters = append(posWriters, base.pos)
	if base.trans != nil {
		transWriters = append(transWriters, base.trans)
	}
	if base.close != nil {
		closers = append(closers, base.close)
	}

	if brokers := kafkaBrokers(cfg); len(brokers) > 0 {
		topic := os.Getenv("KAFKA_POSITION_TOPIC")
		if topic == "" {
			topic = "device-positions"
		}
		kw := tracker.NewKafkaWriter(brokers, topic, cfg.Kafka.Topic)
		posWriters = append(posWriters, kw)
		transWriters = append(transWriters, kw)
		closers = append(closers, func() { kw.Close() })
	}

	if logFile != "" {
		fw, err := tracker.NewFileWriter(logFile, logFile+".transitions")
		if err != nil {
			return nil, nil, nil, err
		}
		posWriters = append(posWriters, fw)
		transWriters = append(transWriters, fw)
		closers = append(closers, func() { fw.Close() })
	}

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	if len(posWriters) == 1 && len(transWriters) <= 1 {
		var tw tracker.TransitionWriter
		if len(transWriters) == 1 {
			tw = transWriters[0]
		}
		return posWriters[0], tw, cleanup, nil
	}
	mw := tracker.NewMultiWriter(posWriters, transWriters)
	return mw, mw, cleanup, nil
}

type baseWriters struct {
	pos   tracker.PositionWriter
	trans tracker.TransitionWriter
	close func()
}

// baseWriter chooses the primary sink: TUI, GreptimeDB, or STDOUT JSON.
func baseWriter(cfg *config.TrackingConfig, printOnly, tui bool) (baseWriters, error) {
	if tui {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return baseWriters{}, fmt.Errorf("--tui requires an interactive terminal")
		}
		tw := tracker.NewTUIWriter(cfg)
		return baseWriters{pos: tw, trans: tw, close: func() { tw.Close() }}, nil
	}

	if printOnly || os.Getenv("GREPTIMEDB_ENDPOINT") == "" {
		w := tracker.NewJSONStdoutWriter()
		return baseWriters{pos: w, trans: w}, nil
	}

	endpoint := os.Getenv("GREPTIMEDB_ENDPOINT")
	database := os.Getenv("GREPTIMEDB_DATABASE")
	if database == "" {
		database = "public"
	}
	w, err := tracker.NewGreptimeDBWriter(endpoint, database)
	if err != nil {
		return baseWriters{}, err
	}
	return baseWriters{pos: w, trans: w}, nil
}

// kafkaBrokers merges config and the KAFKA_BROKERS env override.
func kafkaBrokers(cfg *config.TrackingConfig) []string {
	if env := os.Getenv("KAFKA_BROKERS"); env != "" {
		return strings.Split(env, ",")
	}
	return cfg.Kafka.Brokers
}

