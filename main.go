// Command vivarium runs the artificial-life simulation headless: it loads
// configuration, advances the world tick by tick, and writes window
// statistics and a final world snapshot.
package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pthm-cable/vivarium/config"
	"github.com/pthm-cable/vivarium/sim"
	"github.com/pthm-cable/vivarium/telemetry"
)

func main() {
	configPath := flag.String("config", "", "config YAML file (empty = embedded defaults)")
	seed := flag.Int64("seed", 42, "RNG seed")
	maxTicks := flag.Int64("max-ticks", 120_000, "ticks to simulate")
	statsWindow := flag.Float64("stats-window", 0, "stats window seconds (0 = from config)")
	outputDir := flag.String("output-dir", "", "output directory (empty = no files)")
	logStats := flag.Bool("log-stats", true, "log window stats")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}
	if *statsWindow > 0 {
		cfg.Telemetry.StatsWindow = *statsWindow
	}

	om, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		logger.Error("output setup failed", "error", err)
		os.Exit(1)
	}
	defer om.Close()
	if err := om.WriteConfig(cfg); err != nil {
		logger.Error("writing config copy failed", "error", err)
	}

	s, err := sim.New(cfg, *seed, logger)
	if err != nil {
		logger.Error("simulation setup failed", "error", err)
		os.Exit(1)
	}

	windowTicks := int64(cfg.Telemetry.StatsWindow / cfg.World.DT)
	if windowTicks < 1 {
		windowTicks = 1
	}

	start := time.Now()
	for s.Tick() < *maxTicks {
		s.Step()

		if s.Tick()%windowTicks == 0 {
			stats := s.Collector().FlushWindow(s.Tick(), s.SimTime(), s.SamplePopulation())
			if err := om.WriteTelemetry(stats); err != nil {
				logger.Error("telemetry write failed", "error", err)
			}
			if *logStats {
				stats.LogStats()
			}
		}

		if s.Population() == 0 {
			logger.Warn("population extinct", "tick", s.Tick(), "sim_time", s.SimTime())
			break
		}
	}

	if om.Dir() != "" {
		snapPath := filepath.Join(om.Dir(), "snapshot.json")
		if err := telemetry.SaveJSON(snapPath, s.Snapshot()); err != nil {
			logger.Error("snapshot write failed", "error", err)
		}
	}

	logger.Info("run complete",
		"ticks", s.Tick(),
		"sim_time", s.SimTime(),
		"population", s.Population(),
		"wall_time", time.Since(start).Round(time.Millisecond).String(),
	)
}
