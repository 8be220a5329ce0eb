package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/arbiter"
	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/event"
	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/logging"
	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/metrics"
	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/platform"
	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/profile"
	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/session"
	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/sweep"
	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/uclamp"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the boost daemon",
	RunE:  runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := profile.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logging.NewLogger(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer log.Close()

	store := profile.NewStore(&cfg.Profile)
	store.Watch(log)

	bus := event.NewBus()
	collector := metrics.NewCollector(bus)
	collector.Register()
	defer collector.Unregister()

	mgr := arbiter.NewManager(arbiter.Config{
		Setter:   uclamp.NewDefaultSetter(),
		Hints:    platform.NewConfigSink(cfg.Hints.Supported, log),
		Profiles: store,
		Bus:      bus,
		Logger:   log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mgr.Start(ctx)
	defer mgr.Stop()

	// The registry is filled by whatever front end creates sessions;
	// the simulate command wires one up the same way.
	registry := session.NewRegistry()
	monitor := sweep.NewMonitor(registry, bus, log, sweep.DefaultInterval)
	go monitor.Run(ctx)

	var srv interface{ Shutdown(context.Context) error }
	if cfg.Metrics.Enabled {
		srv = metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path)
		log.Info("metrics server started", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
	}

	log.Info("boostd started", "profile", cfg.Profile.Name)
	<-ctx.Done()
	log.Info("shutting down")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("metrics server shutdown failed", "error", err)
		}
	}
	return nil
}
