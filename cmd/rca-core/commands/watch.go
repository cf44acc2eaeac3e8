package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kcalliga/rca-core/internal/driver"
	"github.com/kcalliga/rca-core/internal/logging"
	"github.com/kcalliga/rca-core/internal/rcarules"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the rule file and re-run the batch step whenever it changes",
	Run:   runWatch,
}

func init() {
	addDriverFlags(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) {
	cfg := loadEffectiveConfig()

	if err := setupLog(logLevelFlags); err != nil {
		HandleError(err, "Failed to setup logging")
	}
	logger := logging.GetLogger("cmd.watch")

	if rulesPath == "" {
		HandleError(errRequiredFlag("rules"), "Missing required flag")
	}

	registry := prometheus.NewRegistry()
	metrics := driver.NewMetrics(registry)
	opts := driverOptionsFromFlags(cfg)

	run := func([]rcarules.Rule) error {
		result, err := driver.RunStep(context.Background(), opts, metrics)
		if err != nil {
			logger.Error("Run failed: %v", err)
			return err
		}
		logger.Info("Run complete: %d episode(s), %d incident(s) written", result.EpisodesBuilt, result.IncidentsWritten)
		return nil
	}

	watcher, err := rcarules.NewWatcher(rcarules.WatcherConfig{FilePath: rulesPath}, run)
	if err != nil {
		HandleError(err, "Failed to create rule watcher")
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := watcher.Start(ctx); err != nil {
		HandleError(err, "Failed to start rule watcher")
	}
	logger.Info("Watching %s for rule changes", rulesPath)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("Shutdown signal received")
	cancel()
	watcher.Stop()
}

func errRequiredFlag(name string) error {
	return &requiredFlagError{name: name}
}

type requiredFlagError struct{ name string }

func (e *requiredFlagError) Error() string {
	return "missing required --" + e.name + " flag"
}
