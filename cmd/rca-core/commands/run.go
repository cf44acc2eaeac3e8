package commands

import (
	"context"
	"net/http"
	"time"

	"github.com/kcalliga/rca-core/internal/config"
	"github.com/kcalliga/rca-core/internal/driver"
	"github.com/kcalliga/rca-core/internal/logging"
	"github.com/kcalliga/rca-core/internal/tracing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var (
	eventsPath    string
	snapshotPath  string
	rulesPath     string
	outputDir     string
	windowFlag    time.Duration
	keyColumns    []string
	cacheCapacity int
	parallelism   int
	configPath    string

	metricsAddr        string
	tracingEnabled     bool
	tracingEndpoint    string
	tracingTLSCAPath   string
	tracingTLSInsecure bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one batch RCA step and write incident files",
	Run:   runRun,
}

func init() {
	addDriverFlags(runCmd)
}

func addDriverFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&eventsPath, "events", "", "Path to the event table (CSV or .parquet)")
	cmd.Flags().StringVar(&snapshotPath, "snapshot", "", "Path to the cluster topology snapshot JSON")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "Path to the root-cause rule file (YAML)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "./incidents", "Directory to write incident JSON files to")
	cmd.Flags().DurationVar(&windowFlag, "window", 10*time.Minute, "Episode window size")
	cmd.Flags().StringSliceVar(&keyColumns, "key-columns", []string{"namespace", "pod", "node"}, "Columns used to group events into episodes")
	cmd.Flags().IntVar(&cacheCapacity, "cache-capacity", 256, "Topology query cache capacity (0 disables caching)")
	cmd.Flags().IntVar(&parallelism, "parallelism", 0, "Max concurrent rule evaluations (0 = GOMAXPROCS)")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML config file overriding defaults")

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Address to serve Prometheus metrics on (empty disables)")
	cmd.Flags().BoolVar(&tracingEnabled, "tracing-enabled", false, "Enable OpenTelemetry tracing")
	cmd.Flags().StringVar(&tracingEndpoint, "tracing-endpoint", "", "OTLP gRPC endpoint for traces")
	cmd.Flags().StringVar(&tracingTLSCAPath, "tracing-tls-ca", "", "Path to CA certificate for TLS verification")
	cmd.Flags().BoolVar(&tracingTLSInsecure, "tracing-tls-insecure", false, "Skip TLS certificate verification (testing only)")
}

func runRun(cmd *cobra.Command, args []string) {
	cfg := loadEffectiveConfig()

	if err := setupLog(logLevelFlags); err != nil {
		HandleError(err, "Failed to setup logging")
	}
	logger := logging.GetLogger("cmd.run")
	logger.Info("Starting rca-core v%s", Version)

	tracingProvider, err := tracing.NewTracingProvider(tracing.Config{
		Enabled:     cfg.TracingEnabled,
		Endpoint:    cfg.TracingEndpoint,
		TLSCAPath:   cfg.TracingTLSCAPath,
		TLSInsecure: cfg.TracingTLSInsecure,
	})
	if err != nil {
		logger.Warn("Failed to initialize tracing (continuing without tracing): %v", err)
	} else {
		ctx := context.Background()
		if err := tracingProvider.Start(ctx); err != nil {
			logger.Warn("Failed to start tracing provider: %v", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tracingProvider.Stop(shutdownCtx)
		}()
	}

	registry := prometheus.NewRegistry()
	metrics := driver.NewMetrics(registry)
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadTimeout: 15 * time.Second, WriteTimeout: 15 * time.Second}
		go func() {
			logger.Info("Serving metrics on %s", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server failed: %v", err)
			}
		}()
	}

	opts := driverOptionsFromFlags(cfg)
	result, err := driver.RunStep(context.Background(), opts, metrics)
	if err != nil {
		HandleError(err, "Run failed")
	}
	logger.Info("Run complete: %d episode(s), %d incident(s) written", result.EpisodesBuilt, result.IncidentsWritten)
}

func loadEffectiveConfig() *config.Config {
	var cfg *config.Config
	if configPath != "" {
		loaded, err := config.LoadFile(configPath)
		if err != nil {
			HandleError(err, "Failed to load config file")
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if cmdFlagChanged("metrics-addr") {
		cfg.MetricsAddr = metricsAddr
	}
	if cmdFlagChanged("tracing-enabled") {
		cfg.TracingEnabled = tracingEnabled
	}
	if cmdFlagChanged("tracing-endpoint") {
		cfg.TracingEndpoint = tracingEndpoint
	}
	if cmdFlagChanged("tracing-tls-ca") {
		cfg.TracingTLSCAPath = tracingTLSCAPath
	}
	if cmdFlagChanged("tracing-tls-insecure") {
		cfg.TracingTLSInsecure = tracingTLSInsecure
	}
	if cmdFlagChanged("window") {
		cfg.Window = windowFlag
	}
	if cmdFlagChanged("key-columns") {
		cfg.KeyColumns = keyColumns
	}
	if cmdFlagChanged("output-dir") {
		cfg.OutputDir = outputDir
	}
	if configPath != "" && !rootCmd.PersistentFlags().Changed("log-level") {
		logLevelFlags = cfg.LogLevelFlags
	}

	if err := cfg.Validate(); err != nil {
		HandleError(err, "Configuration error")
	}
	return cfg
}

// cmdFlagChanged reports whether a flag was explicitly set on runCmd or watchCmd.
func cmdFlagChanged(name string) bool {
	if f := runCmd.Flags().Lookup(name); f != nil && f.Changed {
		return true
	}
	if f := watchCmd.Flags().Lookup(name); f != nil && f.Changed {
		return true
	}
	return false
}

func driverOptionsFromFlags(cfg *config.Config) driver.Options {
	out, window, keys := outputDir, windowFlag, keyColumns
	if configPath != "" {
		// cfg already holds explicitly set flags on top of the file's values.
		out, window, keys = cfg.OutputDir, cfg.Window, cfg.KeyColumns
	}
	return driver.Options{
		EventsPath:    eventsPath,
		SnapshotPath:  snapshotPath,
		RulesPath:     rulesPath,
		OutputDir:     out,
		Window:        window,
		KeyColumns:    keys,
		CacheCapacity: cacheCapacity,
		Parallelism:   parallelism,
	}
}
