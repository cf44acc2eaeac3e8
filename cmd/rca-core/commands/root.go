package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/kcalliga/rca-core/internal/logging"
	"github.com/spf13/cobra"
)

const Version = "0.1.0"

var logLevelFlags []string // Supports multiple --log-level flags

var rootCmd = &cobra.Command{
	Use:   "rca-core",
	Short: "rca-core - root cause analysis over cluster topology and events",
	Long: `rca-core builds a cluster topology graph, groups events into
time-windowed episodes, and scores candidate root causes against a
declarative rule set, writing one incident record per episode.`,
	Version: Version,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&logLevelFlags, "log-level",
		[]string{"info"},
		"Log level for packages. Use 'default=level' for default, or 'package.name=level' for per-package.\n"+
			"Examples: --log-level debug (all), --log-level rcarules=debug --log-level topology=warn")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(mcpCmd)
}

// HandleError prints error and exits.
func HandleError(err error, msg string) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
		os.Exit(1)
	}
}

// setupLog initializes the logging system with parsed log level flags.
// Priority: CLI flags > environment variables > Initialize default.
func setupLog(flags []string) error {
	defaultLevel, packageLevels, err := parseLogLevelFlags(flags)
	if err != nil {
		return err
	}
	return logging.Initialize(defaultLevel, packageLevels)
}

// parseLogLevelFlags parses CLI flags and environment variables.
//
// CLI format: ["debug"], ["default=info", "rcarules=debug"], or ["info"]
// Env vars: LOG_LEVEL_RCARULES=debug (package name uppercased, dots to underscores)
func parseLogLevelFlags(flags []string) (string, map[string]string, error) {
	result := make(map[string]string)

	for _, envPair := range os.Environ() {
		if strings.HasPrefix(envPair, "LOG_LEVEL_") {
			parts := strings.SplitN(envPair, "=", 2)
			if len(parts) != 2 {
				continue
			}
			result[convertEnvKeyToPackageName(parts[0])] = parts[1]
		}
	}

	for _, flag := range flags {
		if !strings.Contains(flag, "=") {
			result["default"] = flag
			continue
		}
		parts := strings.SplitN(flag, "=", 2)
		if len(parts) == 2 {
			result[parts[0]] = parts[1]
		}
	}

	defaultLevel := "info"
	if level, exists := result["default"]; exists {
		defaultLevel = level
		delete(result, "default")
	}

	if err := validateLogLevel(defaultLevel); err != nil {
		return "", nil, err
	}
	for pkg, level := range result {
		if err := validateLogLevel(level); err != nil {
			return "", nil, fmt.Errorf("invalid log level for package %q: %v", pkg, err)
		}
	}

	return defaultLevel, result, nil
}

func convertEnvKeyToPackageName(envKey string) string {
	name := strings.TrimPrefix(envKey, "LOG_LEVEL_")
	return strings.ToLower(strings.ReplaceAll(name, "_", "."))
}

func validateLogLevel(level string) error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true,
	}
	if !validLevels[strings.ToLower(level)] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error, fatal)", level)
	}
	return nil
}
