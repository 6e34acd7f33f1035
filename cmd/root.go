package cmd

import (
	"fmt"
	"os"

	"github.com/robmorgan/downbeat/config"
	"github.com/robmorgan/downbeat/logger"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "downbeat",
	Short: "A metronome for rehearsing song forms",
	Long: `downbeat is a terminal metronome with a two bar count-off, accented downbeats,
per-beat and per-bar muting, and saved song form presets.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig returns the config file named by --config, or the defaults, and applies the log level.
func loadConfig() (config.DownbeatConfig, error) {
	var (
		cfg config.DownbeatConfig
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadDownbeatConfig(configPath)
	} else {
		cfg, err = config.NewDownbeatConfig()
	}
	if err != nil {
		return cfg, err
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	if level != "" {
		if err := logger.SetLevel(level); err != nil {
			return cfg, fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}

	return cfg, nil
}
