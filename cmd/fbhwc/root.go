// Package main provides the CLI entrypoint for fbhwc.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/fbhwc/internal/adapter/output"
	"github.com/jmylchreest/fbhwc/internal/config"
	"github.com/jmylchreest/fbhwc/internal/dbus"
	"github.com/jmylchreest/fbhwc/internal/model"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	cfg        *config.Config
	globalOpts struct {
		verbose    bool
		configPath string
		bus        string
		format     string
		noColor    bool
	}
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "fbhwc",
	Short: "Inspect and control the fbhwcd display composer",
	Long: `fbhwc talks to a running fbhwcd daemon over D-Bus.

It lists displays and their configs, changes power, vsync and active
config, and follows hotplug, vsync and refresh events.

The probe command runs display discovery in-process without a daemon.`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Setup logging
		setupLogger()

		// Load configuration
		var err error
		cfg, err = config.LoadConfig(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if err := cfg.Apply(config.Overrides{
			Bus:     globalOpts.bus,
			Format:  globalOpts.format,
			NoColor: globalOpts.noColor,
		}); err != nil {
			return err
		}
		if !slices.Contains(output.ValidFormats(), output.FormatType(cfg.Output.Format)) {
			return fmt.Errorf("invalid format %q, must be one of: %v", cfg.Output.Format, output.ValidFormats())
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/fbhwc/config.toml)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.bus, "bus", "",
		"Message bus the daemon is on (session, system)")
	rootCmd.PersistentFlags().StringVarP(&globalOpts.format, "format", "f", "",
		"Output format (plain, json, yaml, ids, dmenu)")
	rootCmd.PersistentFlags().BoolVar(&globalOpts.noColor, "no-color", false,
		"Disable styled output")
}

// setupLogger configures the global slog logger.
func setupLogger() {
	level := slog.LevelWarn
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(os.Stderr, opts)
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// dial connects to the daemon on the configured bus.
func dial() (*dbus.Client, error) {
	client, err := dbus.Dial(cfg.DBus.Bus)
	if err != nil {
		return nil, fmt.Errorf("is fbhwcd running? %w", err)
	}
	return client, nil
}

// formatter returns the configured output formatter.
func formatter() output.Formatter {
	opts := output.DefaultFormatterOptions()
	opts.Color = cfg.Output.Color
	return output.NewFormatter(output.FormatType(cfg.Output.Format), opts)
}

// parseDisplay parses a display handle argument.
func parseDisplay(arg string) (model.DisplayHandle, error) {
	v, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid display handle %q", arg)
	}
	return model.DisplayHandle(v), nil
}
