package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/fbhwc/internal/backend"
	"github.com/jmylchreest/fbhwc/internal/config"
	"github.com/jmylchreest/fbhwc/internal/hwc"
	"github.com/jmylchreest/fbhwc/internal/model"
)

var probeOpts struct {
	daemonConfig string
	backend      string
	fbDir        string
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Discover displays in-process, without the daemon",
	Long: `Run display discovery against the configured backend and print what
was found. Nothing is left open afterwards.

Examples:
  # Probe the framebuffer devices fbhwcd would use
  fbhwc probe

  # Probe a different node directory
  fbhwc probe --backend fbdev --fb-dir /dev/graphics

  # Try the simulated backend
  fbhwc probe --backend sim --format yaml`,
	Args: cobra.NoArgs,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)

	probeCmd.Flags().StringVar(&probeOpts.daemonConfig, "daemon-config", "",
		"Path to fbhwcd.toml (default: user config dir)")
	probeCmd.Flags().StringVar(&probeOpts.backend, "backend", "",
		"Override the configured backend (fbdev, randr, sim)")
	probeCmd.Flags().StringVar(&probeOpts.fbDir, "fb-dir", "",
		"Override the framebuffer node directory")
}

func runProbe(cmd *cobra.Command, args []string) error {
	dcfg, err := loadProbeConfig()
	if err != nil {
		return err
	}

	displays, err := probe(dcfg)
	if err != nil {
		return err
	}
	return formatter().FormatDisplays(os.Stdout, displays)
}

func loadProbeConfig() (*config.DaemonConfig, error) {
	var dcfg *config.DaemonConfig
	var err error
	if probeOpts.daemonConfig != "" {
		dcfg, err = config.LoadDaemonConfigFrom(probeOpts.daemonConfig)
	} else {
		dcfg, err = config.LoadDaemonConfig()
	}
	if err != nil {
		return nil, err
	}

	if probeOpts.backend != "" {
		dcfg.Device.Backend = probeOpts.backend
	}
	if probeOpts.fbDir != "" {
		dcfg.Device.FBDir = probeOpts.fbDir
	}
	if err := dcfg.Validate(); err != nil {
		return nil, err
	}
	return dcfg, nil
}

// probe opens every output, snapshots the displays and closes them again.
func probe(dcfg *config.DaemonConfig) ([]model.DisplaySummary, error) {
	be, err := backend.Open(dcfg, logger)
	if err != nil {
		return nil, err
	}
	defer be.Release()

	registry := hwc.NewRegistry(be.Device,
		hwc.WithLogger(logger),
		hwc.WithDPI(dcfg.Display.DpiX, dcfg.Display.DpiY),
	)
	if err := registry.DiscoverAndOpen(); err != nil {
		return nil, fmt.Errorf("discovery failed: %w", err)
	}

	displays := registry.Displays()
	if err := registry.Close(); err != nil {
		logger.Warn("failed to close displays", "error", err)
	}
	return displays, nil
}
