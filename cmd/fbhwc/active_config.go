package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/fbhwc/internal/model"
)

var activeConfigCmd = &cobra.Command{
	Use:   "active-config <dpy> [index]",
	Short: "Show or select the active config",
	Long: `Show the active config index of a display, or select one.

Examples:
  fbhwc active-config 0
  fbhwc active-config 0 1`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runActiveConfig,
}

func init() {
	rootCmd.AddCommand(activeConfigCmd)
}

func runActiveConfig(cmd *cobra.Command, args []string) error {
	dpy, err := parseDisplay(args[0])
	if err != nil {
		return err
	}

	client, err := dial()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	if len(args) == 1 {
		idx, err := client.ActiveConfig(dpy)
		if err != nil {
			return err
		}
		fmt.Println(idx)
		return nil
	}

	v, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid config index %q", args[1])
	}
	if err := client.SetActiveConfig(dpy, model.ConfigIndex(v)); err != nil {
		return err
	}
	logger.Debug("active config set", "dpy", uint64(dpy), "config", v)
	return nil
}
