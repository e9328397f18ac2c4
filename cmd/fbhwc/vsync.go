package main

import (
	"github.com/spf13/cobra"

	"github.com/jmylchreest/fbhwc/internal/model"
)

var vsyncCmd = &cobra.Command{
	Use:   "vsync <dpy> <on|off>",
	Short: "Enable or disable vsync events for a display",
	Long: `Enable or disable vsync event delivery for a display.

Follow the events with 'fbhwc monitor --vsync'.`,
	Args: cobra.ExactArgs(2),
	RunE: runVsync,
}

func init() {
	rootCmd.AddCommand(vsyncCmd)
}

func runVsync(cmd *cobra.Command, args []string) error {
	dpy, err := parseDisplay(args[0])
	if err != nil {
		return err
	}
	state, err := model.ParseVsync(args[1])
	if err != nil {
		return err
	}

	client, err := dial()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	return client.SetVsyncEnabled(dpy, state)
}
