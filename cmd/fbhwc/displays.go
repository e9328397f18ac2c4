package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/fbhwc/internal/model"
)

var displaysCmd = &cobra.Command{
	Use:   "displays [dpy]",
	Short: "List displays",
	Long: `List the displays the daemon has opened, with their configs.

Examples:
  # Show every display
  fbhwc displays

  # Show one display as JSON
  fbhwc displays 0 --format json

  # Handles only, for piping
  fbhwc displays --format ids`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDisplays,
}

func init() {
	rootCmd.AddCommand(displaysCmd)
}

func runDisplays(cmd *cobra.Command, args []string) error {
	client, err := dial()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	displays, err := client.Displays()
	if err != nil {
		return err
	}

	if len(args) > 0 {
		dpy, err := parseDisplay(args[0])
		if err != nil {
			return err
		}
		displays = filterDisplays(displays, dpy)
		if len(displays) == 0 {
			return fmt.Errorf("display %d not found", dpy)
		}
	}

	return formatter().FormatDisplays(os.Stdout, displays)
}

func filterDisplays(displays []model.DisplaySummary, dpy model.DisplayHandle) []model.DisplaySummary {
	for _, d := range displays {
		if d.ID == dpy {
			return []model.DisplaySummary{d}
		}
	}
	return nil
}
