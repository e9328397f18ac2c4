package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/fbhwc/internal/model"
)

var powerOpts struct {
	stdin bool // Read display handles from stdin
}

var powerCmd = &cobra.Command{
	Use:   "power <mode> [dpy...]",
	Short: "Set display power mode",
	Long: `Set the power mode (on, off, doze, doze-suspend) of one or more displays.

Display handles can be provided as positional arguments or via stdin (--stdin).

Examples:
  # Blank display 0
  fbhwc power off 0

  # Unblank every display
  fbhwc displays --format ids | fbhwc power on --stdin`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPower,
}

func init() {
	rootCmd.AddCommand(powerCmd)

	powerCmd.Flags().BoolVar(&powerOpts.stdin, "stdin", false,
		"Read display handles from stdin (one per line)")
}

func runPower(cmd *cobra.Command, args []string) error {
	mode, err := model.ParsePowerMode(args[0])
	if err != nil {
		return err
	}

	handles := args[1:]
	if powerOpts.stdin {
		stdinHandles, err := readHandles(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read from stdin: %w", err)
		}
		handles = append(handles, stdinHandles...)
	}
	if len(handles) == 0 {
		return fmt.Errorf("no display handles provided")
	}

	displays, err := parseDisplays(handles)
	if err != nil {
		return err
	}

	client, err := dial()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	var failCount int
	for _, dpy := range displays {
		if err := client.SetPowerMode(dpy, mode); err != nil {
			logger.Warn("failed to set power mode", "dpy", uint64(dpy), "error", err)
			failCount++
		}
	}

	if failCount > 0 {
		return fmt.Errorf("power %s: %d of %d displays failed", mode, failCount, len(displays))
	}
	return nil
}

// readHandles reads one display handle per line, skipping blank lines.
// Only the first field of each line is used, so dmenu output works too.
func readHandles(r io.Reader) ([]string, error) {
	var handles []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		handles = append(handles, fields[0])
	}
	return handles, scanner.Err()
}

// parseDisplays parses and de-duplicates display handles, keeping order.
func parseDisplays(args []string) ([]model.DisplayHandle, error) {
	seen := make(map[model.DisplayHandle]bool)
	var out []model.DisplayHandle
	for _, arg := range args {
		dpy, err := parseDisplay(arg)
		if err != nil {
			return nil, err
		}
		if !seen[dpy] {
			seen[dpy] = true
			out = append(out, dpy)
		}
	}
	return out, nil
}
