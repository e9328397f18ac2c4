package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/fbhwc/internal/dbus"
	"github.com/jmylchreest/fbhwc/internal/model"
)

var monitorOpts struct {
	vsync bool
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Follow hotplug, refresh and vsync events",
	Long: `Print the daemon's event signals as they arrive, until interrupted.

Vsync signals arrive at the refresh rate and are hidden unless --vsync
is given (or [monitor] vsync is set in the config file).`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().BoolVar(&monitorOpts.vsync, "vsync", false,
		"Also print vsync signals")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	showVsync := monitorOpts.vsync || cfg.Monitor.Vsync
	f := formatter()

	m := dbus.NewMonitor(logger)
	m.SetEventHandler(func(ev model.Event) {
		if ev.Kind == model.CallbackVsync && !showVsync {
			return
		}
		if err := f.FormatEvents(os.Stdout, []model.Event{ev}); err != nil {
			logger.Warn("failed to print event", "error", err)
		}
	})

	if err := m.Start(cfg.DBus.Bus); err != nil {
		return err
	}
	defer func() { _ = m.Stop() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
	case <-m.Done():
	}
	return nil
}
