package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/fbhwc/internal/adapter/input"
	"github.com/jmylchreest/fbhwc/internal/core"
	"github.com/jmylchreest/fbhwc/internal/model"
)

type eventsOptions struct {
	limit   int
	display int64
	kind    string
	since   string
	filter  string
	sort    string
	source  string
}

var eventsOpts eventsOptions

var eventsCmd = &cobra.Command{
	Use:   "events [id]",
	Short: "Show recent events recorded by the daemon",
	Long: `Show the daemon's recent event history, oldest first.

Vsync events are recorded at a sampled rate, not every frame. Passing an
event ID (or a unique prefix of one) shows only that event.

Events come from the running daemon unless --source names a journal file
or "-" for JSON, YAML or JSONL on standard input.

Filter expressions are comma-separated conditions that must all match:
  display=1        kind!=vsync       detail=disconnected
  time>10m         kind~=^(hot|ref)  display>=1

Examples:
  # Last 10 events
  fbhwc events -n 10

  # Hotplugs of display 1 in the last hour
  fbhwc events --display 1 --kind hotplug --since 1h

  # Disconnects, newest first
  fbhwc events --filter detail=disconnected --sort time:desc

  # Read the journal while the daemon is stopped
  fbhwc events --source /var/lib/fbhwc/events.jsonl`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEvents,
}

func init() {
	rootCmd.AddCommand(eventsCmd)

	eventsCmd.Flags().IntVarP(&eventsOpts.limit, "limit", "n", 0,
		"Maximum number of events to show (0=unlimited)")
	eventsCmd.Flags().Int64Var(&eventsOpts.display, "display", -1,
		"Only show events of this display")
	eventsCmd.Flags().StringVar(&eventsOpts.kind, "kind", "",
		"Only show events of this kind (hotplug, vsync, refresh)")
	eventsCmd.Flags().StringVarP(&eventsOpts.since, "since", "s", "0",
		"Only show events newer than this (e.g. 30m, 48h, 7d; 0=all)")
	eventsCmd.Flags().StringVar(&eventsOpts.filter, "filter", "",
		"Filter expression (e.g. \"kind=hotplug,display>0\")")
	eventsCmd.Flags().StringVar(&eventsOpts.sort, "sort", "time:asc",
		"Sort field and order (time, display, kind):(asc, desc)")
	eventsCmd.Flags().StringVar(&eventsOpts.source, "source", "daemon",
		"Where events come from: daemon, - (stdin) or a journal file")
}

func runEvents(cmd *cobra.Command, args []string) error {
	adapter := input.NewAdapter(eventsOpts.source, cfg.DBus.Bus)
	logger.Debug("importing events", "source", adapter.Name())

	events, err := adapter.Import(cmd.Context())
	if err != nil {
		return err
	}

	if len(args) == 1 {
		ev, err := core.LookupByID(events, args[0])
		if err != nil {
			return err
		}
		if ev == nil {
			return fmt.Errorf("no event with id %q", args[0])
		}
		return formatter().FormatEvents(os.Stdout, []model.Event{*ev})
	}

	events, err = queryEvents(events, eventsOpts)
	if err != nil {
		return err
	}
	return formatter().FormatEvents(os.Stdout, events)
}

// queryEvents applies the events command's filters, limit, and sort order.
func queryEvents(events []model.Event, opts eventsOptions) ([]model.Event, error) {
	var filterOpts core.FilterOptions

	since, err := core.ParseDuration(opts.since)
	if err != nil {
		return nil, fmt.Errorf("invalid --since: %w", err)
	}
	filterOpts.Since = since

	if opts.display >= 0 {
		dpy := model.DisplayHandle(opts.display)
		filterOpts.Display = &dpy
	}
	if opts.kind != "" {
		if filterOpts.Kind, err = model.ParseCallbackKind(opts.kind); err != nil {
			return nil, err
		}
	}

	expr, err := core.ParseFilter(opts.filter)
	if err != nil {
		return nil, fmt.Errorf("invalid --filter: %w", err)
	}

	sortOpts, err := core.ParseSort(opts.sort)
	if err != nil {
		return nil, fmt.Errorf("invalid --sort: %w", err)
	}

	// Match the expression before limiting so -n counts matching events.
	events = core.FilterWithExpr(events, expr)
	filterOpts.Limit = opts.limit
	events = core.Filter(events, filterOpts)
	core.Sort(events, sortOpts)
	return events, nil
}
