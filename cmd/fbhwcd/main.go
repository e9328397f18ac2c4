// Package main is the entry point for the fbhwcd display composer daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmylchreest/fbhwc/internal/backend"
	"github.com/jmylchreest/fbhwc/internal/config"
	"github.com/jmylchreest/fbhwc/internal/daemon"
	"github.com/jmylchreest/fbhwc/internal/dbus"
	"github.com/jmylchreest/fbhwc/internal/device/fbdev"
	"github.com/jmylchreest/fbhwc/internal/hotplug"
	"github.com/jmylchreest/fbhwc/internal/hwc"
	"github.com/jmylchreest/fbhwc/internal/store"
	"github.com/jmylchreest/fbhwc/internal/vsync"
)

var (
	// Build-time variables
	version = "dev"
)

func main() {
	configPath := flag.String("config", "", "Path to fbhwcd.toml (default: user config dir)")
	backendName := flag.String("backend", "", "Override the configured backend (fbdev, randr, sim)")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("fbhwcd version", version)
		os.Exit(0)
	}

	// Set up structured logging; the level follows the config file
	level := new(slog.LevelVar)
	level.Set(slog.LevelDebug)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *backendName, level, logger); err != nil {
		logger.Error("fbhwcd failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, backendName string, level *slog.LevelVar, logger *slog.Logger) error {
	logger.Info("starting fbhwcd", "version", version)

	if configPath == "" {
		path, err := config.DaemonConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
		configPath = path
	}

	cfg, err := config.LoadDaemonConfigFrom(configPath)
	if err != nil {
		return err
	}
	if backendName != "" {
		cfg.Device.Backend = backendName
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	applyLogLevel(level, cfg, logger)
	logger.Info("configuration loaded", "path", configPath, "backend", cfg.Device.Backend)

	be, err := backend.Open(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open backend: %w", err)
	}
	defer be.Release()

	registry := hwc.NewRegistry(be.Device,
		hwc.WithLogger(logger.With("component", "hwc")),
		hwc.WithDPI(cfg.Display.DpiX, cfg.Display.DpiY),
	)

	var vsyncSource *vsync.Source
	if cfg.Vsync.Software {
		vsyncSource = vsync.NewSource(registry.OnVsync, cfg.Vsync.DefaultPeriod.Duration(), logger.With("component", "vsync"))
		registry.SetVsyncSource(vsyncSource)
	}

	if err := registry.DiscoverAndOpen(); err != nil {
		return fmt.Errorf("display discovery failed: %w", err)
	}
	defer func() {
		// Close disables vsync before the source goes away
		if err := registry.Close(); err != nil {
			logger.Warn("error closing registry", "error", err)
		}
		if vsyncSource != nil {
			_ = vsyncSource.Close()
		}
	}()
	logger.Info("displays opened", "count", len(registry.Displays()))

	events := daemon.NewEventLog(cfg.Events.HistoryLength)
	if cfg.Events.Journal != "" {
		journal, err := openJournal(cfg.Events.Journal, cfg.Events.HistoryLength, events, logger)
		if err != nil {
			logger.Warn("event journal disabled", "path", cfg.Events.Journal, "error", err)
		} else {
			defer func() {
				events.SetJournal(nil)
				_ = journal.Close()
			}()
		}
	}
	bridge := daemon.NewBridge(events, nil, logger.With("component", "events"))

	if cfg.DBus.Enabled {
		server := dbus.NewComposerServer(registry, events, logger.With("component", "dbus"))
		if err := server.Start(cfg.DBus.Bus); err != nil {
			// The registry still works without the bus
			logger.Warn("failed to start D-Bus server", "error", err)
		} else {
			bridge.SetEmitter(server)
			defer func() { _ = server.Stop() }()
		}
	}

	// Delivers the connect hotplugs queued by discovery
	if err := bridge.Attach(registry); err != nil {
		return fmt.Errorf("failed to register callbacks: %w", err)
	}

	stopHotplug := startHotplug(ctx, cfg, be, registry, logger.With("component", "hotplug"))
	defer stopHotplug()

	configWatcher := daemon.NewConfigWatcher(configPath, cfg, logger.With("component", "config"),
		daemon.WithReloadHandler(func(newCfg *config.DaemonConfig) {
			applyLogLevel(level, newCfg, logger)
			events.SetCapacity(newCfg.Events.HistoryLength)
			if newCfg.Device.FBDir != cfg.Device.FBDir || newCfg.Display != cfg.Display ||
				newCfg.DBus != cfg.DBus || newCfg.Events.Journal != cfg.Events.Journal {
				logger.Warn("fb_dir, display, dbus and journal settings take effect on restart")
			}
		}),
	)
	if err := configWatcher.Start(); err != nil {
		// SIGHUP still reloads
		logger.Warn("failed to watch config file", "path", configPath, "error", err)
	}
	defer configWatcher.Stop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	logger.Info("fbhwcd ready")
	for {
		select {
		case <-hup:
			logger.Info("SIGHUP received, reloading config")
			_ = configWatcher.Reload()
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil
		}
	}
}

// startHotplug starts the live hotplug sources and returns their stop
// function. Framebuffer nodes are watched; other backends are polled.
func startHotplug(ctx context.Context, cfg *config.DaemonConfig, be *backend.Backend, registry *hwc.Registry, logger *slog.Logger) func() {
	var stops []func()

	if cfg.Hotplug.Watch && be.Dir != "" {
		watcher, err := hotplug.NewWatcher(be.Dir, fbdev.ParseNodeName, registry, logger)
		if err == nil {
			err = watcher.Start()
		}
		if err != nil {
			logger.Warn("failed to watch device nodes", "dir", be.Dir, "error", err)
		} else {
			stops = append(stops, func() { _ = watcher.Stop() })
		}
	}

	if cfg.Hotplug.Poll || be.Dir == "" {
		poller := hotplug.NewPoller(be.Device, registry, logger)
		poller.SetPollInterval(cfg.Hotplug.PollInterval.Duration())
		if err := poller.Start(ctx); err != nil {
			logger.Warn("failed to start hotplug poller", "error", err)
		} else {
			stops = append(stops, poller.Stop)
		}
	}

	return func() {
		for _, stop := range stops {
			stop()
		}
	}
}

// openJournal compacts the journal at path to the newest keep events,
// seeds events with them and starts journaling. A journal that cannot be
// read is recovered once.
func openJournal(path string, keep int, events *daemon.EventLog, logger *slog.Logger) (*store.Journal, error) {
	journal, err := store.OpenJournal(path)
	if err != nil {
		return nil, err
	}

	kept, err := journal.Compact(keep)
	if err != nil {
		_ = journal.Close()
		logger.Warn("event journal unreadable, recovering", "path", path, "error", err)
		if err := store.RecoverFromCorruption(path); err != nil {
			return nil, err
		}
		if journal, err = store.OpenJournal(path); err != nil {
			return nil, err
		}
		if kept, err = journal.Compact(keep); err != nil {
			_ = journal.Close()
			return nil, err
		}
	}

	events.Restore(kept)
	events.SetJournal(journal)
	logger.Info("event journal opened", "path", path, "restored", len(kept))
	return journal, nil
}

func applyLogLevel(level *slog.LevelVar, cfg *config.DaemonConfig, logger *slog.Logger) {
	l, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.Warn("invalid log level", "level", cfg.Log.Level, "error", err)
		return
	}
	level.Set(l)
}
