package hotplug

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports hotplug when device nodes appear in or vanish from a
// directory such as /dev/graphics.
type Watcher struct {
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	dir     string
	resolve Resolver
	target  Target

	done    chan struct{}
	exited  chan struct{}
	mu      sync.Mutex
	running bool
	stopped bool
}

// NewWatcher creates a watcher for dir. resolve maps node names to
// outputs; names it rejects are ignored.
func NewWatcher(dir string, resolve Resolver, target Target, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher: watcher,
		logger:  logger,
		dir:     dir,
		resolve: resolve,
		target:  target,
		done:    make(chan struct{}),
		exited:  make(chan struct{}),
	}, nil
}

// Start begins watching the directory.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}
	if err := w.watcher.Add(w.dir); err != nil {
		return err
	}
	w.running = true

	go w.watch()
	w.logger.Debug("hotplug watcher started", "dir", w.dir)
	return nil
}

func (w *Watcher) watch() {
	defer close(w.exited)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("hotplug watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	var present bool
	switch {
	case event.Has(fsnotify.Create):
		present = true
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		present = false
	default:
		return
	}

	name := filepath.Base(event.Name)
	id, ok := w.resolve(name)
	if !ok {
		return
	}

	dpy, ok := w.target.DisplayForOutput(id)
	if !ok {
		w.logger.Info("ignoring hotplug for output without a display", "node", name, "present", present)
		return
	}

	conn := connectionFor(present)
	w.logger.Debug("device node hotplug", "node", name, "dpy", uint64(dpy), "connection", conn.String())
	w.target.OnHotplug(dpy, conn)
}

// Stop stops the watcher and waits for the watch loop to exit. A stopped
// watcher cannot be restarted.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true

	wasRunning := w.running
	w.running = false
	close(w.done)
	err := w.watcher.Close()
	if wasRunning {
		<-w.exited
	}
	return err
}
