package hotplug

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/jmylchreest/fbhwc/internal/device"
)

// Enumerator lists the outputs currently present.
type Enumerator interface {
	Enumerate() ([]device.OutputID, error)
}

// Poller detects hotplug by diffing successive output enumerations. It is
// the fallback for backends without device nodes to watch.
type Poller struct {
	mu     sync.RWMutex
	logger *slog.Logger

	dev    Enumerator
	target Target

	// outputs seen in the last successful enumeration
	present map[device.OutputID]bool

	pollInterval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}

	running bool
}

// NewPoller creates a poller feeding target from dev.
func NewPoller(dev Enumerator, target Target, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		logger:       logger,
		dev:          dev,
		target:       target,
		present:      make(map[device.OutputID]bool),
		pollInterval: 2 * time.Second,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// SetPollInterval sets how often outputs are enumerated.
func (p *Poller) SetPollInterval(interval time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if interval > 0 {
		p.pollInterval = interval
	}
}

// Start records the current outputs as the baseline and begins polling.
// Outputs present at Start were reported by discovery and are not
// reported again.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}

	ids, err := p.dev.Enumerate()
	if err != nil {
		p.mu.Unlock()
		return err
	}
	p.present = make(map[device.OutputID]bool, len(ids))
	for _, id := range ids {
		p.present[id] = true
	}

	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	interval := p.pollInterval
	p.mu.Unlock()

	go p.pollLoop(ctx, interval)

	p.logger.Debug("hotplug poller started", "outputs", len(ids), "interval", interval)
	return nil
}

// Stop stops polling and waits for the loop to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopCh)
	p.mu.Unlock()

	<-p.doneCh
	p.logger.Debug("hotplug poller stopped")
}

func (p *Poller) pollLoop(ctx context.Context, interval time.Duration) {
	defer close(p.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.Poll()
		}
	}
}

// Poll enumerates once and reports every output whose presence changed
// since the previous enumeration. Outputs without a display are ignored.
func (p *Poller) Poll() {
	ids, err := p.dev.Enumerate()
	if err != nil {
		p.logger.Debug("failed to enumerate outputs", "error", err)
		return
	}

	current := make(map[device.OutputID]bool, len(ids))
	for _, id := range ids {
		current[id] = true
	}

	p.mu.Lock()
	var changed []device.OutputID
	for id := range p.present {
		if !current[id] {
			changed = append(changed, id)
		}
	}
	for id := range current {
		if !p.present[id] {
			changed = append(changed, id)
		}
	}
	p.present = current
	p.mu.Unlock()

	slices.Sort(changed)
	for _, id := range changed {
		p.report(id, current[id])
	}
}

func (p *Poller) report(id device.OutputID, present bool) {
	dpy, ok := p.target.DisplayForOutput(id)
	if !ok {
		p.logger.Info("ignoring hotplug for output without a display", "output", int(id), "present", present)
		return
	}
	conn := connectionFor(present)
	p.logger.Debug("output hotplug", "output", int(id), "dpy", uint64(dpy), "connection", conn.String())
	p.target.OnHotplug(dpy, conn)
}
