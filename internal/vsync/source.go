// Package vsync provides a software vertical-sync source for outputs that
// cannot deliver hardware vsync interrupts.
package vsync

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/jmylchreest/fbhwc/internal/model"
)

// DefaultPeriod is used when a display reports no vsync period.
const DefaultPeriod = 16666667 * time.Nanosecond

// ErrClosed is returned when enabling vsync on a closed source.
var ErrClosed = errors.New("vsync source closed")

// Sink receives vsync ticks. Registry.OnVsync is the usual sink.
type Sink func(dpy model.DisplayHandle, timestampNs int64)

// Source runs one ticker goroutine per enabled display.
//
// SetVsyncEnabled never waits for a ticker goroutine, so it is safe to
// call while holding a lock the sink also takes. As a consequence a tick
// already past its stop check may still reach the sink once after the
// disable returns. Close waits, so nothing is delivered after it.
type Source struct {
	mu     sync.Mutex
	logger *slog.Logger

	sink          Sink
	defaultPeriod time.Duration
	clock         func() int64

	tickers map[model.DisplayHandle]chan struct{}
	wg      sync.WaitGroup
	closed  bool
}

// NewSource creates a software vsync source delivering ticks to sink.
// A zero defaultPeriod means DefaultPeriod.
func NewSource(sink Sink, defaultPeriod time.Duration, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultPeriod <= 0 {
		defaultPeriod = DefaultPeriod
	}
	return &Source{
		logger:        logger,
		sink:          sink,
		defaultPeriod: defaultPeriod,
		clock:         monotonicNow,
		tickers:       make(map[model.DisplayHandle]chan struct{}),
	}
}

// SetVsyncEnabled starts or stops ticks for a display. Enabling an already
// ticking display and disabling an idle one do nothing.
func (s *Source) SetVsyncEnabled(dpy model.DisplayHandle, period time.Duration, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stopCh, running := s.tickers[dpy]
	if !enabled {
		if running {
			close(stopCh)
			delete(s.tickers, dpy)
			s.logger.Debug("software vsync stopped", "dpy", uint64(dpy))
		}
		return nil
	}

	if s.closed {
		return ErrClosed
	}
	if running {
		return nil
	}
	if period <= 0 {
		period = s.defaultPeriod
	}

	stopCh = make(chan struct{})
	s.tickers[dpy] = stopCh
	s.wg.Add(1)
	go s.run(dpy, period, stopCh)

	s.logger.Debug("software vsync started", "dpy", uint64(dpy), "period", period)
	return nil
}

// Active returns the displays currently ticking, in handle order.
func (s *Source) Active() []model.DisplayHandle {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]model.DisplayHandle, 0, len(s.tickers))
	for id := range s.tickers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Close stops every ticker and waits for the goroutines to exit. It must
// not be called while holding a lock the sink takes.
func (s *Source) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for dpy, stopCh := range s.tickers {
		close(stopCh)
		delete(s.tickers, dpy)
	}
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

func (s *Source) run(dpy model.DisplayHandle, period time.Duration, stopCh <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			// a stop racing with the tick wins
			select {
			case <-stopCh:
				return
			default:
			}
			s.sink(dpy, s.clock())
		}
	}
}

// monotonicNow returns CLOCK_MONOTONIC in nanoseconds, the clock vsync
// timestamps are expressed in.
func monotonicNow() int64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return time.Now().UnixNano()
	}
	return ts.Nano()
}
