// Package connectivity tracks whether the tracker API is reachable.
//
// A Monitor polls a Prober on a fixed interval, the same way the CLI used to
// flip between online and offline mode, and fans state changes out to any
// number of observers.
package connectivity

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/nutrisync/internal/logging"
)

// Prober checks reachability; a nil error means online.
type Prober interface {
	Ping(ctx context.Context) error
}

type Monitor struct {
	prober   Prober
	interval time.Duration
	timeout  time.Duration
	log      logging.Logger

	online atomic.Bool

	mu   sync.Mutex
	subs map[chan bool]struct{}
}

// NewMonitor returns a Monitor that starts out offline until the first probe
// succeeds.
func NewMonitor(p Prober, interval, timeout time.Duration, log logging.Logger) *Monitor {
	return &Monitor{
		prober:   p,
		interval: interval,
		timeout:  timeout,
		log:      log,
		subs:     make(map[chan bool]struct{}),
	}
}

func (m *Monitor) IsOnline() bool { return m.online.Load() }

// Set records the current state. Observers are notified only on change.
func (m *Monitor) Set(online bool) {
	m.mu.Lock()
	if m.online.Load() == online {
		m.mu.Unlock()
		return
	}
	m.online.Store(online)
	for ch := range m.subs {
		publish(ch, online)
	}
	m.mu.Unlock()

	m.log.Info(context.Background(), "connectivity changed", "online", online)
}

// publish delivers v to a one-slot channel, replacing a stale unread value.
func publish(ch chan bool, v bool) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Check probes once and updates the state.
func (m *Monitor) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	err := m.prober.Ping(ctx)
	if err != nil {
		m.log.Debug(ctx, "probe failed", "error", err)
	}
	m.Set(err == nil)
	return err == nil
}

// Observe returns a channel that first carries the current state and then
// every transition. A slow reader only ever sees the latest state. The
// channel is closed when ctx is done.
func (m *Monitor) Observe(ctx context.Context) <-chan bool {
	ch := make(chan bool, 1)

	m.mu.Lock()
	ch <- m.online.Load()
	m.subs[ch] = struct{}{}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.subs, ch)
		close(ch)
		m.mu.Unlock()
	}()
	return ch
}

// Run probes immediately and then on every tick until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	m.Check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Check(ctx)
		case <-ctx.Done():
			return
		}
	}
}
