// Package meter accumulates watch time for one viewing session and reports it
// to the meter service on a fixed interval.
package meter

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"momo-vod/internal/events"
	"momo-vod/internal/rpc"
	"momo-vod/internal/scheduler"
)

const (
	// EventStop fires when a sync fails; the payload is the error. Owners
	// should treat metering as interrupted.
	EventStop = "stop"

	// EventUnload is the host event that triggers a last flush before the
	// owner goes away.
	EventUnload = "unload"
)

// Metrics
var (
	syncsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "vod_player_meter_syncs_total", Help: "Meter sync attempts"},
		[]string{"status"},
	)
	syncedMs = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "vod_player_meter_synced_ms_total", Help: "Watch time accepted by the meter service"},
	)
)

func RegisterMetrics() {
	prometheus.MustRegister(syncsTotal, syncedMs)
}

type Options struct {
	Interval  time.Duration
	Retries   int
	KeepAlive bool
	Timeout   time.Duration
	// Repeater drives periodic syncs. Defaults to scheduler.IntervalRepeater.
	Repeater scheduler.Repeater
	// Host is the owner's emitter; the meter listens for EventUnload on it.
	Host *events.Emitter
}

// DefaultOptions matches what the web player sends: sync every 10s, 5
// retries, keep-alive, 5s per attempt.
func DefaultOptions() Options {
	return Options{
		Interval:  10 * time.Second,
		Retries:   5,
		KeepAlive: true,
		Timeout:   5 * time.Second,
	}
}

// Meter tracks unsynced watch time for one season.
//
// Timestamps are milliseconds and must not go backwards between
// WatchStart/WatchUpdate/WatchStop calls.
type Meter struct {
	transport rpc.Transport
	seasonID  string
	opts      Options
	events    *events.Emitter

	mu               sync.Mutex
	watchTimeMs      int64
	watchTimeStartMs int64
	stopTimer        func()
	detachUnload     func()
}

func New(t rpc.Transport, seasonID string, opts Options) *Meter {
	def := DefaultOptions()
	if opts.Interval <= 0 {
		opts.Interval = def.Interval
	}
	if opts.Repeater == nil {
		opts.Repeater = scheduler.IntervalRepeater{}
	}

	m := &Meter{
		transport: t,
		seasonID:  seasonID,
		opts:      opts,
		events:    events.NewEmitter(),
	}

	if opts.Host != nil {
		m.detachUnload = opts.Host.On(EventUnload, func(any) {
			m.syncReading(context.Background())
		})
	}
	return m
}

func (m *Meter) SeasonID() string { return m.seasonID }

// On subscribes to meter events (EventStop).
func (m *Meter) On(name string, fn events.Handler) (off func()) {
	return m.events.On(name, fn)
}

// WatchStart marks the start of a playing interval and (re)starts the
// periodic sync. Time left unsynced from earlier intervals is kept.
func (m *Meter) WatchStart(timestampMs int64) {
	m.mu.Lock()
	m.watchTimeStartMs = timestampMs
	if m.stopTimer != nil {
		m.stopTimer()
	}
	m.stopTimer = m.opts.Repeater.Every(m.opts.Interval, func() {
		m.syncReading(context.Background())
	})
	m.mu.Unlock()
}

// WatchUpdate books the time since the last start/update.
func (m *Meter) WatchUpdate(timestampMs int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.watchTimeMs += timestampMs - m.watchTimeStartMs
	m.watchTimeStartMs = timestampMs
}

// WatchStop books the final interval, syncs right away and stops the
// periodic sync.
func (m *Meter) WatchStop(ctx context.Context, timestampMs int64) {
	m.WatchUpdate(timestampMs)
	m.syncReading(ctx)

	m.mu.Lock()
	if m.stopTimer != nil {
		m.stopTimer()
		m.stopTimer = nil
	}
	m.mu.Unlock()
}

// Pending returns the watch time not yet accepted by the server.
func (m *Meter) Pending() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.watchTimeMs
}

// Remove detaches the unload listener. It leaves a running periodic sync
// and any in-flight request alone; call WatchStop first to end those.
func (m *Meter) Remove() {
	m.mu.Lock()
	detach := m.detachUnload
	m.detachUnload = nil
	m.mu.Unlock()

	if detach != nil {
		detach()
	}
}

// syncReading sends the accumulated time. The accumulator is captured and
// zeroed before the request goes out, so a concurrent tick or update never
// reports the same milliseconds twice. On failure the captured amount is
// added back and EventStop is emitted; the error is not returned.
func (m *Meter) syncReading(ctx context.Context) {
	m.mu.Lock()
	watchTimeMs := m.watchTimeMs
	if watchTimeMs == 0 {
		m.mu.Unlock()
		return
	}
	m.watchTimeMs = 0
	m.mu.Unlock()

	_, err := rpc.Call(ctx, m.transport, rpc.SyncMeterReading,
		rpc.SyncMeterReadingRequest{SeasonID: m.seasonID, WatchTimeMs: watchTimeMs},
		rpc.CallOptions{Retries: m.opts.Retries, KeepAlive: m.opts.KeepAlive, Timeout: m.opts.Timeout},
	)
	if err != nil {
		m.mu.Lock()
		m.watchTimeMs += watchTimeMs
		m.mu.Unlock()

		syncsTotal.WithLabelValues("failure").Inc()
		log.Printf("❌ Meter sync failed for season %s (%dms kept): %v", m.seasonID, watchTimeMs, err)
		m.events.Emit(EventStop, fmt.Errorf("meter: sync season %s: %w", m.seasonID, err))
		return
	}

	syncsTotal.WithLabelValues("success").Inc()
	syncedMs.Add(float64(watchTimeMs))
}
