package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"text/tabwriter"
	"time"

	"momo-vod/internal/comments"
	"momo-vod/internal/events"
	"momo-vod/internal/meter"
	"momo-vod/internal/rpc"
	"momo-vod/internal/scheduler"
)

type Options struct {
	Meter meter.Options
	// PollEvery reloads the comment pool on this virtual period; zero
	// disables polling.
	PollEvery time.Duration
	Out       io.Writer
}

// Report summarizes a finished run.
type Report struct {
	Overlays     int
	WatchedMs    int64
	PendingMs    int64
	MeterStopped error
}

// Session replays a scenario against one episode in fast forward. Virtual
// time only moves through the scenario, so the meter's periodic sync and the
// comment poll are fired by the session as the clock crosses their period.
type Session struct {
	sc    *Scenario
	pool  *comments.Pool
	meter *meter.Meter
	host  *events.Emitter

	meterTicks *virtualTimer
	pollTicks  *virtualTimer
	stopPoll   func()

	out *tabwriter.Writer

	clockMs    int64
	positionMs int64
	playing    bool
	watchedMs  int64
	overlays   int

	mu           sync.Mutex
	meterStopped error

	closeOnce sync.Once
}

func NewSession(t rpc.Transport, sc *Scenario, opts Options) *Session {
	host := events.NewEmitter()

	meterRep := &scheduler.ManualRepeater{}
	mopts := opts.Meter
	if mopts.Interval <= 0 {
		mopts.Interval = meter.DefaultOptions().Interval
	}
	mopts.Repeater = meterRep
	mopts.Host = host

	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	s := &Session{
		sc:         sc,
		pool:       comments.NewPool(t, sc.EpisodeID),
		meter:      meter.New(t, sc.SeasonID, mopts),
		host:       host,
		meterTicks: &virtualTimer{rep: meterRep, every: mopts.Interval.Milliseconds()},
		out:        tabwriter.NewWriter(out, 0, 0, 3, ' ', 0),
	}

	s.meter.On(meter.EventStop, func(payload any) {
		err, _ := payload.(error)
		if err == nil {
			err = errors.New("meter stopped")
		}
		s.mu.Lock()
		s.meterStopped = err
		s.mu.Unlock()
		fmt.Fprintf(s.out, "%s\t%s\tMETER\tinterrupted: %v\n", fmtMs(s.clockMs), fmtMs(s.positionMs), err)
	})

	if opts.PollEvery > 0 {
		pollRep := &scheduler.ManualRepeater{}
		s.pollTicks = &virtualTimer{rep: pollRep, every: opts.PollEvery.Milliseconds()}
		s.stopPoll = s.pool.Poll(context.Background(), pollRep, opts.PollEvery)
	}
	return s
}

func (s *Session) Pool() *comments.Pool { return s.pool }
func (s *Session) Meter() *meter.Meter  { return s.meter }

// Run loads the comments and plays every action of the scenario. A scenario
// that ends while playing is stopped as if the viewer pressed stop.
func (s *Session) Run(ctx context.Context) (Report, error) {
	defer s.out.Flush()

	if err := s.pool.Load(ctx); err != nil {
		return s.report(), err
	}
	if s.pollTicks != nil {
		s.pollTicks.arm(s.clockMs)
	}

	fmt.Fprintln(s.out, "CLOCK\tPOSITION\tAUTHOR\tCOMMENT")
	fmt.Fprintln(s.out, "-----\t--------\t------\t-------")

	for _, a := range s.sc.Actions {
		if err := ctx.Err(); err != nil {
			return s.report(), err
		}
		switch a.Kind {
		case ActionPlay:
			s.play(ctx, a.Ms)
		case ActionSeek:
			s.seek(a.Ms)
		case ActionPause:
			s.pause(ctx, a.Ms)
		case ActionStop:
			s.stop(ctx)
		}
	}
	s.stop(ctx)

	return s.report(), nil
}

func (s *Session) play(ctx context.Context, ms int64) {
	if !s.playing {
		s.playing = true
		s.meter.WatchStart(s.clockMs)
		s.meterTicks.arm(s.clockMs)
	}

	for elapsed := int64(0); elapsed < ms; {
		step := min(s.sc.StepMs, ms-elapsed)
		elapsed += step
		s.clockMs += step
		s.positionMs += step
		s.watchedMs += step

		for _, c := range s.pool.Read(s.positionMs) {
			s.overlays++
			fmt.Fprintf(s.out, "%s\t%s\t%s\t%s\n",
				fmtMs(s.clockMs), fmtMs(c.TimestampMs), truncate(c.AuthorID, 16), truncate(c.Body, 60))
		}
		s.meter.WatchUpdate(s.clockMs)
		s.tick(ctx)
	}
}

func (s *Session) seek(ms int64) {
	s.positionMs = ms
	s.pool.StartFrom(ms)
	fmt.Fprintf(s.out, "%s\t%s\t--\t(seek)\n", fmtMs(s.clockMs), fmtMs(ms))
}

// pause ends the metered interval; the paused span is not watch time.
func (s *Session) pause(ctx context.Context, ms int64) {
	if s.playing {
		s.playing = false
		s.meter.WatchStop(ctx, s.clockMs)
	}
	fmt.Fprintf(s.out, "%s\t%s\t--\t(pause %s)\n", fmtMs(s.clockMs), fmtMs(s.positionMs), fmtMs(ms))
	s.clockMs += ms
	s.tick(ctx)
}

func (s *Session) stop(ctx context.Context) {
	if !s.playing {
		return
	}
	s.playing = false
	s.meter.WatchStop(ctx, s.clockMs)
	fmt.Fprintf(s.out, "%s\t%s\t--\t(stop)\n", fmtMs(s.clockMs), fmtMs(s.positionMs))
}

func (s *Session) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.meterTicks.advance(s.clockMs)
	if s.pollTicks != nil {
		s.pollTicks.advance(s.clockMs)
	}
}

// Close flushes pending watch time the way a closing page would, then
// detaches the meter. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.stopPoll != nil {
			s.stopPoll()
		}
		s.host.Emit(meter.EventUnload, nil)
		s.meter.Remove()
		if pending := s.meter.Pending(); pending > 0 {
			log.Printf("⚠️ %dms of watch time could not be synced for season %s", pending, s.sc.SeasonID)
		}
		s.out.Flush()
	})
}

func (s *Session) report() Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Report{
		Overlays:     s.overlays,
		WatchedMs:    s.watchedMs,
		PendingMs:    s.meter.Pending(),
		MeterStopped: s.meterStopped,
	}
}

// virtualTimer fires a ManualRepeater whenever the session clock crosses
// its period.
type virtualTimer struct {
	rep   *scheduler.ManualRepeater
	every int64
	next  int64
}

func (v *virtualTimer) arm(nowMs int64) {
	v.next = nowMs + v.every
}

func (v *virtualTimer) advance(nowMs int64) {
	if v.every <= 0 {
		return
	}
	for v.rep.Active() > 0 && nowMs >= v.next {
		v.rep.Fire()
		v.next += v.every
	}
}

func fmtMs(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	return fmt.Sprintf("%02d:%02d.%03d", int(d.Minutes()), int(d.Seconds())%60, ms%1000)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) > max {
		return string(r[:max-3]) + "..."
	}
	return s
}
