// Package comments buffers the time-pinned comments of one episode and hands
// them out as playback crosses their pin time.
package comments

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"momo-vod/internal/events"
	"momo-vod/internal/models"
	"momo-vod/internal/rpc"
	"momo-vod/internal/scheduler"
)

// EventLoaded fires once after every successful Load. The payload is the
// episode id.
const EventLoaded = "loaded"

// Pool keeps the comments of one episode sorted by TimestampMs and tracks a
// read cursor (lastTimestampMs, lastIndex) so each comment is delivered once
// while playback moves forward.
type Pool struct {
	transport rpc.Transport
	episodeID string
	events    *events.Emitter

	loadMu sync.Mutex // one Load at a time

	mu              sync.Mutex
	comments        []models.Comment
	seen            map[string]struct{}
	lastTimestampMs int64
	lastIndex       int
}

func NewPool(t rpc.Transport, episodeID string) *Pool {
	return &Pool{
		transport: t,
		episodeID: episodeID,
		events:    events.NewEmitter(),
		seen:      make(map[string]struct{}),
	}
}

func (p *Pool) EpisodeID() string { return p.episodeID }

// On subscribes to pool events (EventLoaded).
func (p *Pool) On(name string, fn events.Handler) (off func()) {
	return p.events.On(name, fn)
}

// Load fetches every comment of the episode and merges the ones the pool
// has not seen yet. A failed fetch leaves the pool untouched and is returned
// as is; retrying is up to the caller.
func (p *Pool) Load(ctx context.Context) error {
	p.loadMu.Lock()
	defer p.loadMu.Unlock()

	resp, err := rpc.Call(ctx, p.transport, rpc.GetComments, rpc.GetCommentsRequest{EpisodeID: p.episodeID})
	if err != nil {
		return fmt.Errorf("comments: load episode %s: %w", p.episodeID, err)
	}

	p.mu.Lock()
	p.fill(p.unseen(resp.Comments))
	p.mu.Unlock()

	p.events.Emit(EventLoaded, p.episodeID)
	return nil
}

// Poll calls Load every interval until the returned func is called or ctx
// ends. Failures are logged and left for the next tick.
func (p *Pool) Poll(ctx context.Context, r scheduler.Repeater, every time.Duration) (stop func()) {
	return r.Every(every, func() {
		if ctx.Err() != nil {
			return
		}
		if err := p.Load(ctx); err != nil {
			log.Printf("⚠️ Comment poll failed: %v", err)
		}
	})
}

// StartFrom moves the cursor to destinationTimestampMs. Use it for any
// discontinuous jump (seek, rewind) before calling Read again.
func (p *Pool) StartFrom(destinationTimestampMs int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.lastTimestampMs = destinationTimestampMs
	p.binarySearchReadPointer()
}

// Read returns, in ascending order, every not yet delivered comment pinned
// strictly before currentTimestampMs. Successive calls must not go
// backwards; use StartFrom for that.
func (p *Pool) Read(currentTimestampMs int64) []models.Comment {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []models.Comment
	for p.lastIndex < len(p.comments) && p.comments[p.lastIndex].TimestampMs < currentTimestampMs {
		out = append(out, p.comments[p.lastIndex])
		p.lastIndex++
	}
	p.lastTimestampMs = currentTimestampMs
	return out
}

// Len reports how many comments are buffered.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.comments)
}

// Snapshot returns a copy of the buffered comments in pool order.
func (p *Pool) Snapshot() []models.Comment {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.Comment(nil), p.comments...)
}

// unseen drops comments whose id is already buffered, so a full refresh
// does not duplicate what an earlier Load brought in. Comments without an
// id cannot be matched and always pass. Callers hold p.mu.
func (p *Pool) unseen(batch []models.Comment) []models.Comment {
	fresh := make([]models.Comment, 0, len(batch))
	for _, c := range batch {
		if c.ID != "" {
			if _, ok := p.seen[c.ID]; ok {
				continue
			}
			p.seen[c.ID] = struct{}{}
		}
		fresh = append(fresh, c)
	}
	return fresh
}

// fill merges newComments into the sorted buffer in one linear pass, then
// re-anchors lastIndex on lastTimestampMs since insertions shift indexes.
// Callers hold p.mu.
func (p *Pool) fill(newComments []models.Comment) {
	batch := append([]models.Comment(nil), newComments...)
	sort.SliceStable(batch, func(i, j int) bool {
		return batch[i].TimestampMs < batch[j].TimestampMs
	})

	merged := make([]models.Comment, 0, len(p.comments)+len(batch))
	i, j := 0, 0
	for i < len(p.comments) && j < len(batch) {
		// Existing comments win ties so earlier arrivals stay first.
		if batch[j].TimestampMs < p.comments[i].TimestampMs {
			merged = append(merged, batch[j])
			j++
		} else {
			merged = append(merged, p.comments[i])
			i++
		}
	}
	merged = append(merged, p.comments[i:]...)
	merged = append(merged, batch[j:]...)

	p.comments = merged
	p.binarySearchReadPointer()
}

// binarySearchReadPointer sets lastIndex to the first comment pinned at or
// after lastTimestampMs. Callers hold p.mu.
func (p *Pool) binarySearchReadPointer() {
	p.lastIndex = sort.Search(len(p.comments), func(i int) bool {
		return p.comments[i].TimestampMs >= p.lastTimestampMs
	})
}
