package comments

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"testing"
	"time"

	"momo-vod/internal/models"
	"momo-vod/internal/rpc"
	"momo-vod/internal/scheduler"
)

// fakeTransport answers GetComments from a canned batch.
type fakeTransport struct {
	batch []models.Comment
	err   error
	calls int
	last  rpc.GetCommentsRequest
}

func (f *fakeTransport) Do(ctx context.Context, path string, req, resp any, opts rpc.CallOptions) error {
	f.calls++
	if path != rpc.GetComments.Path() {
		return fmt.Errorf("unexpected path %s", path)
	}
	f.last = req.(rpc.GetCommentsRequest)
	if f.err != nil {
		return f.err
	}
	resp.(*rpc.GetCommentsResponse).Comments = append([]models.Comment(nil), f.batch...)
	return nil
}

func c(id string, ts int64) models.Comment {
	return models.Comment{ID: id, TimestampMs: ts, Body: id}
}

func ids(cs []models.Comment) []string {
	out := make([]string, len(cs))
	for i, cm := range cs {
		out[i] = cm.ID
	}
	return out
}

func equalIDs(t *testing.T, got []models.Comment, want ...string) {
	t.Helper()
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("expected %v, got %v", want, g)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, g)
		}
	}
}

func TestLoadMergesAndEmitsLoaded(t *testing.T) {
	ft := &fakeTransport{batch: []models.Comment{c("b", 200), c("a", 100), c("c", 300)}}
	p := NewPool(ft, "ep-7")

	loaded := 0
	p.On(EventLoaded, func(payload any) {
		loaded++
		if payload.(string) != "ep-7" {
			t.Errorf("unexpected payload %v", payload)
		}
	})

	if err := p.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if ft.last.EpisodeID != "ep-7" {
		t.Errorf("expected episode ep-7 in request, got %q", ft.last.EpisodeID)
	}
	if loaded != 1 {
		t.Errorf("expected one loaded event, got %d", loaded)
	}
	equalIDs(t, p.Snapshot(), "a", "b", "c")
}

func TestLoadFailureLeavesStateUntouched(t *testing.T) {
	ft := &fakeTransport{batch: []models.Comment{c("a", 100)}}
	p := NewPool(ft, "ep")
	if err := p.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	loaded := 0
	p.On(EventLoaded, func(any) { loaded++ })

	boom := errors.New("backend down")
	ft.err = boom
	ft.batch = []models.Comment{c("x", 1)}

	err := p.Load(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected backend error to propagate, got %v", err)
	}
	if loaded != 0 {
		t.Error("loaded must not fire on failure")
	}
	equalIDs(t, p.Snapshot(), "a")
}

func TestEmptyResultIsValid(t *testing.T) {
	p := NewPool(&fakeTransport{}, "ep")
	if err := p.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if p.Len() != 0 {
		t.Errorf("expected empty pool, got %d", p.Len())
	}
	if got := p.Read(1_000_000); len(got) != 0 {
		t.Errorf("expected nothing to read, got %v", ids(got))
	}
}

func TestRepeatedLoadDoesNotDuplicate(t *testing.T) {
	ft := &fakeTransport{batch: []models.Comment{c("a", 100), c("b", 200)}}
	p := NewPool(ft, "ep")
	p.Load(context.Background())

	ft.batch = append(ft.batch, c("c", 150))
	p.Load(context.Background())

	equalIDs(t, p.Snapshot(), "a", "c", "b")
}

func TestFillIsSortedMultisetUnion(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 50; round++ {
		p := NewPool(nil, "ep")

		var existing []models.Comment
		for i := 0; i < rng.Intn(30); i++ {
			existing = append(existing, c(fmt.Sprintf("e%d", i), rng.Int63n(50)))
		}
		p.fill(existing)

		var batch []models.Comment
		for i := 0; i < rng.Intn(30); i++ {
			batch = append(batch, c(fmt.Sprintf("n%d", i), rng.Int63n(50)))
		}
		p.fill(batch)

		got := p.Snapshot()
		if len(got) != len(existing)+len(batch) {
			t.Fatalf("round %d: expected %d comments, got %d", round, len(existing)+len(batch), len(got))
		}
		if !sort.SliceIsSorted(got, func(i, j int) bool { return got[i].TimestampMs < got[j].TimestampMs }) {
			t.Fatalf("round %d: merged sequence not ascending", round)
		}

		counts := map[string]int{}
		for _, cm := range append(existing, batch...) {
			counts[cm.ID]++
		}
		for _, cm := range got {
			counts[cm.ID]--
		}
		for id, n := range counts {
			if n != 0 {
				t.Fatalf("round %d: comment %s count off by %d", round, id, n)
			}
		}
	}
}

func TestFillKeepsArrivalOrderOnTies(t *testing.T) {
	p := NewPool(nil, "ep")
	p.fill([]models.Comment{c("old1", 100), c("old2", 100)})
	p.fill([]models.Comment{c("new2", 100), c("early", 50), c("new1", 100)})

	// Existing first, then the batch in its source order.
	equalIDs(t, p.Snapshot(), "early", "old1", "old2", "new2", "new1")
}

func TestReadPartitionsMonotonically(t *testing.T) {
	p := NewPool(nil, "ep")
	p.fill([]models.Comment{c("a", 100), c("b", 200), c("c", 200), c("d", 350), c("e", 900)})

	equalIDs(t, p.Read(50))
	equalIDs(t, p.Read(150), "a")
	equalIDs(t, p.Read(150))
	equalIDs(t, p.Read(201), "b", "c")
	equalIDs(t, p.Read(1000), "d", "e")
	equalIDs(t, p.Read(2000))
}

func TestReadBoundaryIsStrict(t *testing.T) {
	p := NewPool(nil, "ep")
	p.fill([]models.Comment{c("a", 100), c("b", 100)})

	equalIDs(t, p.Read(100))
	equalIDs(t, p.Read(101), "a", "b")
}

func TestStartFromRewindAndForward(t *testing.T) {
	p := NewPool(nil, "ep")
	p.fill([]models.Comment{c("a", 100), c("b", 200), c("c", 300), c("d", 400)})

	equalIDs(t, p.Read(350), "a", "b", "c")

	// Same position: nothing new.
	p.StartFrom(350)
	equalIDs(t, p.Read(350))

	// Rewind re-delivers from the destination on.
	p.StartFrom(150)
	equalIDs(t, p.Read(150))
	equalIDs(t, p.Read(301), "b", "c")

	// Jump forward skips what was passed over.
	p.StartFrom(390)
	equalIDs(t, p.Read(500), "d")
}

func TestMergeAfterReadKeepsCursorByTime(t *testing.T) {
	p := NewPool(nil, "ep")
	p.fill([]models.Comment{c("a", 100), c("d", 400)})
	equalIDs(t, p.Read(250), "a")

	// One lands before the cursor and counts as already passed; one lands
	// after it and is still pending.
	p.fill([]models.Comment{c("late", 50), c("b", 300)})

	equalIDs(t, p.Read(500), "b", "d")
}

func TestPollLoadsOnEveryTick(t *testing.T) {
	ft := &fakeTransport{batch: []models.Comment{c("a", 1)}}
	p := NewPool(ft, "ep")

	var r scheduler.ManualRepeater
	stop := p.Poll(context.Background(), &r, 30*time.Second)

	r.Fire()
	ft.err = errors.New("flaky")
	r.Fire() // logged, not fatal
	ft.err = nil
	ft.batch = append(ft.batch, c("b", 2))
	r.Fire()
	stop()
	r.Fire()

	if ft.calls != 3 {
		t.Errorf("expected 3 loads, got %d", ft.calls)
	}
	equalIDs(t, p.Snapshot(), "a", "b")
}
