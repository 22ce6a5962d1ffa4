package events

import "testing"

func TestEmitOrderAndPayload(t *testing.T) {
	e := NewEmitter()

	var got []string
	e.On("loaded", func(p any) { got = append(got, "first:"+p.(string)) })
	e.On("loaded", func(p any) { got = append(got, "second:"+p.(string)) })
	e.On("other", func(p any) { got = append(got, "other") })

	e.Emit("loaded", "ep-1")

	if len(got) != 2 || got[0] != "first:ep-1" || got[1] != "second:ep-1" {
		t.Fatalf("unexpected delivery: %v", got)
	}
}

func TestOffDetachesOnlyThatHandler(t *testing.T) {
	e := NewEmitter()

	calls := 0
	off := e.On("stop", func(any) { calls += 10 })
	e.On("stop", func(any) { calls++ })

	off()
	off() // second call is a no-op

	e.Emit("stop", nil)

	if calls != 1 {
		t.Errorf("expected only the remaining handler to run, calls=%d", calls)
	}
	if e.Count("stop") != 1 {
		t.Errorf("expected 1 handler left, got %d", e.Count("stop"))
	}
}

func TestUnsubscribeDuringEmit(t *testing.T) {
	e := NewEmitter()

	calls := 0
	var off func()
	off = e.On("unload", func(any) {
		calls++
		off()
	})

	e.Emit("unload", nil)
	e.Emit("unload", nil)

	if calls != 1 {
		t.Errorf("expected handler to run once, ran %d times", calls)
	}
	if e.Count("unload") != 0 {
		t.Errorf("expected no handlers, got %d", e.Count("unload"))
	}
}

func TestZeroValueEmitter(t *testing.T) {
	var e Emitter
	fired := false
	e.On("loaded", func(any) { fired = true })
	e.Emit("loaded", nil)
	if !fired {
		t.Error("zero-value emitter should deliver events")
	}
}
