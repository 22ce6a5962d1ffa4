// Package events is a small named-event emitter. Components expose their
// notifications ("loaded", "stop", "unload") through it so owners can react
// without the component knowing who listens.
package events

import "sync"

// Handler receives the payload passed to Emit.
type Handler func(payload any)

type listener struct {
	id int
	fn Handler
}

// Emitter delivers events synchronously, in registration order, on the
// goroutine that calls Emit.
type Emitter struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[string][]listener
}

func NewEmitter() *Emitter {
	return &Emitter{listeners: make(map[string][]listener)}
}

// On subscribes fn to name. The returned func detaches it; calling it more
// than once is harmless.
func (e *Emitter) On(name string, fn Handler) (off func()) {
	e.mu.Lock()
	if e.listeners == nil {
		e.listeners = make(map[string][]listener)
	}
	e.nextID++
	id := e.nextID
	e.listeners[name] = append(e.listeners[name], listener{id: id, fn: fn})
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { e.remove(name, id) })
	}
}

// Emit calls every handler registered for name. Handlers may subscribe or
// unsubscribe while being called; changes apply to the next Emit.
func (e *Emitter) Emit(name string, payload any) {
	e.mu.RLock()
	current := append([]listener(nil), e.listeners[name]...)
	e.mu.RUnlock()

	for _, l := range current {
		l.fn(payload)
	}
}

// Count returns how many handlers are attached to name.
func (e *Emitter) Count(name string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners[name])
}

func (e *Emitter) remove(name string, id int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ls := e.listeners[name]
	for i, l := range ls {
		if l.id == id {
			e.listeners[name] = append(ls[:i:i], ls[i+1:]...)
			break
		}
	}
	if len(e.listeners[name]) == 0 {
		delete(e.listeners, name)
	}
}
