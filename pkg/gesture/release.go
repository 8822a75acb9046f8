package gesture

import (
	"sync"

	"github.com/menta2k/image-cropper/pkg/pointer"
)

// ReleaseHub is a global pointer-release source. The host forwards every
// pointer-up it sees, inside the canvas or not, so a gesture released
// outside the canvas still terminates.
//
// Listeners are one-shot: each one is removed before it is invoked.
type ReleaseHub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]func(pointer.Event)
}

// NewReleaseHub creates an empty hub
func NewReleaseHub() *ReleaseHub {
	return &ReleaseHub{subs: make(map[uint64]func(pointer.Event))}
}

// Subscription is a registered one-shot listener
type Subscription struct {
	hub  *ReleaseHub
	id   uint64
	once sync.Once
}

// Once registers fn to run on the next release only
func (h *ReleaseHub) Once(fn func(pointer.Event)) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	h.subs[h.nextID] = fn
	return &Subscription{hub: h, id: h.nextID}
}

// Release fires and removes every registered listener. It returns the
// number of listeners invoked.
func (h *ReleaseHub) Release(evt pointer.Event) int {
	h.mu.Lock()
	fns := make([]func(pointer.Event), 0, len(h.subs))
	for id, fn := range h.subs {
		fns = append(fns, fn)
		delete(h.subs, id)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(evt)
	}
	return len(fns)
}

// Len returns the number of pending listeners
func (h *ReleaseHub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Cancel removes the listener if it has not fired yet. Safe to call more
// than once.
func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s.id)
		s.hub.mu.Unlock()
	})
}
