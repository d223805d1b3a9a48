package app

import (
	"sync"

	"live-quiz-service/internal/game"
)

// topic fans session snapshots out to subscribers. The session's notify
// hook runs inside the session lock and therefore only raises a
// coalesced dirty signal here; the pump goroutine rebuilds the snapshot
// after the lock is long released, so no subscriber ever stalls a
// transition.
type topic struct {
	snapshot func() game.View
	dirty    chan struct{}
	done     chan struct{}

	mu     sync.Mutex
	subs   map[chan game.View]struct{}
	closed bool
}

func newTopic(snapshot func() game.View) *topic {
	t := &topic{
		snapshot: snapshot,
		dirty:    make(chan struct{}, 1),
		done:     make(chan struct{}),
		subs:     make(map[chan game.View]struct{}),
	}
	go t.pump()
	return t
}

// wake is safe to call from inside the session lock: it never blocks.
func (t *topic) wake() {
	select {
	case t.dirty <- struct{}{}:
	default:
	}
}

func (t *topic) pump() {
	for {
		select {
		case <-t.done:
			return
		case <-t.dirty:
			t.publish(t.snapshot())
		}
	}
}

func (t *topic) publish(view game.View) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for ch := range t.subs {
		select {
		case ch <- view:
		default:
			// Drop the stale snapshot so a slow client only ever
			// misses intermediate frames, never the latest one.
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
}

func (t *topic) subscribe() (<-chan game.View, func()) {
	ch := make(chan game.View, 8)

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	t.subs[ch] = struct{}{}
	t.mu.Unlock()

	ch <- t.snapshot()

	cancel := func() {
		t.mu.Lock()
		if _, ok := t.subs[ch]; ok {
			delete(t.subs, ch)
			close(ch)
		}
		t.mu.Unlock()
	}
	return ch, cancel
}

func (t *topic) close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	for ch := range t.subs {
		delete(t.subs, ch)
		close(ch)
	}
	t.mu.Unlock()
	close(t.done)
}
