package events

import (
	"context"
	"sync"
)

// Subscription receives events from an Emitter.
type Subscription struct {
	ch     chan Event
	types  map[Type]struct{}
	closed bool
	mu     sync.RWMutex
}

// C returns the channel events are delivered on.
// The channel is closed when the subscription or the emitter is closed.
func (s *Subscription) C() <-chan Event {
	return s.ch
}

// Close cancels the subscription. Idempotent.
func (s *Subscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		close(s.ch)
		s.closed = true
	}
	return nil
}

// wants reports whether the subscription is interested in the event type.
func (s *Subscription) wants(t Type) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[t]
	return ok
}

// send delivers the event without blocking. Returns false if the
// subscription is closed or its buffer is full.
func (s *Subscription) send(e Event) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}

	select {
	case s.ch <- e:
		return true
	default:
		return false
	}
}

// Emitter fans events out to subscribers. Slow consumers have events dropped
// rather than blocking the emitting hot path. All methods are safe for
// concurrent use.
type Emitter struct {
	subs       map[*Subscription]struct{}
	bufferSize int
	closed     bool
	mu         sync.RWMutex
	cleanupWg  sync.WaitGroup
	stop       chan struct{}
}

// NewEmitter creates an emitter whose subscriptions buffer up to bufferSize
// events. A minimum buffer of 1 is enforced so sends stay non-blocking.
func NewEmitter(bufferSize int) *Emitter {
	return &Emitter{
		subs:       make(map[*Subscription]struct{}),
		bufferSize: max(bufferSize, 1),
		stop:       make(chan struct{}),
	}
}

// Subscribe registers a subscription for the given event types; with no
// types it receives everything. The subscription is cleaned up automatically
// when ctx is cancelled. Subscribing to a closed emitter returns an
// already-closed subscription.
func (e *Emitter) Subscribe(ctx context.Context, types ...Type) *Subscription {
	sub := &Subscription{ch: make(chan Event, e.bufferSize)}
	if len(types) > 0 {
		sub.types = make(map[Type]struct{}, len(types))
		for _, t := range types {
			sub.types[t] = struct{}{}
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		_ = sub.Close()
		return sub
	}

	e.subs[sub] = struct{}{}

	if ctx.Done() != nil {
		e.cleanupWg.Add(1)
		go func() {
			defer e.cleanupWg.Done()
			select {
			case <-ctx.Done():
				e.unsubscribe(sub)
			case <-e.stop:
				// Close already tore down every subscription.
			}
		}()
	}

	return sub
}

// Emit delivers the event to all interested subscriptions. Subscriptions
// with full buffers are dropped from the emitter so one stuck consumer
// cannot degrade delivery for the rest.
func (e *Emitter) Emit(ev Event) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return
	}

	for sub := range e.subs {
		if !sub.wants(ev.Type) {
			continue
		}
		if !sub.send(ev) {
			// Async removal avoids write-lock contention during emits.
			go e.unsubscribe(sub)
		}
	}
}

// Close shuts down the emitter and all subscriptions. Idempotent.
func (e *Emitter) Close() error {
	e.mu.Lock()

	if e.closed {
		e.mu.Unlock()
		return nil
	}

	e.closed = true
	close(e.stop)
	for sub := range e.subs {
		_ = sub.Close()
	}
	clear(e.subs)
	e.mu.Unlock()

	e.cleanupWg.Wait()
	return nil
}

func (e *Emitter) unsubscribe(sub *Subscription) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.subs, sub)
	_ = sub.Close()
}
