// Package events provides a small in-process event emitter used by the rate
// limiter and request guard to surface operational notifications (limit
// exceeded, route registered, IP list changes, security events) without
// coupling those components to any particular logging or metrics backend.
//
// Subscribers receive events on a buffered channel and may filter by event
// type. Delivery is non-blocking: a subscriber that stops draining its
// channel is dropped rather than allowed to stall the request hot path.
//
// # Usage
//
//	em := events.NewEmitter(64)
//	defer em.Close()
//
//	sub := em.Subscribe(ctx, events.TypeRateLimitExceeded)
//	go func() {
//	    for ev := range sub.C() {
//	        log.Printf("limit exceeded: %v", ev.Fields)
//	    }
//	}()
package events
