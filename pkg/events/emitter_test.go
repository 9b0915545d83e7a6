package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gatekit/pkg/events"
)

func TestEmitter_SubscribeAll(t *testing.T) {
	t.Parallel()

	em := events.NewEmitter(8)
	defer em.Close()

	sub := em.Subscribe(context.Background())
	defer sub.Close()

	em.Emit(events.New(events.TypeRateLimitChecked, map[string]any{"key": "user1"}))

	select {
	case ev := <-sub.C():
		assert.Equal(t, events.TypeRateLimitChecked, ev.Type)
		assert.Equal(t, "user1", ev.Fields["key"])
		assert.WithinDuration(t, time.Now(), ev.At, time.Second)
	case <-time.After(time.Second):
		t.Fatal("expected event delivery")
	}
}

func TestEmitter_TypeFilter(t *testing.T) {
	t.Parallel()

	em := events.NewEmitter(8)
	defer em.Close()

	sub := em.Subscribe(context.Background(), events.TypeRateLimitExceeded)
	defer sub.Close()

	em.Emit(events.New(events.TypeRateLimitChecked, nil))
	em.Emit(events.New(events.TypeRateLimitExceeded, nil))

	select {
	case ev := <-sub.C():
		assert.Equal(t, events.TypeRateLimitExceeded, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("expected filtered event delivery")
	}

	select {
	case ev, ok := <-sub.C():
		if ok {
			t.Fatalf("unexpected extra event: %v", ev.Type)
		}
	default:
	}
}

func TestEmitter_DropsSlowSubscriber(t *testing.T) {
	t.Parallel()

	em := events.NewEmitter(1)
	defer em.Close()

	sub := em.Subscribe(context.Background())

	// Fill the buffer, then overflow it. The subscriber is dropped and its
	// channel eventually closed instead of blocking the emitter.
	em.Emit(events.New(events.TypeRateLimitChecked, nil))
	em.Emit(events.New(events.TypeRateLimitChecked, nil))

	require.Eventually(t, func() bool {
		for {
			select {
			case _, ok := <-sub.C():
				if !ok {
					return true
				}
			default:
				return false
			}
		}
	}, time.Second, 10*time.Millisecond, "slow subscriber should be closed")
}

func TestEmitter_ContextCancellation(t *testing.T) {
	t.Parallel()

	em := events.NewEmitter(4)
	defer em.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub := em.Subscribe(ctx)
	cancel()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-sub.C():
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestEmitter_CloseWithLiveSubscriberContext(t *testing.T) {
	t.Parallel()

	em := events.NewEmitter(4)

	// A cancellable context that is never cancelled must not keep Close
	// waiting on the subscription's cleanup goroutine.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := em.Subscribe(ctx)

	done := make(chan struct{})
	go func() {
		_ = em.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close blocked on a live subscriber context")
	}

	_, ok := <-sub.C()
	assert.False(t, ok, "subscription channel closed after emitter close")
}

func TestEmitter_CloseIdempotent(t *testing.T) {
	t.Parallel()

	em := events.NewEmitter(4)
	sub := em.Subscribe(context.Background())

	require.NoError(t, em.Close())
	require.NoError(t, em.Close())

	_, ok := <-sub.C()
	assert.False(t, ok, "subscription channel closed after emitter close")

	// Emitting and subscribing after close are no-ops.
	em.Emit(events.New(events.TypeRateLimitChecked, nil))
	late := em.Subscribe(context.Background())
	_, ok = <-late.C()
	assert.False(t, ok)
}
