package securitylog_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gatekit/pkg/securitylog"
)

func TestLog_Record(t *testing.T) {
	t.Parallel()

	l := securitylog.New(10)

	stored := l.Record(securitylog.Event{
		Kind:   securitylog.KindAuthFailure,
		IP:     "192.0.2.1",
		Method: "GET",
		Path:   "/api/courses",
	})

	assert.NotEmpty(t, stored.ID, "missing ID is generated")
	assert.False(t, stored.At.IsZero(), "missing timestamp is filled in")

	got := l.Events(0)
	require.Len(t, got, 1)
	assert.Equal(t, stored.ID, got[0].ID)
	assert.Equal(t, securitylog.KindAuthFailure, got[0].Kind)
}

func TestLog_EvictsOldestAtCapacity(t *testing.T) {
	t.Parallel()

	l := securitylog.New(3)

	for i := range 5 {
		l.Record(securitylog.Event{
			Kind: securitylog.KindRateLimitExceeded,
			Path: fmt.Sprintf("/r/%d", i),
		})
	}

	got := l.Events(0)
	require.Len(t, got, 3)
	// Newest first: /r/4, /r/3, /r/2. The first two records were evicted.
	assert.Equal(t, "/r/4", got[0].Path)
	assert.Equal(t, "/r/3", got[1].Path)
	assert.Equal(t, "/r/2", got[2].Path)

	stats := l.Stats()
	assert.Equal(t, int64(5), stats.Total, "counters survive eviction")
}

func TestLog_EventsLimit(t *testing.T) {
	t.Parallel()

	l := securitylog.New(10)
	for range 6 {
		l.Record(securitylog.Event{Kind: securitylog.KindAuthSuccess})
	}

	assert.Len(t, l.Events(4), 4)
	assert.Len(t, l.Events(100), 6)
	assert.Len(t, l.Events(-1), 6)
	assert.Equal(t, 6, l.Len())
}

func TestLog_Stats(t *testing.T) {
	t.Parallel()

	l := securitylog.New(100)
	l.Record(securitylog.Event{Kind: securitylog.KindAuthSuccess})
	l.Record(securitylog.Event{Kind: securitylog.KindAuthSuccess})
	l.Record(securitylog.Event{Kind: securitylog.KindAuthzFailure})

	stats := l.Stats()
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.ByKind[securitylog.KindAuthSuccess])
	assert.Equal(t, int64(1), stats.ByKind[securitylog.KindAuthzFailure])
	assert.Zero(t, stats.ByKind[securitylog.KindInvalidInput])
}

func TestLog_Clear(t *testing.T) {
	t.Parallel()

	l := securitylog.New(10)
	l.Record(securitylog.Event{Kind: securitylog.KindSecurityViolation})
	l.Clear()

	assert.Empty(t, l.Events(0))
	assert.Equal(t, int64(1), l.Stats().Total, "lifetime counters kept")
}

func TestLog_ConcurrentRecord(t *testing.T) {
	t.Parallel()

	l := securitylog.New(50)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				l.Record(securitylog.Event{Kind: securitylog.KindAuthFailure})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1000), l.Stats().Total)
	assert.Len(t, l.Events(0), 50)
}
