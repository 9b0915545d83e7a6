package ratelimit

import (
	"hash/fnv"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/gatekit/pkg/events"
)

const (
	shardCount = 32

	// maxCleanupInterval bounds how rarely the background sweep runs even
	// for very large windows.
	maxCleanupInterval = time.Minute
)

// entry holds per-identifier windowed state. Guarded by its shard's mutex.
type entry struct {
	count       int
	windowStart time.Time
	resetAt     time.Time

	// tokens and lastRefill are used by the token bucket strategy only.
	tokens     float64
	lastRefill time.Time

	// Per-identifier overrides set via SetLimit/SetWindow. Zero means use
	// the limiter config.
	maxOverride    int
	windowOverride time.Duration
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// DenyHandler is invoked whenever a check is denied.
type DenyHandler func(identifier string, result Result)

// Limiter tracks per-identifier request quota under a selectable strategy.
// All methods are safe for concurrent use; per-identifier state lives in a
// sharded mutex map so Check is an atomic read-modify-write.
type Limiter struct {
	cfgMu sync.RWMutex
	cfg   Config

	shards [shardCount]*shard

	total   atomic.Int64
	allowed atomic.Int64
	blocked atomic.Int64

	violatorsMu sync.Mutex
	violators   map[string]int64

	emitter *events.Emitter
	onDeny  DenyHandler

	cleanupEvery time.Duration
	stop         chan struct{}
	stopOnce     sync.Once
	closed       atomic.Bool
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithEmitter attaches an event emitter for limiter notifications.
func WithEmitter(em *events.Emitter) Option {
	return func(l *Limiter) { l.emitter = em }
}

// WithDenyHandler replaces the default denial behavior (emitting a
// rateLimit:exceeded event).
func WithDenyHandler(h DenyHandler) Option {
	return func(l *Limiter) {
		if h != nil {
			l.onDeny = h
		}
	}
}

// WithCleanupInterval overrides the background sweep cadence. Intended for
// tests; the default is min(Window, 1m).
func WithCleanupInterval(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.cleanupEvery = d
		}
	}
}

// New creates a limiter and starts its background cleanup goroutine.
func New(cfg Config, opts ...Option) (*Limiter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	l := &Limiter{
		cfg:       cfg,
		violators: make(map[string]int64),
		stop:      make(chan struct{}),
	}
	for i := range l.shards {
		l.shards[i] = &shard{entries: make(map[string]*entry)}
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.cleanupEvery == 0 {
		l.cleanupEvery = min(cfg.Window, maxCleanupInterval)
	}

	go l.cleanupLoop()

	return l, nil
}

// checkOptions carries per-check flags.
type checkOptions struct {
	outcome *bool
}

// CheckOption configures a single Check call.
type CheckOption func(*checkOptions)

// WithOutcome reports whether the guarded operation succeeded, enabling the
// SkipSuccessful/SkipFailed config flags.
func WithOutcome(success bool) CheckOption {
	return func(o *checkOptions) { o.outcome = &success }
}

// Check consumes one unit of quota for the identifier and reports whether
// the request is allowed. The window is rolled over before the strategy is
// applied. When the configured skip flag matches the reported outcome, the
// current state is returned as allowed without consuming quota.
func (l *Limiter) Check(identifier string, opts ...CheckOption) Result {
	var co checkOptions
	for _, opt := range opts {
		opt(&co)
	}

	cfg := l.config()
	key := cfg.key(identifier)
	now := time.Now()

	sh := l.shard(key)
	sh.mu.Lock()

	e, ok := sh.entries[key]
	if !ok {
		e = &entry{
			windowStart: now,
			resetAt:     now.Add(cfg.Window),
			tokens:      float64(cfg.MaxRequests),
			lastRefill:  now,
		}
		sh.entries[key] = e
	}

	maxReqs := e.effectiveMax(cfg)
	window := e.effectiveWindow(cfg)

	// Window rollover happens before the strategy is applied.
	if now.After(e.resetAt) {
		e.count = 0
		e.windowStart = now
		e.resetAt = now.Add(window)
	}

	if co.outcome != nil && ((cfg.SkipSuccessful && *co.outcome) || (cfg.SkipFailed && !*co.outcome)) {
		res := resultFromEntry(e, maxReqs, true)
		sh.mu.Unlock()
		l.recordCheck(identifier, res)
		return res
	}

	var res Result
	switch cfg.strategy() {
	case StrategySlidingWindow:
		// Decay the counter by the elapsed fraction of the window, at
		// millisecond resolution. This is an approximation, not a
		// timestamped sliding log: flooring the decayed counter means any
		// elapsed time forgives part of a burst.
		elapsedMs := now.Sub(e.windowStart).Milliseconds()
		if factor := 1 - float64(elapsedMs)/float64(window.Milliseconds()); factor > 0 {
			e.count = int(float64(e.count) * factor)
		} else {
			e.count = 0
		}
		res = l.fixedWindowCheck(e, maxReqs, now)

	case StrategyTokenBucket:
		rate := float64(maxReqs) / window.Seconds()
		e.tokens = min(float64(maxReqs), e.tokens+now.Sub(e.lastRefill).Seconds()*rate)
		e.lastRefill = now

		if e.tokens >= 1 {
			e.tokens--
			e.count++
			res = Result{Allowed: true, Limit: maxReqs, Remaining: int(e.tokens), ResetAt: e.resetAt}
		} else {
			res = denied(maxReqs, e.resetAt, now)
		}

	case StrategyLeakyBucket:
		leakRate := float64(maxReqs) / window.Seconds()
		if leaked := int(now.Sub(e.windowStart).Seconds() * leakRate); leaked > 0 {
			e.count = max(0, e.count-leaked)
		}
		e.windowStart = now
		res = l.fixedWindowCheck(e, maxReqs, now)

	default: // fixed window
		res = l.fixedWindowCheck(e, maxReqs, now)
	}

	sh.mu.Unlock()

	l.recordCheck(identifier, res)
	if !res.Allowed {
		l.recordDenial(identifier, res)
	}

	return res
}

// fixedWindowCheck applies the shared allow-and-increment step. Caller
// holds the shard lock.
func (l *Limiter) fixedWindowCheck(e *entry, maxReqs int, now time.Time) Result {
	if e.count < maxReqs {
		e.count++
		return Result{
			Allowed:   true,
			Limit:     maxReqs,
			Remaining: maxReqs - e.count,
			ResetAt:   e.resetAt,
		}
	}
	return denied(maxReqs, e.resetAt, now)
}

func denied(maxReqs int, resetAt, now time.Time) Result {
	retry := resetAt.Sub(now)
	if retry < 0 {
		retry = 0
	}
	// Round up to whole seconds for the Retry-After hint.
	retry = (retry + time.Second - 1) / time.Second * time.Second
	if retry == 0 {
		retry = time.Second
	}
	return Result{Limit: maxReqs, Remaining: 0, ResetAt: resetAt, RetryAfter: retry}
}

func resultFromEntry(e *entry, maxReqs int, allowed bool) Result {
	return Result{
		Allowed:   allowed,
		Limit:     maxReqs,
		Remaining: max(0, maxReqs-e.count),
		ResetAt:   e.resetAt,
	}
}

// Peek returns the current state for an identifier without consuming quota
// or creating an entry.
func (l *Limiter) Peek(identifier string) Result {
	cfg := l.config()
	key := cfg.key(identifier)
	now := time.Now()

	sh := l.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.entries[key]
	if !ok {
		return Result{
			Allowed:   true,
			Limit:     cfg.MaxRequests,
			Remaining: cfg.MaxRequests,
			ResetAt:   now.Add(cfg.Window),
		}
	}

	maxReqs := e.effectiveMax(cfg)
	window := e.effectiveWindow(cfg)

	// A lapsed window reads as a full allowance, at the entry's effective
	// limits so Peek agrees with what Check's rollover would grant.
	if now.After(e.resetAt) {
		return Result{
			Allowed:   true,
			Limit:     maxReqs,
			Remaining: maxReqs,
			ResetAt:   now.Add(window),
		}
	}

	switch cfg.strategy() {
	case StrategyTokenBucket:
		rate := float64(maxReqs) / window.Seconds()
		tokens := min(float64(maxReqs), e.tokens+now.Sub(e.lastRefill).Seconds()*rate)
		return Result{
			Allowed:   tokens >= 1,
			Limit:     maxReqs,
			Remaining: int(tokens),
			ResetAt:   e.resetAt,
		}
	default:
		return resultFromEntry(e, maxReqs, e.count < maxReqs)
	}
}

// IsAllowed reports whether a check for the identifier would currently
// pass, without consuming quota.
func (l *Limiter) IsAllowed(identifier string) bool {
	return l.Peek(identifier).Allowed
}

// Remaining returns the identifier's remaining quota without consuming any.
func (l *Limiter) Remaining(identifier string) int {
	return l.Peek(identifier).Remaining
}

// ResetTime returns when the identifier's window resets.
func (l *Limiter) ResetTime(identifier string) time.Time {
	return l.Peek(identifier).ResetAt
}

// Reset clears state for one identifier. Always succeeds.
func (l *Limiter) Reset(identifier string) {
	cfg := l.config()
	key := cfg.key(identifier)

	sh := l.shard(key)
	sh.mu.Lock()
	delete(sh.entries, key)
	sh.mu.Unlock()

	l.emit(events.TypeRateLimitReset, map[string]any{"identifier": identifier})
}

// ResetAll clears state for every identifier. Lifetime stats are kept.
func (l *Limiter) ResetAll() {
	for _, sh := range l.shards {
		sh.mu.Lock()
		clear(sh.entries)
		sh.mu.Unlock()
	}

	l.emit(events.TypeRateLimitResetAll, nil)
}

// SetLimit overrides the max request count for an identifier. Effective
// only while an entry exists (i.e. the identifier has been checked and not
// yet evicted).
func (l *Limiter) SetLimit(identifier string, maxRequests int) {
	if maxRequests <= 0 {
		return
	}
	l.withEntry(identifier, func(e *entry) {
		e.maxOverride = maxRequests
	})
}

// SetWindow overrides the window for an identifier and recomputes its reset
// time from the current window start. Effective only while an entry exists.
func (l *Limiter) SetWindow(identifier string, window time.Duration) {
	if window <= 0 {
		return
	}
	l.withEntry(identifier, func(e *entry) {
		e.windowOverride = window
		e.resetAt = e.windowStart.Add(window)
	})
}

func (l *Limiter) withEntry(identifier string, fn func(*entry)) {
	key := l.config().key(identifier)
	sh := l.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if e, ok := sh.entries[key]; ok {
		fn(e)
	}
}

// SetStrategy switches the algorithm; subsequent checks use it
// immediately. Returns ErrClosed after Close.
func (l *Limiter) SetStrategy(s Strategy) error {
	if l.closed.Load() {
		return ErrClosed
	}

	l.cfgMu.Lock()
	defer l.cfgMu.Unlock()

	cfg := l.cfg
	cfg.Strategy = s
	if err := cfg.validate(); err != nil {
		return err
	}
	l.cfg = cfg
	return nil
}

// SetConfig replaces the limiter configuration; subsequent checks use the
// new values immediately. Existing per-identifier state is kept. Returns
// ErrClosed after Close.
func (l *Limiter) SetConfig(cfg Config) error {
	if l.closed.Load() {
		return ErrClosed
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	l.cfgMu.Lock()
	l.cfg = cfg
	l.cfgMu.Unlock()
	return nil
}

// Config returns a copy of the current configuration.
func (l *Limiter) Config() Config {
	return l.config()
}

// Stats returns lifetime totals and the top blocked identifiers.
func (l *Limiter) Stats() Stats {
	l.violatorsMu.Lock()
	violators := make([]Violator, 0, len(l.violators))
	for id, blocked := range l.violators {
		violators = append(violators, Violator{Identifier: id, Blocked: blocked})
	}
	l.violatorsMu.Unlock()

	sort.Slice(violators, func(i, j int) bool {
		if violators[i].Blocked != violators[j].Blocked {
			return violators[i].Blocked > violators[j].Blocked
		}
		return violators[i].Identifier < violators[j].Identifier
	})
	if len(violators) > maxViolators {
		violators = violators[:maxViolators]
	}

	return Stats{
		TotalRequests:   l.total.Load(),
		AllowedRequests: l.allowed.Load(),
		BlockedRequests: l.blocked.Load(),
		TopViolators:    violators,
	}
}

// Close stops the cleanup goroutine and clears all state. Idempotent.
func (l *Limiter) Close() error {
	l.stopOnce.Do(func() {
		l.closed.Store(true)
		close(l.stop)
	})

	for _, sh := range l.shards {
		sh.mu.Lock()
		clear(sh.entries)
		sh.mu.Unlock()
	}

	return nil
}

func (l *Limiter) config() Config {
	l.cfgMu.RLock()
	defer l.cfgMu.RUnlock()
	return l.cfg
}

func (l *Limiter) shard(key string) *shard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return l.shards[h.Sum32()%shardCount]
}

func (l *Limiter) recordCheck(identifier string, res Result) {
	l.total.Add(1)
	if res.Allowed {
		l.allowed.Add(1)
	} else {
		l.blocked.Add(1)
	}

	l.emit(events.TypeRateLimitChecked, map[string]any{
		"identifier": identifier,
		"allowed":    res.Allowed,
		"remaining":  res.Remaining,
	})
}

func (l *Limiter) recordDenial(identifier string, res Result) {
	l.violatorsMu.Lock()
	l.violators[identifier]++
	l.violatorsMu.Unlock()

	if l.onDeny != nil {
		l.onDeny(identifier, res)
		return
	}

	l.emit(events.TypeRateLimitExceeded, map[string]any{
		"identifier":  identifier,
		"retry_after": res.RetryAfterSeconds(),
	})
}

func (l *Limiter) emit(t events.Type, fields map[string]any) {
	if l.emitter != nil {
		l.emitter.Emit(events.New(t, fields))
	}
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.cleanupEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if evicted := l.evictExpired(); evicted > 0 {
				l.emit(events.TypeRateLimitCleanup, map[string]any{"evicted": evicted})
			}
		case <-l.stop:
			return
		}
	}
}

func (l *Limiter) evictExpired() int {
	now := time.Now()
	evicted := 0

	for _, sh := range l.shards {
		sh.mu.Lock()
		for key, e := range sh.entries {
			if now.After(e.resetAt) {
				delete(sh.entries, key)
				evicted++
			}
		}
		sh.mu.Unlock()
	}

	return evicted
}

func (e *entry) effectiveMax(cfg Config) int {
	if e.maxOverride > 0 {
		return e.maxOverride
	}
	return cfg.MaxRequests
}

func (e *entry) effectiveWindow(cfg Config) time.Duration {
	if e.windowOverride > 0 {
		return e.windowOverride
	}
	return cfg.Window
}
