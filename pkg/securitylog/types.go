package securitylog

import "time"

// Kind discriminates security events recorded by the guard and limiter.
type Kind string

const (
	KindAuthSuccess       Kind = "auth_success"
	KindAuthFailure       Kind = "auth_failure"
	KindAuthzSuccess      Kind = "authz_success"
	KindAuthzFailure      Kind = "authz_failure"
	KindRateLimitExceeded Kind = "rate_limit_exceeded"
	KindInvalidInput      Kind = "invalid_input"
	KindSecurityViolation Kind = "security_violation"
)

// Event is a single security audit entry.
type Event struct {
	ID      string         `json:"id"`
	Kind    Kind           `json:"kind"`
	At      time.Time      `json:"at"`
	IP      string         `json:"ip,omitempty"`
	Method  string         `json:"method,omitempty"`
	Path    string         `json:"path,omitempty"`
	UserID  string         `json:"user_id,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Stats aggregates recorded events per kind. Counters include events that
// have already been evicted from the ring.
type Stats struct {
	Total  int64          `json:"total"`
	ByKind map[Kind]int64 `json:"by_kind"`
}
