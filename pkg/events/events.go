package events

import "time"

// Type identifies an emitted event.
type Type string

// Events emitted by the rate limiter, guard, and route registry.
const (
	TypeRateLimitExceeded Type = "rateLimit:exceeded"
	TypeRateLimitChecked  Type = "rateLimit:checked"
	TypeRateLimitReset    Type = "rateLimit:reset"
	TypeRateLimitResetAll Type = "rateLimit:resetAll"
	TypeRateLimitCleanup  Type = "rateLimit:cleanup"

	TypeSecurityEvent Type = "security:event"

	TypeRouteRegistered   Type = "route:registered"
	TypeRouteUnregistered Type = "route:unregistered"

	TypeWhitelistAdded   Type = "ip:whitelist:added"
	TypeWhitelistRemoved Type = "ip:whitelist:removed"
	TypeBlacklistAdded   Type = "ip:blacklist:added"
	TypeBlacklistRemoved Type = "ip:blacklist:removed"
)

// Event is a single notification delivered to subscribers.
type Event struct {
	Type   Type
	At     time.Time
	Fields map[string]any
}

// New builds an event stamped with the current time.
func New(t Type, fields map[string]any) Event {
	return Event{Type: t, At: time.Now(), Fields: fields}
}
