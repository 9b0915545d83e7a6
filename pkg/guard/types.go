package guard

import (
	"time"

	"github.com/dmitrymomot/gatekit/pkg/ratelimit"
	"github.com/dmitrymomot/gatekit/pkg/schema"
)

// Verdict is the guard's allow/deny decision with HTTP-shaped metadata.
// A denial carries the status code, response headers, and body the caller
// should relay to the client.
type Verdict struct {
	Allowed    bool
	StatusCode int
	Reason     string
	Headers    map[string]string
	Body       any

	// Auth is present after successful authentication so callers can
	// propagate the identity downstream.
	Auth *AuthContext
}

// Denial reasons reported in verdicts and response bodies.
const (
	ReasonIPBlacklisted    = "ip_blacklisted"
	ReasonIPNotWhitelisted = "ip_not_whitelisted"
	ReasonRateLimited      = "rate_limit_exceeded"
	ReasonUnauthorized     = "unauthorized"
	ReasonForbidden        = "forbidden"
	ReasonInvalidInput     = "invalid_input"
	ReasonInvalidSignature = "invalid_signature"
	ReasonInternalError    = "internal_error"
)

// AuthContext is the per-request identity derived from a verified
// credential. It is never persisted; its lifetime is one request.
type AuthContext struct {
	Authenticated bool
	UserID        string
	Roles         []string
	Permissions   []string
}

// RouteConfig declares per-route policy overrides consumed during guard
// evaluation.
type RouteConfig struct {
	Method string
	Path   string

	// RequireAuth forces authentication for this route even when the
	// guard-wide flag is off.
	RequireAuth bool

	// Roles/Permissions the authenticated principal must hold (at least
	// one from each non-empty set).
	Roles       []string
	Permissions []string

	// RateLimit overrides the global limiter for this route. The guard
	// maintains one shared limiter per registered route config rather than
	// constructing throwaway instances per request.
	RateLimit *ratelimit.Config

	// Schema validates the request body and query parameters.
	Schema schema.Schema
}

// Request-signing headers and replay window.
const (
	HeaderSignature = "X-Signature"
	HeaderTimestamp = "X-Timestamp"

	// DefaultSignatureSkew bounds the accepted clock drift for signed
	// requests.
	DefaultSignatureSkew = 5 * time.Minute
)
