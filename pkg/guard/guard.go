package guard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/gatekit/pkg/clientip"
	"github.com/dmitrymomot/gatekit/pkg/events"
	"github.com/dmitrymomot/gatekit/pkg/jwt"
	"github.com/dmitrymomot/gatekit/pkg/ratelimit"
	"github.com/dmitrymomot/gatekit/pkg/schema"
	"github.com/dmitrymomot/gatekit/pkg/scopes"
	"github.com/dmitrymomot/gatekit/pkg/securitylog"
	"github.com/dmitrymomot/gatekit/pkg/signature"
)

// maxBodyBytes bounds how much of a request body the guard reads for
// validation and signature checks.
const maxBodyBytes = 1 << 20

// TokenService issues and verifies access tokens.
type TokenService interface {
	Generate(claims any) (string, error)
	Parse(token string, claims any) error
}

// SchemaValidator checks request values against a route schema.
type SchemaValidator interface {
	Validate(values map[string]any, s schema.Schema) error
}

// RequestSigner verifies request signatures.
type RequestSigner interface {
	Verify(method, path, timestamp string, body []byte, sig string, maxSkew time.Duration) error
}

// schemaValidatorFunc adapts a plain function to SchemaValidator.
type schemaValidatorFunc func(values map[string]any, s schema.Schema) error

func (f schemaValidatorFunc) Validate(values map[string]any, s schema.Schema) error {
	return f(values, s)
}

// Guard runs the ordered request-admission pipeline: IP lists, rate
// limiting, authentication, authorization, input validation, and request
// signing. Collaborators are injected; defaults cover every concern so a
// Guard built from just a Config is fully functional.
type Guard struct {
	cfg Config

	tokens    TokenService
	validator SchemaValidator
	signer    RequestSigner

	limiter      *ratelimit.Limiter
	ownedLimiter bool

	// Per-route limiters share the guard's lifecycle instead of being
	// constructed and destroyed per request.
	routeLimitersMu sync.Mutex
	routeLimiters   map[string]*ratelimit.Limiter

	routes *routeRegistry
	ips    *ipLists

	seclog  *securitylog.Log
	emitter *events.Emitter
	log     *slog.Logger

	closeOnce sync.Once
}

// Option injects a collaborator or replaces a default.
type Option func(*Guard)

// WithTokenService replaces the default JWT token service.
func WithTokenService(ts TokenService) Option {
	return func(g *Guard) {
		if ts != nil {
			g.tokens = ts
		}
	}
}

// WithValidator replaces the default schema validator.
func WithValidator(v SchemaValidator) Option {
	return func(g *Guard) {
		if v != nil {
			g.validator = v
		}
	}
}

// WithSigner replaces the default request signer.
func WithSigner(s RequestSigner) Option {
	return func(g *Guard) {
		if s != nil {
			g.signer = s
		}
	}
}

// WithLimiter supplies an externally owned global limiter. The guard will
// not close it.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(g *Guard) {
		if l != nil {
			g.limiter = l
		}
	}
}

// WithSecurityLog replaces the default bounded audit trail.
func WithSecurityLog(sl *securitylog.Log) Option {
	return func(g *Guard) {
		if sl != nil {
			g.seclog = sl
		}
	}
}

// WithEmitter attaches an event emitter for guard notifications.
func WithEmitter(em *events.Emitter) Option {
	return func(g *Guard) { g.emitter = em }
}

// WithLogger replaces the default logger.
func WithLogger(log *slog.Logger) Option {
	return func(g *Guard) {
		if log != nil {
			g.log = log
		}
	}
}

// New builds a guard from the configuration, failing fast on missing
// secrets rather than deferring errors to the first request.
func New(cfg Config, opts ...Option) (*Guard, error) {
	if cfg.JWTSecret == "" {
		return nil, ErrMissingSecret
	}
	if cfg.RequireSigning && cfg.SigningSecret == "" {
		return nil, ErrMissingSigningSecret
	}
	cfg.applyDefaults()

	g := &Guard{
		cfg:           cfg,
		routeLimiters: make(map[string]*ratelimit.Limiter),
		ips:           newIPLists(),
		log:           slog.Default(),
	}

	for _, opt := range opts {
		opt(g)
	}

	g.routes = newRouteRegistry(g.emitter)

	if g.tokens == nil {
		svc, err := jwt.NewFromString(cfg.JWTSecret)
		if err != nil {
			return nil, err
		}
		g.tokens = svc
	}

	if g.validator == nil {
		g.validator = schemaValidatorFunc(schema.Validate)
	}

	if g.signer == nil && cfg.SigningSecret != "" {
		signer, err := signature.New(cfg.SigningSecret)
		if err != nil {
			return nil, err
		}
		g.signer = signer
	}

	if g.limiter == nil {
		limiter, err := ratelimit.New(cfg.RateLimit, ratelimit.WithEmitter(g.emitter))
		if err != nil {
			return nil, err
		}
		g.limiter = limiter
		g.ownedLimiter = true
	}

	if g.seclog == nil {
		g.seclog = securitylog.New(securitylog.DefaultCapacity)
	}

	return g, nil
}

// Guard evaluates the admission pipeline for a request. It never panics
// outward: internal errors become a 500 verdict with a generic body while
// the detail goes to the server log.
func (g *Guard) Guard(r *http.Request) (verdict Verdict) {
	defer func() {
		if rec := recover(); rec != nil {
			g.log.Error("guard pipeline panic",
				slog.Any("panic", rec),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)
			g.record(securitylog.KindSecurityViolation, r, "", map[string]any{
				"error": fmt.Sprint(rec),
			})
			verdict = deny(http.StatusInternalServerError, ReasonInternalError)
		}
	}()

	ip := clientip.FromRequest(r)
	route := g.routes.lookup(r.Method, r.URL.Path)

	// 1. Blacklist membership.
	if g.ips.isBlacklisted(ip) {
		g.record(securitylog.KindSecurityViolation, r, "", map[string]any{"reason": ReasonIPBlacklisted, "ip": ip})
		return deny(http.StatusForbidden, ReasonIPBlacklisted)
	}

	// 2. Whitelist membership.
	if g.ips.rejectedByWhitelist(ip) {
		g.record(securitylog.KindSecurityViolation, r, "", map[string]any{"reason": ReasonIPNotWhitelisted, "ip": ip})
		return deny(http.StatusForbidden, ReasonIPNotWhitelisted)
	}

	// 3. Rate limiting: route override or global limiter.
	limiter := g.limiter
	if route != nil && route.RateLimit != nil {
		if rl, err := g.routeLimiter(route); err == nil {
			limiter = rl
		} else {
			g.log.Error("route limiter construction failed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Any("error", err),
			)
		}
	}

	if res := limiter.Check(ip); !res.Allowed {
		g.record(securitylog.KindRateLimitExceeded, r, "", map[string]any{
			"ip":          ip,
			"retry_after": res.RetryAfterSeconds(),
		})
		v := deny(http.StatusTooManyRequests, ReasonRateLimited)
		v.Headers = map[string]string{
			"Retry-After":           strconv.Itoa(res.RetryAfterSeconds()),
			"X-RateLimit-Limit":     strconv.Itoa(res.Limit),
			"X-RateLimit-Remaining": strconv.Itoa(res.Remaining),
			"X-RateLimit-Reset":     res.ResetAt.UTC().Format(time.RFC3339),
		}
		return v
	}

	// 4. Authentication.
	auth := &AuthContext{}
	if g.cfg.RequireAuth || (route != nil && route.RequireAuth) {
		claims, reason := g.authenticate(r)
		if claims == nil {
			g.record(securitylog.KindAuthFailure, r, "", map[string]any{"reason": reason})
			return deny(http.StatusUnauthorized, ReasonUnauthorized)
		}
		auth = &AuthContext{
			Authenticated: true,
			UserID:        claims.Subject,
			Roles:         claims.Roles,
			Permissions:   claims.Permissions,
		}
		g.record(securitylog.KindAuthSuccess, r, auth.UserID, nil)
	}

	// 5. Authorization against route policy.
	if route != nil && (len(route.Roles) > 0 || len(route.Permissions) > 0) {
		if reason := authorize(auth, route); reason != "" {
			g.record(securitylog.KindAuthzFailure, r, auth.UserID, map[string]any{"reason": reason})
			return deny(http.StatusForbidden, ReasonForbidden)
		}
		g.record(securitylog.KindAuthzSuccess, r, auth.UserID, nil)
	}

	// 6. Input validation.
	if route != nil && len(route.Schema) > 0 {
		if v, failed := g.validateInput(r, route); failed {
			g.record(securitylog.KindInvalidInput, r, auth.UserID, map[string]any{"errors": v.Body})
			return v
		}
	}

	// 7. Request signing.
	if g.cfg.RequireSigning {
		if err := g.verifySignature(r); err != nil {
			g.record(securitylog.KindAuthFailure, r, auth.UserID, map[string]any{
				"reason": ReasonInvalidSignature,
				"error":  err.Error(),
			})
			return deny(http.StatusUnauthorized, ReasonInvalidSignature)
		}
	}

	return Verdict{Allowed: true, StatusCode: http.StatusOK, Auth: auth}
}

// authenticate extracts and verifies the bearer token. Returns nil claims
// and a reason string on failure.
func (g *Guard) authenticate(r *http.Request) (*jwt.AccessClaims, string) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, "missing authorization header"
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return nil, "malformed authorization header"
	}

	var claims jwt.AccessClaims
	if err := g.tokens.Parse(parts[1], &claims); err != nil {
		if errors.Is(err, jwt.ErrExpiredToken) {
			return nil, "token expired"
		}
		return nil, "invalid token"
	}

	// Expiry is re-checked independently of the verifier so a token
	// service without temporal validation still cannot admit stale tokens.
	if claims.ExpiresAt > 0 && time.Now().Unix() > claims.ExpiresAt {
		return nil, "token expired"
	}

	return &claims, ""
}

// authorize checks route role/permission requirements (logical OR within
// each set). Returns a non-empty reason on failure.
func authorize(auth *AuthContext, route *RouteConfig) string {
	if !auth.Authenticated {
		return "authentication required"
	}
	if len(route.Roles) > 0 && !scopes.HasAny(auth.Roles, route.Roles) {
		return "missing required role"
	}
	if len(route.Permissions) > 0 && !scopes.HasAny(auth.Permissions, route.Permissions) {
		return "missing required permission"
	}
	return ""
}

// validateInput merges the JSON body with query parameters and applies the
// route schema. All field errors are aggregated into a single 400 verdict.
func (g *Guard) validateInput(r *http.Request, route *RouteConfig) (Verdict, bool) {
	values := make(map[string]any)

	body, err := g.readBody(r)
	if err != nil {
		v := deny(http.StatusBadRequest, ReasonInvalidInput)
		v.Body = map[string]any{"error": ReasonInvalidInput, "details": "unreadable request body"}
		return v, true
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &values); err != nil {
			v := deny(http.StatusBadRequest, ReasonInvalidInput)
			v.Body = map[string]any{"error": ReasonInvalidInput, "details": "malformed JSON body"}
			return v, true
		}
	}

	for key, vals := range r.URL.Query() {
		if _, exists := values[key]; !exists && len(vals) > 0 {
			values[key] = vals[0]
		}
	}

	if err := g.validator.Validate(values, route.Schema); err != nil {
		details := any(err.Error())
		if fe, ok := schema.AsFieldErrors(err); ok {
			details = fe
		}
		v := deny(http.StatusBadRequest, ReasonInvalidInput)
		v.Body = map[string]any{"error": ReasonInvalidInput, "details": details}
		return v, true
	}

	return Verdict{}, false
}

func (g *Guard) verifySignature(r *http.Request) error {
	sig := r.Header.Get(HeaderSignature)
	ts := r.Header.Get(HeaderTimestamp)

	body, err := g.readBody(r)
	if err != nil {
		return err
	}

	return g.signer.Verify(r.Method, r.URL.Path, ts, body, sig, g.cfg.SignatureMaxSkew)
}

// readBody consumes the request body (bounded) and restores it so
// downstream handlers can read it again.
func (g *Guard) readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	_ = r.Body.Close()
	if err != nil {
		return nil, err
	}

	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}

// routeLimiter returns the shared limiter for a route config, creating it
// on first use.
func (g *Guard) routeLimiter(route *RouteConfig) (*ratelimit.Limiter, error) {
	key := routeKey(route.Method, route.Path)

	g.routeLimitersMu.Lock()
	defer g.routeLimitersMu.Unlock()

	if l, ok := g.routeLimiters[key]; ok {
		return l, nil
	}

	l, err := ratelimit.New(*route.RateLimit, ratelimit.WithEmitter(g.emitter))
	if err != nil {
		return nil, err
	}
	g.routeLimiters[key] = l
	return l, nil
}

// RegisterRoute adds or replaces per-route policy.
func (g *Guard) RegisterRoute(rc RouteConfig) error {
	return g.routes.register(rc)
}

// UnregisterRoute removes route policy and shuts down its limiter.
func (g *Guard) UnregisterRoute(method, path string) error {
	if err := g.routes.unregister(method, path); err != nil {
		return err
	}

	key := routeKey(method, path)
	g.routeLimitersMu.Lock()
	if l, ok := g.routeLimiters[key]; ok {
		delete(g.routeLimiters, key)
		_ = l.Close()
	}
	g.routeLimitersMu.Unlock()

	return nil
}

// GenerateToken issues a signed access token carrying the user's identity,
// roles, and permissions with the configured TTL.
func (g *Guard) GenerateToken(userID string, roles, permissions []string) (string, error) {
	now := time.Now()
	return g.tokens.Generate(jwt.AccessClaims{
		StandardClaims: jwt.StandardClaims{
			Subject:   userID,
			Issuer:    g.cfg.TokenIssuer,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(g.cfg.TokenTTL).Unix(),
		},
		Roles:       scopes.Normalize(roles),
		Permissions: scopes.Normalize(permissions),
	})
}

// SecurityEvents returns up to limit audit events, newest first.
func (g *Guard) SecurityEvents(limit int) []securitylog.Event {
	return g.seclog.Events(limit)
}

// SecurityStats returns lifetime audit counters per event kind.
func (g *Guard) SecurityStats() securitylog.Stats {
	return g.seclog.Stats()
}

// RateLimitStats returns the global limiter's stats.
func (g *Guard) RateLimitStats() ratelimit.Stats {
	return g.limiter.Stats()
}

// Close releases the guard's limiters. Idempotent.
func (g *Guard) Close() error {
	g.closeOnce.Do(func() {
		if g.ownedLimiter {
			_ = g.limiter.Close()
		}

		g.routeLimitersMu.Lock()
		for key, l := range g.routeLimiters {
			_ = l.Close()
			delete(g.routeLimiters, key)
		}
		g.routeLimitersMu.Unlock()
	})
	return nil
}

// record appends a security event and mirrors it on the emitter.
func (g *Guard) record(kind securitylog.Kind, r *http.Request, userID string, details map[string]any) {
	event := g.seclog.Record(securitylog.Event{
		Kind:    kind,
		IP:      clientip.FromRequest(r),
		Method:  r.Method,
		Path:    r.URL.Path,
		UserID:  userID,
		Details: details,
	})

	g.emit(events.TypeSecurityEvent, map[string]any{
		"kind": string(event.Kind),
		"id":   event.ID,
		"path": event.Path,
	})
}

func (g *Guard) emit(t events.Type, fields map[string]any) {
	if g.emitter != nil {
		g.emitter.Emit(events.New(t, fields))
	}
}

func deny(status int, reason string) Verdict {
	return Verdict{
		Allowed:    false,
		StatusCode: status,
		Reason:     reason,
	}
}
