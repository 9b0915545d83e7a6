package guard

import (
	"time"

	"github.com/dmitrymomot/gatekit/pkg/ratelimit"
)

// Config defines guard behavior. Fields are env-taggable so the whole
// struct can be populated with pkg/config; the JWT secret is required and
// its absence fails construction immediately.
type Config struct {
	// JWTSecret signs and verifies access tokens.
	JWTSecret string `env:"JWT_SECRET,required"`

	// SigningSecret verifies request signatures. Required only when
	// RequireSigning is set.
	SigningSecret string `env:"SIGNING_SECRET"`

	// TokenTTL is the lifetime of tokens issued by GenerateToken.
	TokenTTL time.Duration `env:"TOKEN_TTL" envDefault:"1h"`

	// TokenIssuer is stamped into issued tokens.
	TokenIssuer string `env:"TOKEN_ISSUER" envDefault:"gatekit"`

	// RequireAuth demands a valid bearer token on every guarded request.
	// Individual routes can also require auth via RouteConfig.
	RequireAuth bool `env:"REQUIRE_AUTH" envDefault:"false"`

	// RequireSigning demands X-Signature/X-Timestamp headers on every
	// guarded request.
	RequireSigning bool `env:"REQUIRE_SIGNING" envDefault:"false"`

	// SignatureMaxSkew bounds the replay window for signed requests.
	SignatureMaxSkew time.Duration `env:"SIGNATURE_MAX_SKEW" envDefault:"5m"`

	// RateLimit configures the global limiter. Zero values fall back to
	// 100 requests per minute, fixed window.
	RateLimit ratelimit.Config
}

func (c *Config) applyDefaults() {
	if c.TokenTTL == 0 {
		c.TokenTTL = time.Hour
	}
	if c.TokenIssuer == "" {
		c.TokenIssuer = "gatekit"
	}
	if c.SignatureMaxSkew <= 0 {
		c.SignatureMaxSkew = DefaultSignatureSkew
	}
	if c.RateLimit.Window <= 0 {
		c.RateLimit.Window = time.Minute
	}
	if c.RateLimit.MaxRequests <= 0 {
		c.RateLimit.MaxRequests = 100
	}
}
