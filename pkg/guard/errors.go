package guard

import "errors"

var (
	// ErrMissingSecret is returned by New when no JWT secret is configured.
	// Construction fails fast; the error is never deferred to first request.
	ErrMissingSecret = errors.New("guard: missing JWT secret")

	// ErrMissingSigningSecret is returned when request signing is required
	// but no signing secret is configured.
	ErrMissingSigningSecret = errors.New("guard: signing required but no signing secret configured")

	// ErrInvalidRoute is returned when registering a route without a method
	// or path.
	ErrInvalidRoute = errors.New("guard: route method and path are required")

	// ErrRouteNotFound is returned when unregistering an unknown route.
	ErrRouteNotFound = errors.New("guard: route not registered")
)
