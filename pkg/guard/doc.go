// Package guard composes request admission controls into an ordered,
// fail-fast pipeline: IP blacklist, IP whitelist, rate limiting,
// authentication, authorization, input validation, and request signing.
// The first failing check decides the verdict; later checks never run.
//
// A Guard is built from a Config and optional collaborators:
//
//	g, err := guard.New(guard.Config{JWTSecret: secret})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer g.Close()
//
//	mux.Handle("/api/", g.Middleware()(apiHandler))
//
// Per-route policy (auth requirements, roles, schemas, rate limit
// overrides) is registered up front:
//
//	g.RegisterRoute(guard.RouteConfig{
//		Method:      "POST",
//		Path:        "/api/orders",
//		RequireAuth: true,
//		Permissions: []string{"orders.write"},
//	})
//
// Every denial is recorded in a bounded security log queryable via
// SecurityEvents and SecurityStats. Collaborators (token service,
// validator, signer, limiter) default to the package implementations and
// can be replaced through options for testing or alternative backends.
package guard
