package guard

import (
	"strings"
	"sync"

	"github.com/dmitrymomot/gatekit/pkg/events"
)

// routeKey builds the registry key for a method/path pair.
func routeKey(method, path string) string {
	return strings.ToUpper(method) + ":" + path
}

// routeRegistry maps "METHOD:path" to route policy. Lookups are read-only
// during guard evaluation; registration is expected to happen at startup
// but is safe at any time.
type routeRegistry struct {
	mu      sync.RWMutex
	routes  map[string]*RouteConfig
	emitter *events.Emitter
}

func newRouteRegistry(em *events.Emitter) *routeRegistry {
	return &routeRegistry{
		routes:  make(map[string]*RouteConfig),
		emitter: em,
	}
}

func (rr *routeRegistry) register(rc RouteConfig) error {
	if rc.Method == "" || rc.Path == "" {
		return ErrInvalidRoute
	}
	rc.Method = strings.ToUpper(rc.Method)

	rr.mu.Lock()
	rr.routes[routeKey(rc.Method, rc.Path)] = &rc
	rr.mu.Unlock()

	rr.emit(events.TypeRouteRegistered, rc.Method, rc.Path)
	return nil
}

func (rr *routeRegistry) unregister(method, path string) error {
	key := routeKey(method, path)

	rr.mu.Lock()
	_, ok := rr.routes[key]
	if ok {
		delete(rr.routes, key)
	}
	rr.mu.Unlock()

	if !ok {
		return ErrRouteNotFound
	}

	rr.emit(events.TypeRouteUnregistered, strings.ToUpper(method), path)
	return nil
}

func (rr *routeRegistry) lookup(method, path string) *RouteConfig {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	return rr.routes[routeKey(method, path)]
}

func (rr *routeRegistry) emit(t events.Type, method, path string) {
	if rr.emitter != nil {
		rr.emitter.Emit(events.New(t, map[string]any{"method": method, "path": path}))
	}
}
