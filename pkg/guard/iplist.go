package guard

import (
	"sync"

	"github.com/dmitrymomot/gatekit/pkg/events"
)

// ipLists holds the guard's blacklist and whitelist. The whitelist only
// takes effect when explicitly enabled and non-empty.
type ipLists struct {
	mu               sync.RWMutex
	blacklist        map[string]struct{}
	whitelist        map[string]struct{}
	whitelistEnabled bool
}

func newIPLists() *ipLists {
	return &ipLists{
		blacklist: make(map[string]struct{}),
		whitelist: make(map[string]struct{}),
	}
}

func (ip *ipLists) isBlacklisted(addr string) bool {
	ip.mu.RLock()
	defer ip.mu.RUnlock()
	_, ok := ip.blacklist[addr]
	return ok
}

// rejectedByWhitelist reports whether whitelist enforcement is active and
// the address is not on it.
func (ip *ipLists) rejectedByWhitelist(addr string) bool {
	ip.mu.RLock()
	defer ip.mu.RUnlock()

	if !ip.whitelistEnabled || len(ip.whitelist) == 0 {
		return false
	}
	_, ok := ip.whitelist[addr]
	return !ok
}

// BlockIP adds an address to the blacklist.
func (g *Guard) BlockIP(addr string) {
	g.ips.mu.Lock()
	g.ips.blacklist[addr] = struct{}{}
	g.ips.mu.Unlock()

	g.emit(events.TypeBlacklistAdded, map[string]any{"ip": addr})
}

// UnblockIP removes an address from the blacklist.
func (g *Guard) UnblockIP(addr string) {
	g.ips.mu.Lock()
	delete(g.ips.blacklist, addr)
	g.ips.mu.Unlock()

	g.emit(events.TypeBlacklistRemoved, map[string]any{"ip": addr})
}

// AllowIP adds an address to the whitelist.
func (g *Guard) AllowIP(addr string) {
	g.ips.mu.Lock()
	g.ips.whitelist[addr] = struct{}{}
	g.ips.mu.Unlock()

	g.emit(events.TypeWhitelistAdded, map[string]any{"ip": addr})
}

// RemoveAllowedIP removes an address from the whitelist.
func (g *Guard) RemoveAllowedIP(addr string) {
	g.ips.mu.Lock()
	delete(g.ips.whitelist, addr)
	g.ips.mu.Unlock()

	g.emit(events.TypeWhitelistRemoved, map[string]any{"ip": addr})
}

// SetWhitelistEnabled toggles whitelist enforcement. An enabled but empty
// whitelist rejects nothing.
func (g *Guard) SetWhitelistEnabled(enabled bool) {
	g.ips.mu.Lock()
	g.ips.whitelistEnabled = enabled
	g.ips.mu.Unlock()
}
