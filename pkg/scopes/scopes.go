package scopes

import (
	"slices"
	"strings"
)

const (
	// Wildcard matches any scope.
	Wildcard = "*"

	// Delimiter separates hierarchical scope parts (e.g. "courses.read").
	Delimiter = "."
)

// Matches reports whether a single scope satisfies a pattern.
//
// Matching rules:
//   - Direct match: "read" matches "read"
//   - Global wildcard: "*" matches any scope
//   - Namespace wildcard: "admin.*" matches any scope under "admin."
func Matches(scope, pattern string) bool {
	if scope == pattern || pattern == Wildcard {
		return true
	}

	if strings.HasSuffix(pattern, Wildcard) {
		prefix := strings.TrimSuffix(pattern, Wildcard)
		prefix = strings.TrimSuffix(prefix, Delimiter)
		return strings.HasPrefix(scope, prefix+Delimiter)
	}

	return false
}

// Has reports whether granted contains a scope matching the required one.
func Has(granted []string, required string) bool {
	for _, g := range granted {
		if Matches(required, g) {
			return true
		}
	}
	return false
}

// HasAny reports whether granted satisfies at least one of the required
// scopes. An empty required set is always satisfied.
func HasAny(granted, required []string) bool {
	if len(required) == 0 {
		return true
	}
	for _, r := range required {
		if Has(granted, r) {
			return true
		}
	}
	return false
}

// HasAll reports whether granted satisfies every required scope.
// An empty required set is always satisfied.
func HasAll(granted, required []string) bool {
	for _, r := range required {
		if !Has(granted, r) {
			return false
		}
	}
	return true
}

// Normalize deduplicates and sorts scopes, dropping empty entries.
// Returns nil for empty input to avoid allocating for the common case.
func Normalize(granted []string) []string {
	if len(granted) == 0 {
		return nil
	}

	out := make([]string, 0, len(granted))
	seen := make(map[string]struct{}, len(granted))
	for _, s := range granted {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	if len(out) == 0 {
		return nil
	}

	slices.Sort(out)
	return out
}
