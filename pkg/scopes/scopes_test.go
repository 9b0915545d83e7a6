package scopes_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/gatekit/pkg/scopes"
)

func TestMatches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		scope   string
		pattern string
		want    bool
	}{
		{"direct match", "read", "read", true},
		{"no match", "read", "write", false},
		{"global wildcard", "anything.at.all", "*", true},
		{"namespace wildcard match", "admin.users", "admin.*", true},
		{"namespace wildcard deep match", "admin.users.delete", "admin.*", true},
		{"namespace wildcard non-match", "courses.read", "admin.*", false},
		{"wildcard does not match bare prefix", "admin", "admin.*", false},
		{"empty pattern", "read", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, scopes.Matches(tt.scope, tt.pattern))
		})
	}
}

func TestHasAny(t *testing.T) {
	t.Parallel()

	granted := []string{"courses.read", "admin.*"}

	assert.True(t, scopes.HasAny(granted, []string{"courses.read", "courses.write"}))
	assert.True(t, scopes.HasAny(granted, []string{"admin.users"}))
	assert.False(t, scopes.HasAny(granted, []string{"billing.manage"}))
	assert.True(t, scopes.HasAny(granted, nil), "empty requirement set is satisfied")
	assert.False(t, scopes.HasAny(nil, []string{"courses.read"}))
}

func TestHasAll(t *testing.T) {
	t.Parallel()

	granted := []string{"courses.*", "profile.read"}

	assert.True(t, scopes.HasAll(granted, []string{"courses.read", "courses.write"}))
	assert.False(t, scopes.HasAll(granted, []string{"courses.read", "billing.manage"}))
	assert.True(t, scopes.HasAll(granted, nil))
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	assert.Nil(t, scopes.Normalize(nil))
	assert.Nil(t, scopes.Normalize([]string{"", "  "}))
	assert.Equal(t, []string{"a", "b"}, scopes.Normalize([]string{"b", "a", "b", ""}))
}
