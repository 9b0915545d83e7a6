// Package scopes implements wildcard-aware matching of role and permission
// scopes used by the request guard during authorization.
//
// Scopes are plain strings, optionally hierarchical ("admin.users") and
// optionally wildcarded ("admin.*" or "*"). The guard grants access when the
// authenticated principal holds at least one scope matching the route's
// requirement (logical OR within a requirement set).
package scopes
