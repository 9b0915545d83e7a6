// Package securitylog keeps a bounded in-memory audit trail of security
// events (authentication results, authorization denials, rate-limit blocks,
// validation failures) produced by the request guard and rate limiter.
//
// The trail is a fixed-capacity ring: once full, the oldest event is evicted
// for each new one. Lifetime per-kind counters survive eviction so stats
// remain accurate for the whole process lifetime. State is process-local and
// not persisted.
package securitylog
