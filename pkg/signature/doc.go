// Package signature implements HMAC-SHA256 signing and verification of HTTP
// requests with a bounded replay window.
//
// The signature covers "METHOD:path:timestamp:body" and travels in the
// X-Signature header alongside an X-Timestamp header carrying unix seconds.
// Verification rejects timestamps outside the configured skew before
// comparing signatures in constant time.
package signature
