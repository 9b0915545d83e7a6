// Package jwt generates and validates HS256 (HMAC-SHA256) JSON Web Tokens.
//
// Service wraps signing and verification and accepts any JSON-serializable
// claims structure. AccessClaims is the claims shape the request guard uses:
// StandardClaims plus role and permission lists. Validation covers signature
// (constant time), algorithm, and temporal claims.
//
// Errors such as ErrExpiredToken and ErrInvalidSignature are sentinel values
// comparable with errors.Is. The implementation uses only the standard
// library; signing keys stay in memory.
package jwt
