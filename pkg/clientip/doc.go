// Package clientip extracts and normalizes the client IP address from HTTP
// requests, honoring common reverse-proxy forwarding headers.
package clientip
