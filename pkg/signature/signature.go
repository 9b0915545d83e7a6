package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// DefaultMaxSkew is the replay window applied when Verify is given a
// non-positive skew.
const DefaultMaxSkew = 5 * time.Minute

// Signer computes and verifies HMAC-SHA256 request signatures.
// The signed payload is "METHOD:path:timestamp:body" where timestamp is unix
// seconds as carried in the X-Timestamp header.
type Signer struct {
	secret []byte
}

// New creates a signer with the given shared secret.
func New(secret string) (*Signer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &Signer{secret: []byte(secret)}, nil
}

// Sign returns the hex-encoded HMAC-SHA256 signature for a request.
func (s *Signer) Sign(method, path, timestamp string, body []byte) string {
	h := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(h, "%s:%s:%s:", method, path, timestamp)
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// Verify checks a request signature and rejects replays outside maxSkew.
// A non-positive maxSkew falls back to DefaultMaxSkew.
func (s *Signer) Verify(method, path, timestamp string, body []byte, sig string, maxSkew time.Duration) error {
	if sig == "" {
		return ErrMissingSignature
	}
	if timestamp == "" {
		return ErrMissingTimestamp
	}
	if maxSkew <= 0 {
		maxSkew = DefaultMaxSkew
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTimestamp, timestamp)
	}

	// Absolute skew catches both stale replays and clock-ahead forgeries.
	if d := time.Since(time.Unix(ts, 0)); d > maxSkew || d < -maxSkew {
		return ErrTimestampSkew
	}

	expected := s.Sign(method, path, timestamp, body)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return ErrSignatureMismatch
	}

	return nil
}
