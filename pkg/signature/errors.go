package signature

import "errors"

var (
	ErrMissingSecret     = errors.New("signature: missing signing secret")
	ErrMissingSignature  = errors.New("signature: missing signature")
	ErrMissingTimestamp  = errors.New("signature: missing timestamp")
	ErrInvalidTimestamp  = errors.New("signature: invalid timestamp")
	ErrTimestampSkew     = errors.New("signature: timestamp outside allowed skew")
	ErrSignatureMismatch = errors.New("signature: signature mismatch")
)
