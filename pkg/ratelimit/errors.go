package ratelimit

import "errors"

var (
	ErrInvalidLimit    = errors.New("ratelimit: max requests must be positive")
	ErrInvalidWindow   = errors.New("ratelimit: window must be positive")
	ErrInvalidStrategy = errors.New("ratelimit: unknown strategy")
	ErrClosed          = errors.New("ratelimit: limiter is closed")
)
