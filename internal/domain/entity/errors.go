package entity

import "errors"

// Standard domain errors
var (
	ErrRateLimitExceeded = errors.New("rate limit exceeded: too many tokens used")
	ErrMissingUserID     = errors.New("Missing user_id")
	ErrNoInteractions    = errors.New("no interactions found for user")
	ErrCacheMiss         = errors.New("cache miss")
)
