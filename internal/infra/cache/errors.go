package cache

import "errors"

var (
	ErrInvalidRedisURL = errors.New("cache: invalid redis connection url")
	ErrRedisNotReady   = errors.New("cache: redis did not respond")
)
