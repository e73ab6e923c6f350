package cachestore

import "errors"

// Sentinel kinds for cache store errors.
var (
	ErrCorruptEntry    = errors.New("corrupt cache entry")
	ErrUnknownVersion  = errors.New("unknown cache entry version")
	ErrRedisNotEnabled = errors.New("redis address not configured")
)
