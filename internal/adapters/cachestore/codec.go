// Package cachestore holds the score cache backends.
package cachestore

import (
	"encoding/json"
	"fmt"

	"github.com/okian/gitstart/internal/domain/model"
)

const codecVersion = 1

type envelope struct {
	Version int              `json:"v"`
	Entry   model.CacheEntry `json:"entry"`
}

// Encode serializes an entry for an external store.
func Encode(e model.CacheEntry) ([]byte, error) {
	return json.Marshal(envelope{Version: codecVersion, Entry: e})
}

// Decode parses bytes written by Encode. The stored fingerprint must match fp.
func Decode(fp model.Fingerprint, data []byte) (model.CacheEntry, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return model.CacheEntry{}, fmt.Errorf("%w: %v", ErrCorruptEntry, err)
	}
	if env.Version != codecVersion {
		return model.CacheEntry{}, fmt.Errorf("%w: %d", ErrUnknownVersion, env.Version)
	}
	if env.Entry.Fingerprint != fp {
		return model.CacheEntry{}, fmt.Errorf("%w: fingerprint %s stored under %s", ErrCorruptEntry, env.Entry.Fingerprint.Short(), fp.Short())
	}
	if len(env.Entry.Results) == 0 {
		return model.CacheEntry{}, fmt.Errorf("%w: no results", ErrCorruptEntry)
	}
	return env.Entry, nil
}
