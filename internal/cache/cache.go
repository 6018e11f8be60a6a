// Package cache stores serialized match results keyed by the normalized symptom set.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a cache key from a canonical symptom-set key and the policy
// fingerprint that produced the result, so a threshold change never serves
// stale decisions.
func Key(symptoms string, policy string) string {
	hash := sha256.Sum256([]byte(policy + "\x00" + symptoms))
	return "medimatch:v1:" + hex.EncodeToString(hash[:])
}
