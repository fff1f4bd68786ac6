// Package idhash derives deterministic record identifiers for journaled
// notifications. The same trade always hashes to the same id, so replayed
// webhook deliveries collide on the primary key instead of duplicating rows.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeNotificationID computes a deterministic notification id using SHA256.
// Formula: SHA256(signature|side|occurred_at)
// Returns hex-encoded hash (64 characters).
func ComputeNotificationID(signature, side string, occurredAt int64) string {
	data := fmt.Sprintf("%s|%s|%d", signature, side, occurredAt)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeWindowID computes a deterministic id for an archived window summary.
// Formula: SHA256(bucket|window_seconds)
// Returns hex-encoded hash (64 characters).
func ComputeWindowID(bucket int64, windowSeconds int) string {
	data := fmt.Sprintf("%d|%d", bucket, windowSeconds)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
