// Package idhash computes deterministic identifiers.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeOrderID computes a deterministic order_id using SHA256.
// Formula: SHA256(token_address|action|amount|created_at_ms|seq)
// The per-process sequence number disambiguates orders created within the
// same millisecond for the same token and action.
// Returns hex-encoded hash (64 characters).
func ComputeOrderID(
	tokenAddress string,
	action string,
	amount float64,
	createdAtMs int64,
	seq uint64,
) string {
	data := fmt.Sprintf("%s|%s|%.12g|%d|%d",
		tokenAddress,
		action,
		amount,
		createdAtMs,
		seq,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
