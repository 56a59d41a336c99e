package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for digests.
// Version suffix enables future algorithm migration.
const (
	DomainSnapshot  = "modelsync/snapshot/v1"
	DomainOperation = "modelsync/operation/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SnapshotDigest computes the content digest of an instance/representation
// pair. Two snapshots with the same digest are structurally identical.
func SnapshotDigest(s Snapshot) (string, error) {
	canonical, err := MarshalCanonical(s)
	if err != nil {
		return "", fmt.Errorf("SnapshotDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSnapshot, canonical), nil
}

// OperationDigest computes the content digest of a log entry.
func OperationDigest(op Operation) (string, error) {
	canonical, err := MarshalCanonical(op)
	if err != nil {
		return "", fmt.Errorf("OperationDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainOperation, canonical), nil
}

// MustSnapshotDigest is like SnapshotDigest but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustSnapshotDigest(s Snapshot) string {
	d, err := SnapshotDigest(s)
	if err != nil {
		panic(err)
	}
	return d
}
