package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainOperation = "algot/operation/v1"
	DomainTrace     = "algot/trace/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// OperationHash computes the content hash of an operation definition.
// Two operations hash equal iff their canonical JSON encodings are equal,
// so the hash changes with every recorded edit.
func OperationHash(op *Operation) (string, error) {
	canonical, err := MarshalCanonical(op)
	if err != nil {
		return "", fmt.Errorf("OperationHash: %w", err)
	}
	return hashWithDomain(DomainOperation, canonical), nil
}

// TraceHash computes the content hash of any canonically encodable trace.
func TraceHash(trace any) (string, error) {
	canonical, err := MarshalCanonical(trace)
	if err != nil {
		return "", fmt.Errorf("TraceHash: %w", err)
	}
	return hashWithDomain(DomainTrace, canonical), nil
}
