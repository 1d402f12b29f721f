package query

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

const keyNamespace = "query"

// Key derives the deterministic cache key for one operation and its
// arguments: query:<op>:<sha256 of the JSON-encoded arguments>. Arguments
// must be JSON-encodable; authenticated operations include their token in
// the arguments so sessions never share entries.
func Key(op string, args any) (string, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("encode query arguments: %w", err)
	}

	sum := sha256.Sum256(raw)
	return fmt.Sprintf("%s:%s:%s", keyNamespace, op, hex.EncodeToString(sum[:])), nil
}

// Prefix returns the key prefix shared by every cached entry of an
// operation, regardless of arguments. Used for broad invalidation.
func Prefix(op string) string {
	return fmt.Sprintf("%s:%s:", keyNamespace, op)
}
