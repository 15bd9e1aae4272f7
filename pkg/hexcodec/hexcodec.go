// Package hexcodec enforces the uppercase-hex convention used for every
// hash/IV/salt header field in the fragment format.
package hexcodec

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Encode renders data as uppercase hex.
func Encode(data []byte) string {
	return strings.ToUpper(hex.EncodeToString(data))
}

// Decode parses an uppercase (or any-case) hex string back to bytes.
func Decode(s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.ToLower(s))
	if err != nil {
		return nil, fmt.Errorf("hexcodec: invalid hex string: %w", err)
	}
	return b, nil
}

// DecodeFixed decodes s and requires the result to be exactly n bytes.
func DecodeFixed(s string, n int) ([]byte, error) {
	b, err := Decode(s)
	if err != nil {
		return nil, err
	}
	if len(b) != n {
		return nil, fmt.Errorf("hexcodec: expected %d bytes, got %d", n, len(b))
	}
	return b, nil
}
