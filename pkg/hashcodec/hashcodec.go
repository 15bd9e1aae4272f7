// Package hashcodec provides the content-hashing primitive used for fragment
// and whole-file integrity digests.
package hashcodec

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"
)

// Algorithm identifies one of the six supported digests. The zero value is
// invalid; use Default or Parse.
type Algorithm int

const (
	_ Algorithm = iota
	MD5
	SHA1
	SHA224
	SHA256
	SHA384
	SHA512
)

// Default is the on-disk default: legacy-compatible, used for integrity, not
// adversarial resistance.
const Default = SHA1

// blockSize bounds memory use when hashing files.
const blockSize = 64 * 1024

func (a Algorithm) String() string {
	switch a {
	case MD5:
		return "MD5"
	case SHA1:
		return "SHA-1"
	case SHA224:
		return "SHA-224"
	case SHA256:
		return "SHA-256"
	case SHA384:
		return "SHA-384"
	case SHA512:
		return "SHA-512"
	default:
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
}

func (a Algorithm) new() (hash.Hash, error) {
	switch a {
	case MD5:
		return md5.New(), nil
	case SHA1:
		return sha1.New(), nil
	case SHA224:
		return sha256.New224(), nil
	case SHA256:
		return sha256.New(), nil
	case SHA384:
		return sha512.New384(), nil
	case SHA512:
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("hashcodec: unknown algorithm %d", int(a))
	}
}

// Parse accepts the names used in the header/config surface ("MD5", "SHA-1",
// "sha256", ...), case-insensitively and with or without the dash.
func Parse(name string) (Algorithm, error) {
	switch strings.ToUpper(strings.ReplaceAll(name, "-", "")) {
	case "MD5":
		return MD5, nil
	case "SHA1":
		return SHA1, nil
	case "SHA224":
		return SHA224, nil
	case "SHA256":
		return SHA256, nil
	case "SHA384":
		return SHA384, nil
	case "SHA512":
		return SHA512, nil
	default:
		return 0, fmt.Errorf("hashcodec: unrecognised algorithm %q", name)
	}
}

// HashBytes returns the uppercase-hex digest of data.
func (a Algorithm) HashBytes(data []byte) (string, error) {
	h, err := a.new()
	if err != nil {
		return "", err
	}
	h.Write(data)
	return encode(h), nil
}

// HashFile streams r in fixed-size blocks and returns the uppercase-hex
// digest of the entire stream.
func (a Algorithm) HashFile(r io.Reader) (string, error) {
	h, err := a.new()
	if err != nil {
		return "", err
	}
	buf := make([]byte, blockSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", fmt.Errorf("hashcodec: read failed: %w", err)
	}
	return encode(h), nil
}

func encode(h hash.Hash) string {
	return strings.ToUpper(hex.EncodeToString(h.Sum(nil)))
}
