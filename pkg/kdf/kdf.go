// Package kdf expands a user pass-phrase and a per-fragment salt into the
// fixed-length RC4 key. Two versioned strategies are implemented and locked
// to the fragment's magic-string version tag: the reader keys derivation
// off the tag it already parsed from line 1.
package kdf

import (
	"crypto/hmac"
	"fmt"
	"strconv"

	"golang.org/x/crypto/scrypt"
	"golang.org/x/crypto/sha3"
)

// Version selects a derivation strategy.
type Version int

const (
	// IteratedSHA3 chains SHA3-512 blocks over salt||counter||passphrase.
	// Kept for read-compatibility with older (ver1) fragments.
	IteratedSHA3 Version = iota + 1
	// ScryptHMAC runs scrypt over an HMAC-SHA3-512-mixed passphrase,
	// salted with salt||pepper. Default for fragments emitted by this
	// implementation (ver2).
	ScryptHMAC
)

// KeyLength is the fixed output length: 256 bytes, matching RC4's maximum
// key size.
const KeyLength = 256

// SaltLength is the fixed per-fragment salt size written into every header.
const SaltLength = 256

// pepper is a fixed byte literal that nothing in this package modifies.
// It only adds domain separation to the ScryptHMAC variant; it is not a
// secret and its disclosure does not weaken the scheme beyond what RC4
// already concedes.
var pepper = []byte{
	0x66, 0x72, 0x61, 0x67, 0x66, 0x6f, 0x72, 0x67,
	0x65, 0x2d, 0x70, 0x65, 0x70, 0x70, 0x65, 0x72,
	0x2d, 0x76, 0x31, 0x2d, 0x64, 0x6f, 0x2d, 0x6e,
	0x6f, 0x74, 0x2d, 0x72, 0x65, 0x6c, 0x79, 0x2d,
}

// Derive expands passphrase and salt (exactly SaltLength bytes) into length
// bytes of key material using the given version's strategy.
func Derive(version Version, passphrase string, salt []byte, length int) ([]byte, error) {
	if len(salt) != SaltLength {
		return nil, fmt.Errorf("kdf: salt must be %d bytes, got %d", SaltLength, len(salt))
	}
	if length <= 0 {
		return nil, fmt.Errorf("kdf: length must be positive")
	}

	switch version {
	case IteratedSHA3:
		return iteratedSHA3(passphrase, salt, length), nil
	case ScryptHMAC:
		return scryptHMAC(passphrase, salt, length)
	default:
		return nil, fmt.Errorf("kdf: unknown version %d", version)
	}
}

// iteratedSHA3 produces successive 64-byte blocks of
// SHA3-512(salt || ascii(counter) || passphrase), concatenating until
// length bytes are available, then truncating. counter is the decimal ASCII
// of the running accumulated output length (0, 64, 128, ...).
func iteratedSHA3(passphrase string, salt []byte, length int) []byte {
	out := make([]byte, 0, length+sha3.New512().Size())
	passBytes := []byte(passphrase)
	for len(out) < length {
		h := sha3.New512()
		h.Write(salt)
		h.Write([]byte(strconv.Itoa(len(out))))
		h.Write(passBytes)
		out = h.Sum(out)
	}
	return out[:length]
}

// scryptHMAC runs scrypt(N=16384, r=32, p=1) keyed by
// HMAC-SHA3-512(pepper, passphrase), salted with salt||pepper.
func scryptHMAC(passphrase string, salt []byte, length int) ([]byte, error) {
	mac := hmac.New(sha3.New512, pepper)
	mac.Write([]byte(passphrase))
	mixedPassphrase := mac.Sum(nil)

	effectiveSalt := make([]byte, 0, len(salt)+len(pepper))
	effectiveSalt = append(effectiveSalt, salt...)
	effectiveSalt = append(effectiveSalt, pepper...)

	key, err := scrypt.Key(mixedPassphrase, effectiveSalt, 16384, 32, 1, length)
	if err != nil {
		return nil, fmt.Errorf("kdf: scrypt: %w", err)
	}
	return key, nil
}
