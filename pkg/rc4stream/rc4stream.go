// Package rc4stream implements a fixed cipher core: RC4 keyed by a
// 1-256-byte key, with an IV-derived keystream skip (RC4-drop) compatible
// with the classic drop-768-style constructions.
//
// RC4 is broken for adversarial confidentiality and is used here purely as
// a lightweight obfuscation layer, with integrity provided separately by
// the plaintext hash (see pkg/fragment).
package rc4stream

import (
	"crypto/rc4"
	"fmt"
)

// maxIVBytes bounds how many leading IV bytes feed the skip-count formula;
// excess bytes are ignored.
const maxIVBytes = 16

// SkipCount computes skip = (510 + sum(iv[i] << i)) mod 65536 for the first
// min(16, len(iv)) bytes of iv (bit-shift by the byte index, not a
// byte-lane shift). An empty iv yields a zero skip (no drop applied). The
// drop-768 convention (IV = 0xFE 0x02) depends on this exact bit shift:
// 0xFE<<0 + 0x02<<1 = 258, plus the fixed 510 base, is 768.
func SkipCount(iv []byte) int {
	if len(iv) == 0 {
		return 0
	}
	n := len(iv)
	if n > maxIVBytes {
		n = maxIVBytes
	}
	var acc uint64
	for i := 0; i < n; i++ {
		acc += uint64(iv[i]) << uint(i)
	}
	return int((510 + acc) % 65536)
}

// Cipher wraps crypto/rc4.Cipher with the IV-derived drop applied at
// construction time. XOR-ing the same byte stream twice through an
// identically-seeded Cipher reverses the transform, since RC4 is a
// symmetric XOR stream.
type Cipher struct {
	inner *rc4.Cipher
}

// New builds a Cipher from a 1-256-byte key and a 0-16-byte IV, discarding
// SkipCount(iv) keystream bytes before returning.
func New(key, iv []byte) (*Cipher, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("rc4stream: key must not be empty")
	}
	k := key
	if len(k) > 256 {
		k = k[:256]
	}
	inner, err := rc4.NewCipher(k)
	if err != nil {
		return nil, fmt.Errorf("rc4stream: %w", err)
	}
	c := &Cipher{inner: inner}
	if skip := SkipCount(iv); skip > 0 {
		c.discard(skip)
	}
	return c, nil
}

// discard advances the keystream by n bytes without producing output: XOR a
// scratch buffer into itself, which advances cipher state as a side effect.
func (c *Cipher) discard(n int) {
	buf := make([]byte, 4096)
	for n > 0 {
		chunk := len(buf)
		if n < chunk {
			chunk = n
		}
		c.inner.XORKeyStream(buf[:chunk], buf[:chunk])
		n -= chunk
	}
}

// XORKeyStream XORs src into dst using the keystream, src and dst may
// overlap exactly as in crypto/rc4.
func (c *Cipher) XORKeyStream(dst, src []byte) {
	c.inner.XORKeyStream(dst, src)
}

// Apply is a convenience one-shot transform: encrypt(key, iv, m) producing a
// fresh byte slice. Calling Apply again with the same key/iv on the output
// reverses it.
func Apply(key, iv, data []byte) ([]byte, error) {
	c, err := New(key, iv)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	c.XORKeyStream(out, data)
	return out, nil
}
