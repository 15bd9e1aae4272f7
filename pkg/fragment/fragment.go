// Package fragment implements the on-disk fragment record: a three-line
// ASCII file (magic line, single-line JSON header, ASCII85 payload line)
// together with strict parse/read/delete contracts.
package fragment

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jpillora/backoff"

	"github.com/fragforge/fragforge/pkg/a85"
	"github.com/fragforge/fragforge/pkg/ferrors"
	"github.com/fragforge/fragforge/pkg/hashcodec"
	"github.com/fragforge/fragforge/pkg/hexcodec"
	"github.com/fragforge/fragforge/pkg/kdf"
	"github.com/fragforge/fragforge/pkg/progress"
	"github.com/fragforge/fragforge/pkg/rc4stream"
)

// MagicVer1 is the iterated-SHA3-512 KDF / ASCII85-filename generation.
const MagicVer1 = "text/fragment+a85+rc4+ver1"

// MagicVer2 is the scrypt+HMAC-SHA3-512 KDF / punycode-filename generation,
// the default emitted by this implementation.
const MagicVer2 = "text/fragment+a85+rc4+ver2"

// knownMagics maps a magic line to its KDF version, used both to validate
// line 1 and to pick the matching key-derivation strategy at read time.
var knownMagics = map[string]kdf.Version{
	MagicVer1: kdf.IteratedSHA3,
	MagicVer2: kdf.ScryptHMAC,
}

// filenameSchemes maps a magic line to its file_name encoding scheme,
// locked to the version tag the same way the KDF strategy is.
var filenameSchemes = map[string]string{
	MagicVer1: "ascii85",
	MagicVer2: "punycode",
}

// FilenameScheme returns the file_name encoding scheme for magic, or ""
// if magic is unrecognised.
func FilenameScheme(magic string) string {
	return filenameSchemes[magic]
}

// Header is the single-line JSON object on line 2.
type Header struct {
	FileName             string `json:"file_name"`
	FileHash             string `json:"file_hash"`
	FileSize             int64  `json:"file_size"`
	FragmentStart        int64  `json:"fragment_start"`
	FragmentHash         string `json:"fragment_hash"`
	FragmentSize         int64  `json:"fragment_size"`
	InitializationVector string `json:"initialization_vector"`
	PasswordSalt         string `json:"password_salt"`
}

// Record is a parsed fragment: its header plus enough bookkeeping to lazily
// read its payload. Unknown JSON header fields are tolerated and kept in
// raw; nothing in this implementation reads them or writes them back out.
type Record struct {
	Path    string
	Magic   string
	Header  Header
	raw     map[string]json.RawMessage
	hashAlg hashcodec.Algorithm
}

// IsFragmentFile operates on a path without requiring a full Parse, used by
// the directory scanner to cheaply filter candidates.

// IsFragmentFile reports whether path's first line matches a known magic
// string, without parsing the rest of the file.
func IsFragmentFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && err != io.EOF {
		return false
	}
	_, ok := knownMagics[trimLF(line)]
	return ok
}

func trimLF(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

// Parse implements a strict parse contract: read and validate line 1, then
// parse and type-check line 2. Line 3 is not loaded and its offset is not
// recorded; Read locates it again by re-reading lines 1 and 2.
func Parse(path string, hashAlg hashcodec.Algorithm) (*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ferrors.New(ferrors.IO, "failed to open fragment "+path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)

	magicLine, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, ferrors.New(ferrors.IO, "failed to read magic line", err)
	}
	magic := trimLF(magicLine)
	if _, ok := knownMagics[magic]; !ok {
		return nil, ferrors.New(ferrors.Malformed, fmt.Sprintf("unrecognised magic string %q", magic), nil)
	}

	headerLine, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, ferrors.New(ferrors.IO, "failed to read header line", err)
	}
	headerLine = trimLF(headerLine)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(headerLine), &raw); err != nil {
		return nil, ferrors.New(ferrors.Malformed, "header is not valid JSON", err)
	}
	var header Header
	if err := json.Unmarshal([]byte(headerLine), &header); err != nil {
		return nil, ferrors.New(ferrors.Malformed, "header fields are malformed", err)
	}
	if err := validateHeader(header); err != nil {
		return nil, err
	}

	return &Record{
		Path:    path,
		Magic:   magic,
		Header:  header,
		raw:     raw,
		hashAlg: hashAlg,
	}, nil
}

func validateHeader(h Header) error {
	missing := func(field string) error {
		return ferrors.New(ferrors.Malformed, "missing header field "+field, nil)
	}
	if h.FileName == "" {
		return missing("file_name")
	}
	if h.FileHash == "" {
		return missing("file_hash")
	}
	if h.FragmentHash == "" {
		return missing("fragment_hash")
	}
	if h.FileSize < 0 {
		return ferrors.New(ferrors.Malformed, "file_size must be non-negative", nil)
	}
	if h.FragmentStart < 0 {
		return ferrors.New(ferrors.Malformed, "fragment_start must be non-negative", nil)
	}
	if h.FragmentSize <= 0 && h.FileSize != 0 {
		return ferrors.New(ferrors.Malformed, "fragment_size must be positive", nil)
	}
	if h.FragmentStart+h.FragmentSize > h.FileSize {
		return ferrors.New(ferrors.Malformed, "fragment_start+fragment_size exceeds file_size", nil)
	}
	if _, err := hexcodec.DecodeFixed(h.InitializationVector, 16); h.InitializationVector != "" && err != nil {
		return ferrors.New(ferrors.Malformed, "initialization_vector is not 16 bytes of hex", err)
	}
	if _, err := hexcodec.DecodeFixed(h.PasswordSalt, 256); h.PasswordSalt != "" && err != nil {
		return ferrors.New(ferrors.Malformed, "password_salt is not 256 bytes of hex", err)
	}
	return nil
}

// End returns the exclusive end offset of this fragment within the
// original file (fragment_start + fragment_size).
func (r *Record) End() int64 {
	return r.Header.FragmentStart + r.Header.FragmentSize
}

// Read decodes the ASCII85 payload line, decrypts it if password is
// non-empty, verifies length and hash, and returns the first max bytes
// (or all of it, if max < 0 or max >= fragment_size).
func (r *Record) Read(password string, max int) ([]byte, error) {
	payload, err := r.readPayloadLine()
	if err != nil {
		return nil, err
	}

	decoded, err := a85.Decode(payload, a85.DecodeOptions{FoldSpaces: true})
	if err != nil {
		return nil, ferrors.New(ferrors.Corrupt, "ASCII85 decode failed", err)
	}

	plaintext := decoded
	if password != "" {
		plaintext, err = r.decrypt(decoded, password)
		if err != nil {
			return nil, err
		}
	}

	if int64(len(plaintext)) != r.Header.FragmentSize {
		return nil, ferrors.New(ferrors.Corrupt, "payload length does not match fragment_size", nil)
	}
	gotHash, err := r.hashAlg.HashBytes(plaintext)
	if err != nil {
		return nil, ferrors.New(ferrors.IO, "failed to hash payload", err)
	}
	if gotHash != r.Header.FragmentHash {
		return nil, ferrors.New(ferrors.Corrupt, "fragment_hash mismatch", nil)
	}

	if max < 0 || max >= len(plaintext) {
		return plaintext, nil
	}
	return plaintext[:max], nil
}

func (r *Record) decrypt(ciphertext []byte, password string) ([]byte, error) {
	version, ok := knownMagics[r.Magic]
	if !ok {
		return nil, ferrors.New(ferrors.Malformed, "unknown magic version for decryption", nil)
	}
	salt, err := hexcodec.DecodeFixed(r.Header.PasswordSalt, kdf.SaltLength)
	if err != nil {
		return nil, ferrors.New(ferrors.Malformed, "bad password_salt", err)
	}
	iv, err := hexcodec.Decode(r.Header.InitializationVector)
	if err != nil {
		return nil, ferrors.New(ferrors.Malformed, "bad initialization_vector", err)
	}
	key, err := kdf.Derive(version, password, salt, kdf.KeyLength)
	if err != nil {
		return nil, ferrors.New(ferrors.IO, "key derivation failed", err)
	}
	plaintext, err := rc4stream.Apply(key, iv, ciphertext)
	if err != nil {
		return nil, ferrors.New(ferrors.IO, "rc4 decrypt failed", err)
	}
	return plaintext, nil
}

func (r *Record) readPayloadLine() ([]byte, error) {
	f, err := os.Open(r.Path)
	if err != nil {
		return nil, ferrors.New(ferrors.IO, "failed to reopen fragment", err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	// Skip line 1 and line 2; we already trust them from Parse, but must
	// re-read to find line 3's byte offset deterministically.
	if _, err := reader.ReadString('\n'); err != nil && err != io.EOF {
		return nil, ferrors.New(ferrors.IO, "failed to re-read magic line", err)
	}
	if _, err := reader.ReadString('\n'); err != nil && err != io.EOF {
		return nil, ferrors.New(ferrors.IO, "failed to re-read header line", err)
	}
	payloadLine, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, ferrors.New(ferrors.IO, "failed to read payload line", err)
	}
	return bytes.TrimRight([]byte(payloadLine), " \t\r\n\v"), nil
}

// Delete is a best-effort removal: up to three retries with a one-second
// backoff; concurrent deletion (file already gone) is success; persistent
// permission failure is reported to log and swallowed.
func (r *Record) Delete(log progress.Logger) {
	if log == nil {
		log = progress.Discard
	}
	b := &backoff.Backoff{
		Min:    1 * time.Second,
		Max:    1 * time.Second,
		Factor: 1,
		Jitter: false,
	}
	for attempt := 0; attempt <= 3; attempt++ {
		err := os.Remove(r.Path)
		if err == nil || os.IsNotExist(err) {
			return
		}
		if attempt < 3 {
			time.Sleep(b.Duration())
		} else {
			log.Warnf("failed to delete fragment %s after retries: %v", r.Path, err)
		}
	}
}

// Write serializes a fragment record to w as the three required lines.
func Write(w io.Writer, magic string, header Header, ciphertext []byte) error {
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return ferrors.New(ferrors.IO, "failed to marshal header", err)
	}
	payload := a85.Encode(ciphertext)

	buf := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(buf, "%s\n", magic); err != nil {
		return ferrors.New(ferrors.IO, "failed to write magic line", err)
	}
	if _, err := buf.Write(headerJSON); err != nil {
		return ferrors.New(ferrors.IO, "failed to write header line", err)
	}
	if err := buf.WriteByte('\n'); err != nil {
		return ferrors.New(ferrors.IO, "failed to write header newline", err)
	}
	if _, err := buf.Write(payload); err != nil {
		return ferrors.New(ferrors.IO, "failed to write payload line", err)
	}
	if err := buf.WriteByte('\n'); err != nil {
		return ferrors.New(ferrors.IO, "failed to write payload newline", err)
	}
	return buf.Flush()
}
