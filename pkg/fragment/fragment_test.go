package fragment

import (
	"bytes"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragforge/fragforge/pkg/a85"
	"github.com/fragforge/fragforge/pkg/hashcodec"
	"github.com/fragforge/fragforge/pkg/hexcodec"
	"github.com/fragforge/fragforge/pkg/kdf"
	"github.com/fragforge/fragforge/pkg/progress"
	"github.com/fragforge/fragforge/pkg/rc4stream"
)

func writeTestFragment(t *testing.T, dir string, plaintext []byte, password string) *Record {
	t.Helper()
	algo := hashcodec.SHA1

	fragHash, err := algo.HashBytes(plaintext)
	require.NoError(t, err)

	iv := make([]byte, 16)
	salt := make([]byte, kdf.SaltLength)
	_, err = rand.Read(iv)
	require.NoError(t, err)
	_, err = rand.Read(salt)
	require.NoError(t, err)

	payload := plaintext
	if password != "" {
		key, err := kdf.Derive(kdf.ScryptHMAC, password, salt, kdf.KeyLength)
		require.NoError(t, err)
		payload, err = rc4stream.Apply(key, iv, plaintext)
		require.NoError(t, err)
	}

	header := Header{
		FileName:             "example.bin",
		FileHash:             fragHash,
		FileSize:             int64(len(plaintext)),
		FragmentStart:        0,
		FragmentHash:         fragHash,
		FragmentSize:         int64(len(plaintext)),
		InitializationVector: hexcodec.Encode(iv),
		PasswordSalt:         hexcodec.Encode(salt),
	}

	path := filepath.Join(dir, fragHash+".txt")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, Write(f, MagicVer2, header, payload))

	rec, err := Parse(path, algo)
	require.NoError(t, err)
	return rec
}

func TestWriteParseReadRoundTripNoPassword(t *testing.T) {
	dir := t.TempDir()
	plaintext := []byte("some fragment bytes, arbitrary content")
	rec := writeTestFragment(t, dir, plaintext, "")

	got, err := rec.Read("", -1)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestWriteParseReadRoundTripWithPassword(t *testing.T) {
	dir := t.TempDir()
	plaintext := []byte("secret fragment bytes")
	rec := writeTestFragment(t, dir, plaintext, "hunter2")

	got, err := rec.Read("hunter2", -1)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestReadWithWrongPasswordIsCorrupt(t *testing.T) {
	dir := t.TempDir()
	plaintext := []byte("secret fragment bytes")
	rec := writeTestFragment(t, dir, plaintext, "hunter2")

	_, err := rec.Read("wrong-password", -1)
	require.Error(t, err)
}

func TestReadTruncatesToMax(t *testing.T) {
	dir := t.TempDir()
	plaintext := []byte("0123456789")
	rec := writeTestFragment(t, dir, plaintext, "")

	got, err := rec.Read("", 4)
	require.NoError(t, err)
	assert.Equal(t, []byte("0123"), got)
}

func TestParseRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(path, []byte("not-a-fragment\n{}\nAAAA\n"), 0o644))
	_, err := Parse(path, hashcodec.SHA1)
	require.Error(t, err)
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(path, []byte(MagicVer2+"\n{not json}\nAAAA\n"), 0o644))
	_, err := Parse(path, hashcodec.SHA1)
	require.Error(t, err)
}

func TestIsFragmentFile(t *testing.T) {
	dir := t.TempDir()
	plaintext := []byte("hello")
	rec := writeTestFragment(t, dir, plaintext, "")
	assert.True(t, IsFragmentFile(rec.Path))

	other := filepath.Join(dir, "unrelated.txt")
	require.NoError(t, os.WriteFile(other, []byte("hello world\n"), 0o644))
	assert.False(t, IsFragmentFile(other))
}

func TestDeleteIsBestEffortAndIdempotent(t *testing.T) {
	dir := t.TempDir()
	rec := writeTestFragment(t, dir, []byte("x"), "")
	rec.Delete(progress.Discard)
	_, err := os.Stat(rec.Path)
	assert.True(t, os.IsNotExist(err))

	// Deleting again (file already gone) must not panic or hang.
	rec.Delete(progress.Discard)
}

func TestPayloadLengthMismatchIsCorrupt(t *testing.T) {
	dir := t.TempDir()
	plaintext := []byte("0123456789")
	rec := writeTestFragment(t, dir, plaintext, "")
	rec.Header.FragmentSize = 5 // tamper in-memory only

	_, err := rec.Read("", -1)
	require.Error(t, err)
}

func TestEncryptedPayloadIsNotPlaintext(t *testing.T) {
	dir := t.TempDir()
	plaintext := bytes.Repeat([]byte{0x42}, 64)
	rec := writeTestFragment(t, dir, plaintext, "p4ssw0rd")
	raw, err := rec.readPayloadLine()
	require.NoError(t, err)
	decoded, err := a85.Decode(raw, a85.DecodeOptions{}) // the stored ciphertext
	require.NoError(t, err)
	assert.NotEqual(t, bytes.Repeat([]byte{0x42}, 64), decoded)
}
