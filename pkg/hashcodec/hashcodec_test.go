package hashcodec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashBytesKnownAnswers(t *testing.T) {
	cases := []struct {
		algo Algorithm
		in   string
		want string
	}{
		{MD5, "", "D41D8CD98F00B204E9800998ECF8427E"},
		{SHA1, "abc", "A9993E364706816ABA3E25717850C26C9CD0D89D"},
		{SHA256, "abc", "BA7816BF8F01CFEA414140DE5DAE2223B00361A396177A9CB410FF61F20015AD"},
	}
	for _, c := range cases {
		got, err := c.algo.HashBytes([]byte(c.in))
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
		assert.Equal(t, strings.ToUpper(got), got, "digest must be uppercase")
	}
}

func TestHashFileMatchesHashBytes(t *testing.T) {
	data := []byte(strings.Repeat("fragment", 10000))
	for _, algo := range []Algorithm{MD5, SHA1, SHA224, SHA256, SHA384, SHA512} {
		fromBytes, err := algo.HashBytes(data)
		require.NoError(t, err)
		fromReader, err := algo.HashFile(strings.NewReader(string(data)))
		require.NoError(t, err)
		assert.Equal(t, fromBytes, fromReader, algo.String())
	}
}

func TestParseRoundTrips(t *testing.T) {
	for _, name := range []string{"MD5", "sha-1", "SHA256", "sha384", "SHA-512"} {
		_, err := Parse(name)
		require.NoError(t, err, name)
	}
	_, err := Parse("crc32")
	require.Error(t, err)
}
