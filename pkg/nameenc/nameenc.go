// Package nameenc implements two ASCII-safe file_name encodings: plain
// ASCII85 (ver1) and punycode/IDNA (ver2, default), falling back to
// ASCII85 for names IDNA cannot represent (embedded NUL, disallowed
// codepoints, empty labels).
package nameenc

import (
	"fmt"
	"strings"

	"golang.org/x/net/idna"

	"github.com/fragforge/fragforge/pkg/a85"
)

// Scheme names, matching conf.Options.FilenameEncoding.
const (
	SchemeASCII85  = "ascii85"
	SchemePunycode = "punycode"
)

// asciiFallbackPrefix marks an ASCII85-encoded fallback payload so Decode
// can tell it apart from a genuine punycode string, since both are plain
// ASCII. It is never a valid punycode label prefix.
const asciiFallbackPrefix = "=a85="

var punycodeProfile = idna.New(
	idna.MapForLookup(),
	idna.Transitional(false),
	idna.StrictDomainName(false),
)

// Encode renders name into the header's ASCII-safe file_name field using
// the requested scheme.
func Encode(scheme, name string) (string, error) {
	switch scheme {
	case SchemeASCII85:
		return string(a85.Encode([]byte(name))), nil
	case SchemePunycode:
		encoded, err := punycodeProfile.ToASCII(name)
		if err != nil || encoded == "" {
			return asciiFallbackPrefix + string(a85.Encode([]byte(name))), nil
		}
		return encoded, nil
	default:
		return "", fmt.Errorf("nameenc: unknown scheme %q", scheme)
	}
}

// Decode reverses Encode. The fallback-marked ASCII85 body from a failed
// punycode encode is recognised by its prefix under either scheme; any
// other value is decoded as ASCII85 or punycode according to scheme.
func Decode(encoded string, scheme string) (string, error) {
	if strings.HasPrefix(encoded, asciiFallbackPrefix) {
		decoded, err := a85.Decode([]byte(strings.TrimPrefix(encoded, asciiFallbackPrefix)), a85.DecodeOptions{FoldSpaces: true})
		if err != nil {
			return "", fmt.Errorf("nameenc: failed to decode fallback file_name: %w", err)
		}
		return string(decoded), nil
	}

	switch scheme {
	case SchemeASCII85:
		decoded, err := a85.Decode([]byte(encoded), a85.DecodeOptions{FoldSpaces: true})
		if err != nil {
			return "", fmt.Errorf("nameenc: failed to decode ascii85 file_name: %w", err)
		}
		return string(decoded), nil
	case SchemePunycode:
		decoded, err := punycodeProfile.ToUnicode(encoded)
		if err != nil {
			return "", fmt.Errorf("nameenc: failed to decode punycode file_name: %w", err)
		}
		return decoded, nil
	default:
		return "", fmt.Errorf("nameenc: unknown scheme %q", scheme)
	}
}
