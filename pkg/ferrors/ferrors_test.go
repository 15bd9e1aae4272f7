package ferrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	base := errors.New("disk full")
	err := New(IO, "failed to write fragment", base)
	assert.Contains(t, err.Error(), "IO")
	assert.Contains(t, err.Error(), "disk full")
	assert.ErrorIs(t, err, base)
}

func TestIsMatchesWrappedCode(t *testing.T) {
	base := New(Corrupt, "hash mismatch", nil)
	wrapped := fmt.Errorf("reassemble failed: %w", base)
	assert.True(t, Is(wrapped, Corrupt))
	assert.False(t, Is(wrapped, Incomplete))
}
