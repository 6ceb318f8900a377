package exec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCappedBufferUnderCap(t *testing.T) {
	b := NewCappedBuffer(16)
	n, err := b.Write([]byte("hello"))
	require.NoError(t, err)

	assert.Equal(t, 5, n)
	assert.False(t, b.Truncated())
	assert.Equal(t, "hello", b.String())
}

func TestCappedBufferOverCapReportsFullWrites(t *testing.T) {
	b := NewCappedBuffer(8)

	n, err := b.Write([]byte("12345"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = b.Write([]byte("67890"))
	require.NoError(t, err)
	assert.Equal(t, 5, n, "writers must never see a short write")

	n, err = b.Write([]byte("more"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	assert.True(t, b.Truncated())
	assert.Equal(t, 8, b.Len())
	assert.True(t, strings.HasPrefix(b.String(), "12345678\n"))
	assert.Contains(t, b.String(), "6 bytes omitted")
}

func TestCappedBufferDefaultLimit(t *testing.T) {
	b := NewCappedBuffer(0)
	_, _ = b.Write(bytes.Repeat([]byte("a"), DefaultMaxOutputBytes+10))

	assert.Equal(t, DefaultMaxOutputBytes, b.Len())
	assert.True(t, b.Truncated())
}
