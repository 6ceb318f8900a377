// Package exec provides output capture helpers for spawned scripts.
package exec

import (
	"fmt"
	"sync"
)

// DefaultMaxOutputBytes caps what is retained from a single stream so a
// runaway script cannot exhaust memory or flood the model context.
const DefaultMaxOutputBytes = 64 * 1024

// CappedBuffer is an io.Writer that keeps at most limit bytes and silently
// discards the rest while still reporting full writes. Safe for concurrent use.
type CappedBuffer struct {
	mu      sync.Mutex
	limit   int
	buf     []byte
	dropped int64
}

// NewCappedBuffer creates a buffer retaining at most limit bytes.
// A non-positive limit uses DefaultMaxOutputBytes.
func NewCappedBuffer(limit int) *CappedBuffer {
	if limit <= 0 {
		limit = DefaultMaxOutputBytes
	}
	return &CappedBuffer{limit: limit}
}

// Write implements io.Writer.
func (b *CappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	room := b.limit - len(b.buf)
	if room >= len(p) {
		b.buf = append(b.buf, p...)
		return len(p), nil
	}
	if room > 0 {
		b.buf = append(b.buf, p[:room]...)
	} else {
		room = 0
	}
	b.dropped += int64(len(p) - room)
	return len(p), nil
}

// Truncated reports whether any bytes were discarded.
func (b *CappedBuffer) Truncated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped > 0
}

// String returns the retained bytes, followed by a marker line when output
// was discarded.
func (b *CappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dropped == 0 {
		return string(b.buf)
	}
	return fmt.Sprintf("%s\n[...output truncated, %d bytes omitted]\n", b.buf, b.dropped)
}

// Len returns the number of retained bytes.
func (b *CappedBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf)
}
