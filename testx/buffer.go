package testx

import (
	"bytes"
	"sync"
)

// ConcurrentBuffer is a log sink that goroutines can write to while a test reads it.
type ConcurrentBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func NewConcurrentBuffer() *ConcurrentBuffer {
	return &ConcurrentBuffer{}
}

func (c *ConcurrentBuffer) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Write(p)
}

func (c *ConcurrentBuffer) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

// Reset drops what was written so far.
func (c *ConcurrentBuffer) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.Reset()
}
