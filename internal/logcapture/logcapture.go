// Package logcapture keeps the most recent log entries in memory so the
// dashboard can show them. It replaces an ambient "already wrapped" global
// flag with a service object that is explicitly installed exactly once and
// explicitly torn down.
package logcapture

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"time"
)

// ErrAlreadyInstalled is returned by Install when the capture is active.
var ErrAlreadyInstalled = errors.New("log capture already installed")

// Entry is one captured log line.
type Entry struct {
	Time time.Time `json:"time"`
	Line string    `json:"line"`
}

// Capture tees an io.Writer log sink into a fixed-capacity ring buffer.
// The zero value is not usable; use New.
type Capture struct {
	mu         sync.Mutex
	capacity   int
	entries    []Entry
	next       int
	wrapped    bool
	underlying io.Writer
	now        func() time.Time
}

// New creates a capture holding at most capacity entries.
func New(capacity int) *Capture {
	if capacity < 1 {
		capacity = 1
	}
	return &Capture{
		capacity: capacity,
		now:      time.Now,
	}
}

// Install wraps underlying and returns the writer to hand to the logger.
// A second Install without an intervening Uninstall is an error: the single
// initialization contract is enforced, not assumed.
func (c *Capture) Install(underlying io.Writer) (io.Writer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.wrapped {
		return nil, ErrAlreadyInstalled
	}
	c.wrapped = true
	c.underlying = underlying
	return writerFunc(c.write), nil
}

// Uninstall detaches the capture and returns the original writer. Captured
// entries are retained until Reset.
func (c *Capture) Uninstall() io.Writer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wrapped = false
	w := c.underlying
	c.underlying = nil
	return w
}

// Reset discards all captured entries.
func (c *Capture) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	c.next = 0
}

func (c *Capture) write(p []byte) (int, error) {
	c.mu.Lock()
	if c.wrapped {
		line := string(bytes.TrimRight(p, "\n"))
		e := Entry{Time: c.now(), Line: line}
		if len(c.entries) < c.capacity {
			c.entries = append(c.entries, e)
		} else {
			c.entries[c.next] = e
			c.next = (c.next + 1) % c.capacity
		}
	}
	w := c.underlying
	c.mu.Unlock()

	if w != nil {
		return w.Write(p)
	}
	return len(p), nil
}

// Entries returns the captured entries, oldest first.
func (c *Capture) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, 0, len(c.entries))
	if len(c.entries) < c.capacity {
		out = append(out, c.entries...)
		return out
	}
	out = append(out, c.entries[c.next:]...)
	out = append(out, c.entries[:c.next]...)
	return out
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
