package shell

import "sync"

// DefaultTailSize is how much stderr a session keeps for diagnostics.
const DefaultTailSize = 64 * 1024

// tailBuffer keeps the last max bytes written to it. The session's stderr
// copier writes while the control goroutine reads, hence the lock.
type tailBuffer struct {
	mu   sync.Mutex
	buf  []byte
	max  int
	lost int64
}

func newTailBuffer(max int) *tailBuffer {
	if max <= 0 {
		max = DefaultTailSize
	}
	return &tailBuffer{max: max}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.lost += int64(over)
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

// String returns the retained bytes
func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}

// Dropped returns how many bytes fell off the front
func (t *tailBuffer) Dropped() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lost
}
