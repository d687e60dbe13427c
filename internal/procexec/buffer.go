package procexec

import (
	"strings"
	"sync"
)

// Buffer is the ordered, append-only text captured from one runner's
// processes. Both stream readers append to it concurrently.
type Buffer struct {
	mu    sync.Mutex
	lines []string
	size  int
}

// Append stores line followed by a newline. Empty lines are ignored.
func (b *Buffer) Append(line string) {
	if line == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, line)
	b.size += len(line) + 1
}

// Lines returns a copy of the captured lines.
func (b *Buffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.lines...)
}

// Len returns the length in bytes of String().
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var sb strings.Builder
	sb.Grow(b.size)
	for _, l := range b.lines {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Reset discards all captured lines.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = nil
	b.size = 0
}
