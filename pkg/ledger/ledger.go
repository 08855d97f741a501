package ledger

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Ledger is the durable, deduplicated, ordered collection of output
// lines for one target file. Lines are kept in append order and keyed
// by the portion before the first tab (or the whole line when the line
// carries no metadata columns).
type Ledger struct {
	path  string
	lines []string
	seen  map[string]bool
	mu    sync.RWMutex
}

// New creates an empty ledger for path, ignoring any file already
// there. Used by the full-dump mode, which always starts from scratch.
func New(path string) *Ledger {
	return &Ledger{
		path: path,
		seen: make(map[string]bool),
	}
}

// Load opens the ledger backing file and rebuilds the in-memory state.
// A missing file yields an empty ledger.
func Load(path string) (*Ledger, error) {
	l := &Ledger{
		path: path,
		seen: make(map[string]bool),
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, fmt.Errorf("failed to open ledger file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		l.lines = append(l.lines, line)
		l.seen[keyOf(line)] = true
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ledger file: %w", err)
	}

	return l, nil
}

// keyOf extracts the dedup key from a stored line: everything before
// the first tab, or the whole line.
func keyOf(line string) string {
	if idx := strings.IndexByte(line, '\t'); idx >= 0 {
		return line[:idx]
	}
	return line
}

// Contains reports whether a key is already present
func (l *Ledger) Contains(key string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.seen[key]
}

// Append inserts a line under the given key. Appending an already-seen
// key is a no-op and returns false.
func (l *Ledger) Append(line, key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.seen[key] {
		return false
	}
	l.lines = append(l.lines, line)
	l.seen[key] = true
	return true
}

// Count returns the number of lines in the ledger
func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.lines)
}

// Lines returns a copy of the stored lines in append order
func (l *Ledger) Lines() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

// Path returns the backing file path
func (l *Ledger) Path() string {
	return l.path
}

// Flush rewrites the backing file with the full line sequence. The
// whole-file rewrite keeps the file consistent with memory even after
// a crash mid-run, at the cost of O(n) writes per page.
func (l *Ledger) Flush() error {
	l.mu.RLock()
	content := strings.Join(l.lines, "\n")
	l.mu.RUnlock()

	// Write to a temporary file first, then rename into place
	tempPath := l.path + ".tmp"
	out, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary ledger file: %w", err)
	}

	_, err = out.WriteString(content)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to write ledger data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close ledger file: %w", closeErr)
	}

	if err := os.Rename(tempPath, l.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace ledger file: %w", err)
	}

	return nil
}
