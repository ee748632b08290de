package logwise

import (
	"os"
	"strings"
	"sync"
)

// InMemoryLogger buffers records in memory. It is primarily for tests that
// need to assert on log output.
type InMemoryLogger struct {
	mu    sync.Mutex
	lines []string
}

// NewInMemoryLogger creates an empty InMemoryLogger.
func NewInMemoryLogger() *InMemoryLogger {
	return &InMemoryLogger{}
}

// FinishLogRecord stores the rendered record.
func (l *InMemoryLogger) FinishLogRecord(record *Record) {
	l.mu.Lock()
	l.lines = append(l.lines, record.String())
	l.mu.Unlock()
}

// DrainLogs returns everything logged so far, newline separated, and clears
// the buffer.
func (l *InMemoryLogger) DrainLogs() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := strings.Join(l.lines, "\n")
	l.lines = nil
	return s
}

// PrepareToDie dumps any undrained lines to stderr so they are not silently
// lost at exit.
func (l *InMemoryLogger) PrepareToDie() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, line := range l.lines {
		os.Stderr.WriteString(line + "\n")
	}
	l.lines = nil
}
