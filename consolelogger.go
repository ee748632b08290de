package logwise

import (
	"bufio"
	"os"
	"sync"
)

// ConsoleLogger writes each record as one line to stderr. It is the default
// sink installed when no logger has been configured.
type ConsoleLogger struct {
	mu  sync.Mutex
	out *bufio.Writer
}

// NewConsoleLogger creates a ConsoleLogger.
func NewConsoleLogger() *ConsoleLogger {
	return &ConsoleLogger{out: bufio.NewWriter(os.Stderr)}
}

// FinishLogRecord writes the record followed by a newline.
func (c *ConsoleLogger) FinishLogRecord(record *Record) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.out.WriteString(record.String())
	c.out.WriteByte('\n')
	c.out.Flush()
}

// PrepareToDie flushes pending output.
func (c *ConsoleLogger) PrepareToDie() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.out.Flush()
}
