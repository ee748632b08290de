package logwise

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

var (
	initialTimestampOnce sync.Once
	initialTimestamp     time.Time
)

func processStart() time.Time {
	initialTimestampOnce.Do(func() {
		initialTimestamp = time.Now()
	})
	return initialTimestamp
}

// A Record accumulates the parts of one log line. Parts are kept separate
// until a Logger renders them, so that a partially built record can still be
// extended or have a fragment spliced in at a fixed position.
//
// The usual pattern is: create a Record with NewRecord, progressively append
// parts with Log or LogOwned, then hand the finished record to the
// registered loggers with Dispatch.
type Record struct {
	parts []string
	level Level
}

// NewRecord creates an empty record at the given level.
func NewRecord(level Level) *Record {
	return &Record{level: level}
}

// Log appends a literal message part to the record.
func (r *Record) Log(message string) {
	r.parts = append(r.parts, message)
}

// LogOwned appends an already-built string to the record. It behaves like
// Log; the distinction exists so that call sites can signal that the string
// was constructed for this record and need not be copied by a sink.
func (r *Record) LogOwned(message string) {
	r.parts = append(r.parts, message)
}

// Logf formats and appends a message part.
func (r *Record) Logf(format string, args ...any) {
	r.parts = append(r.parts, fmt.Sprintf(format, args...))
}

// Len returns the number of parts written so far. Combined with InsertAt it
// lets a caller remember a position and splice a fragment there later.
func (r *Record) Len() int {
	return len(r.parts)
}

// InsertAt splices a message part at index i, shifting later parts back.
// i must be in [0, Len()].
func (r *Record) InsertAt(i int, message string) {
	r.parts = append(r.parts, "")
	copy(r.parts[i+1:], r.parts[i:])
	r.parts[i] = message
}

// LogTimestamp appends the elapsed time since process start, followed by a
// space, and returns the instant that was logged.
func (r *Record) LogTimestamp() time.Time {
	now := time.Now()
	r.parts = append(r.parts, fmt.Sprintf("[%v] ", now.Sub(processStart())))
	return now
}

// LogTimeSince appends the offset of t from process start, followed by a
// space.
func (r *Record) LogTimeSince(t time.Time) {
	r.parts = append(r.parts, fmt.Sprintf("[%v] ", t.Sub(processStart())))
}

// Level returns the level the record was created with.
func (r *Record) Level() Level {
	return r.level
}

func (r *Record) String() string {
	return strings.Join(r.parts, "")
}

// Dispatch sends the finished record to every registered logger. Dispatch is
// synchronous; it is safe to call from guard release paths.
func (r *Record) Dispatch() {
	for _, l := range GlobalLoggers() {
		l.FinishLogRecord(r)
	}
}
