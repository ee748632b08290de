package recording

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/drewcrawford/logwise"
)

// recordTableName is the table that RecordLogger writes into.
const recordTableName = "records"

// RecordEntry is one finished log record as stored in the database.
type RecordEntry struct {
	Seq       int64
	EmittedAt int64 // unix nanoseconds
	Level     string
	Content   string
}

// RecordLogger is a log sink that mirrors every finished record into a
// DataRecorder. Register it with logwise.AddGlobalLogger to keep a
// queryable copy of the log stream.
type RecordLogger struct {
	mu       sync.Mutex
	recorder DataRecorder
	seq      atomic.Int64
}

// NewRecordLogger creates a RecordLogger writing into recorder. The records
// table is created immediately.
func NewRecordLogger(recorder DataRecorder) *RecordLogger {
	recorder.CreateTable(recordTableName, RecordEntry{})

	return &RecordLogger{recorder: recorder}
}

// FinishLogRecord stores the rendered record.
func (l *RecordLogger) FinishLogRecord(record *logwise.Record) {
	entry := RecordEntry{
		Seq:       l.seq.Add(1),
		EmittedAt: time.Now().UnixNano(),
		Level:     record.Level().String(),
		Content:   record.String(),
	}

	l.mu.Lock()
	l.recorder.InsertData(recordTableName, entry)
	l.mu.Unlock()
}

// PrepareToDie flushes buffered entries to the database.
func (l *RecordLogger) PrepareToDie() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.recorder.Flush()
}
