package tracing

import (
	"sync"

	"github.com/tebeka/atexit"

	"github.com/drewcrawford/logwise/recording"
)

type taskTableEntry struct {
	ID        uint64
	ParentID  uint64
	Label     string
	StartTime int64 // unix nanoseconds
	EndTime   int64 // unix nanoseconds
}

type intervalTableEntry struct {
	TaskID   uint64
	Label    string
	Duration int64 // nanoseconds
}

// DBTracer stores completed tasks and intervals into a database. DBTracers
// can connect with different backends so that the traces can be stored in
// different types of databases.
type DBTracer struct {
	mu      sync.Mutex
	backend recording.DataRecorder

	tracingTasks map[uint64]Task
}

// NewDBTracer creates a DBTracer writing into backend. The trace tables are
// created immediately, and buffered rows are flushed at process exit.
func NewDBTracer(backend recording.DataRecorder) *DBTracer {
	t := &DBTracer{
		backend:      backend,
		tracingTasks: make(map[uint64]Task),
	}

	backend.CreateTable("trace_tasks", taskTableEntry{})
	backend.CreateTable("trace_intervals", intervalTableEntry{})

	atexit.Register(func() { t.Terminate() })

	return t
}

// StartTask marks the start of a task.
func (t *DBTracer) StartTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.tracingTasks[task.ID] = task
}

// EndInterval stores one completed interval measurement.
func (t *DBTracer) EndInterval(interval Interval) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.backend.InsertData("trace_intervals", intervalTableEntry{
		TaskID:   interval.TaskID,
		Label:    interval.Label,
		Duration: int64(interval.Duration),
	})
}

// EndTask marks the end of a task and writes it out.
func (t *DBTracer) EndTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	originalTask, ok := t.tracingTasks[task.ID]
	if !ok {
		return
	}
	delete(t.tracingTasks, task.ID)

	t.backend.InsertData("trace_tasks", taskTableEntry{
		ID:        originalTask.ID,
		ParentID:  originalTask.ParentID,
		Label:     originalTask.Label,
		StartTime: originalTask.StartTime.UnixNano(),
		EndTime:   task.EndTime.UnixNano(),
	})
}

// Terminate flushes everything the tracer has buffered.
func (t *DBTracer) Terminate() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.backend.Flush()
}
