// Package tracing collects task and interval traces from the logging
// runtime. Tracers attach through the runtime's hook mechanism and
// aggregate timing in memory or mirror it into a database.
package tracing

import "time"

// A Task is one traced unit of work, as observed through the runtime's
// task lifecycle hooks.
type Task struct {
	ID        uint64                   `json:"id"`
	ParentID  uint64                   `json:"parent_id"`
	Label     string                   `json:"label"`
	StartTime time.Time                `json:"start_time"`
	EndTime   time.Time                `json:"end_time"`
	Stats     map[string]time.Duration `json:"stats,omitempty"`
}

// An Interval is one completed interval-guard measurement.
type Interval struct {
	TaskID   uint64        `json:"task_id"`
	Label    string        `json:"label"`
	Duration time.Duration `json:"duration"`
}

// TaskFilter is a function that can filter interesting tasks. If this
// function returns true, the task is considered useful.
type TaskFilter func(t Task) bool

// AnyTask is a TaskFilter that accepts every task.
func AnyTask(_ Task) bool {
	return true
}

// TaskWithLabel returns a TaskFilter that accepts tasks with the given
// label.
func TaskWithLabel(label string) TaskFilter {
	return func(t Task) bool {
		return t.Label == label
	}
}
