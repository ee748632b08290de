package logwise

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

var nextTaskID atomic.Uint64

// TaskID uniquely identifies a task for the process lifetime. IDs are
// allocated in increasing order and never reused.
type TaskID uint64

func (id TaskID) String() string {
	return fmt.Sprintf("%d", uint64(id))
}

// A Task is a named unit of work that owns aggregated interval statistics.
// A Task is created by the context that defines it and may be shared, via
// child contexts, by any number of goroutines; the statistics maps are
// mutex-guarded for that reason.
//
// When the last context referencing a task is released, the task logs its
// accumulated statistics and, if requested, a completion line.
type Task struct {
	id                  TaskID
	label               string
	completionLevel     Level
	shouldLogCompletion bool

	mu                 sync.Mutex
	intervalStatistics map[string]time.Duration
	intervalThresholds map[string]time.Duration
}

func newTask(label string, completionLevel Level, shouldLogCompletion bool) *Task {
	return &Task{
		id:                  TaskID(nextTaskID.Add(1)),
		label:               label,
		completionLevel:     completionLevel,
		shouldLogCompletion: shouldLogCompletion,
		intervalStatistics:  make(map[string]time.Duration),
		intervalThresholds:  make(map[string]time.Duration),
	}
}

// ID returns the task's process-unique identifier.
func (t *Task) ID() TaskID {
	return t.id
}

// Label returns the human-readable label the task was created with.
func (t *Task) Label() string {
	return t.label
}

// addInterval accumulates a measured duration under key. Repeated intervals
// with the same key are summed.
func (t *Task) addInterval(key string, d time.Duration) {
	t.mu.Lock()
	t.intervalStatistics[key] += d
	t.mu.Unlock()
}

// addIntervalIf accumulates a duration and its reporting threshold under
// key. Thresholds accumulate alongside durations so that the final
// statistics line can compare like with like.
func (t *Task) addIntervalIf(key string, d, threshold time.Duration) {
	t.mu.Lock()
	t.intervalStatistics[key] += d
	t.intervalThresholds[key] += threshold
	t.mu.Unlock()
}

// statsSnapshot copies the accumulated statistics for hooks and monitors.
func (t *Task) statsSnapshot() map[string]time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := make(map[string]time.Duration, len(t.intervalStatistics))
	for k, v := range t.intervalStatistics {
		stats[k] = v
	}
	return stats
}

// finish runs exactly once, when the last context referencing the task is
// released. It emits the aggregated statistics line, the completion line,
// and the TaskEnd hook.
func (t *Task) finish() {
	t.mu.Lock()
	stats := t.intervalStatistics
	thresholds := t.intervalThresholds
	t.mu.Unlock()

	if len(stats) > 0 {
		record := NewRecord(LevelPerfWarn)
		record.LogOwned(fmt.Sprintf("%d ", uint64(t.id)))
		record.Log("PERFWARN: statistics[")

		keys := make([]string, 0, len(stats))
		for key := range stats {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		first := true
		for _, key := range keys {
			duration := stats[key]
			if threshold, ok := thresholds[key]; ok && duration <= threshold {
				continue
			}

			if !first {
				record.Log(", ")
			}
			first = false
			record.Log(key)
			record.LogOwned(fmt.Sprintf(": %v", duration))
		}
		record.Log("]")

		// Skip the line entirely when every key stayed under its
		// threshold.
		if !first {
			record.Dispatch()
		}
	}

	if t.shouldLogCompletion {
		record := NewRecord(t.completionLevel)
		record.LogOwned(fmt.Sprintf("%d ", uint64(t.id)))
		record.Log("Finished task `")
		record.Log(t.label)
		record.Log("`")
		record.Dispatch()
	}

	if NumHooks() > 0 {
		InvokeHook(HookCtx{
			Pos: HookPosTaskEnd,
			Item: TaskEnd{
				ID:    uint64(t.id),
				Label: t.label,
				Time:  time.Now(),
				Stats: stats,
			},
		})
	}
}
