package tracing

import (
	"sync"
	"time"
)

// IntervalCountTracer counts how often each interval label completes and
// how much time each label accumulates, across all tasks that pass the
// filter.
type IntervalCountTracer struct {
	filter        TaskFilter
	lock          sync.Mutex
	inflightTasks map[uint64]Task
	labels        []string
	counts        map[string]uint64
	totals        map[string]time.Duration
}

// NewIntervalCountTracer creates a new IntervalCountTracer.
func NewIntervalCountTracer(filter TaskFilter) *IntervalCountTracer {
	t := &IntervalCountTracer{
		filter:        filter,
		inflightTasks: make(map[uint64]Task),
		counts:        make(map[string]uint64),
		totals:        make(map[string]time.Duration),
	}
	return t
}

// Labels returns all the interval labels collected, in first-seen order.
func (t *IntervalCountTracer) Labels() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.labels
}

// Count returns the number of completed intervals recorded with a certain
// label.
func (t *IntervalCountTracer) Count(label string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.counts[label]
}

// TotalTime returns the duration accumulated under a certain label.
func (t *IntervalCountTracer) TotalTime(label string) time.Duration {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.totals[label]
}

// StartTask records the task as in flight.
func (t *IntervalCountTracer) StartTask(task Task) {
	if !t.filter(task) {
		return
	}

	t.lock.Lock()
	t.inflightTasks[task.ID] = task
	t.lock.Unlock()
}

// EndInterval counts the interval if its task passed the filter.
func (t *IntervalCountTracer) EndInterval(interval Interval) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if _, ok := t.inflightTasks[interval.TaskID]; !ok {
		return
	}

	if _, ok := t.counts[interval.Label]; !ok {
		t.labels = append(t.labels, interval.Label)
	}
	t.counts[interval.Label]++
	t.totals[interval.Label] += interval.Duration
}

// EndTask forgets the task.
func (t *IntervalCountTracer) EndTask(task Task) {
	t.lock.Lock()
	delete(t.inflightTasks, task.ID)
	t.lock.Unlock()
}
