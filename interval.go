package logwise

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"
)

var nextProfileID atomic.Uint64

func callerLocation(skip int) string {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return "unknown:0"
	}
	return fmt.Sprintf("%s:%d", file, line)
}

// A PerfwarnInterval measures one scope and always reports it, both into
// the active task's statistics and as a pair of BEGIN/END log lines.
//
// Begin it with BeginPerfwarn and end it with End, usually via defer. End
// must run on every exit path and is a no-op when called again.
type PerfwarnInterval struct {
	label   string
	start   time.Time
	scopeID ContextID
	scale   float64
	enabled bool
	ended   bool
}

// BeginPerfwarn starts an unconditional performance-warning interval. It
// pushes a child scope context for the duration of the interval so that
// records emitted inside it are indented under the interval's scope.
func BeginPerfwarn(label string) *PerfwarnInterval {
	if !Enabled(LevelPerfWarn) {
		return &PerfwarnInterval{label: label, scale: 1.0}
	}

	start := time.Now()
	location := callerLocation(1)

	record := NewRecord(LevelPerfWarn)
	Current().logPrelude(record)
	record.Log("PERFWARN: BEGIN ")
	record.Log(location)
	record.Log(" ")
	record.LogTimeSince(start)
	record.Dispatch()

	scope := FromParent(Current())
	scope.SetCurrent()
	scopeID := scope.ContextID()
	scope.Release()

	return &PerfwarnInterval{
		label:   label,
		start:   start,
		scopeID: scopeID,
		scale:   1.0,
		enabled: true,
	}
}

// Scale sets a multiplier applied to the reported duration. Use it to
// discount an interval that only partially represents the cost being warned
// about; statistics always accumulate the unscaled duration.
func (p *PerfwarnInterval) Scale(scale float64) {
	p.scale = scale
}

// End measures the interval, accumulates it into the nearest task's
// statistics, pops the interval's scope context, and emits the END line.
func (p *PerfwarnInterval) End() {
	if p == nil || p.ended {
		return
	}
	p.ended = true

	if !p.enabled {
		return
	}

	end := time.Now()
	duration := end.Sub(p.start)

	task := Current().Task()
	task.addInterval(p.label, duration)

	if NumHooks() > 0 {
		InvokeHook(HookCtx{
			Pos: HookPosIntervalEnd,
			Item: IntervalEnd{
				TaskID:   uint64(task.ID()),
				Label:    p.label,
				Duration: duration,
			},
		})
	}

	Pop(p.scopeID)

	record := NewRecord(LevelPerfWarn)
	Current().logPrelude(record)
	record.Log("PERFWARN: END ")
	record.LogTimeSince(end)
	record.Log(p.label)
	record.Log(" ")
	scaled := time.Duration(float64(duration) * p.scale)
	record.Logf("[interval took %v] ", scaled)
	record.Dispatch()
}

// A PerfwarnIntervalIf measures one scope, always accumulates it into the
// active task's statistics, but only emits a log line when the measured
// duration exceeds its threshold.
type PerfwarnIntervalIf struct {
	label       string
	start       time.Time
	threshold   time.Duration
	record      *Record
	spliceIndex int
	enabled     bool
	ended       bool
}

// BeginPerfwarnIf starts a conditional performance-warning interval. The
// log record is partially built now, while the callsite's context is
// current, and held until End decides whether to emit it.
func BeginPerfwarnIf(threshold time.Duration, label string) *PerfwarnIntervalIf {
	if !Enabled(LevelPerfWarn) {
		return &PerfwarnIntervalIf{label: label, threshold: threshold}
	}

	record := NewRecord(LevelPerfWarn)
	Current().logPrelude(record)
	record.Log("PERFWARN: ")
	record.Log(callerLocation(1))
	record.Log(" ")

	return &PerfwarnIntervalIf{
		label:     label,
		start:     time.Now(),
		threshold: threshold,
		record:    record,
		// The elapsed-time fragment is spliced here, right after the
		// source location and before the label.
		spliceIndex: record.Len(),
		enabled:     true,
	}
}

// End measures the interval and accumulates it, threshold included, into
// the nearest task's statistics. Only when the measured duration exceeds
// the threshold does it finish and dispatch the record built at Begin time.
func (p *PerfwarnIntervalIf) End() {
	if p == nil || p.ended {
		return
	}
	p.ended = true

	if !p.enabled {
		return
	}

	duration := time.Since(p.start)

	task := Current().Task()
	task.addIntervalIf(p.label, duration, p.threshold)

	if NumHooks() > 0 {
		InvokeHook(HookCtx{
			Pos: HookPosIntervalEnd,
			Item: IntervalEnd{
				TaskID:   uint64(task.ID()),
				Label:    p.label,
				Duration: duration,
			},
		})
	}

	if duration <= p.threshold {
		return
	}

	p.record.InsertAt(p.spliceIndex, fmt.Sprintf("[%v] ", duration))
	p.record.Log(p.label)
	p.record.Log(" is SLOW: ")
	p.record.Logf("%v", duration)
	p.record.Dispatch()
}

// A ProfileInterval is an always-on BEGIN/END timing span. The two lines
// are correlated by a process-unique id so that nested or interleaved spans
// can be matched up from log output. Profile intervals never touch task
// statistics; they exist for temporary profiling, not aggregated
// accounting.
type ProfileInterval struct {
	id    uint64
	name  string
	start time.Time
	ended bool
}

// BeginProfile starts a profile span and emits its BEGIN line. Profile
// spans ignore the minimum-level check; they are meant to be added
// temporarily and always produce output.
func BeginProfile(name string) *ProfileInterval {
	id := nextProfileID.Add(1)
	start := time.Now()

	record := NewRecord(LevelPerfWarn)
	Current().logPrelude(record)
	record.Logf("PROFILE: BEGIN [id=%d] ", id)
	record.Log(callerLocation(1))
	record.Log(" ")
	record.LogTimeSince(start)
	record.Dispatch()

	return &ProfileInterval{id: id, name: name, start: start}
}

// End emits the END line with the elapsed duration.
func (p *ProfileInterval) End() {
	if p == nil || p.ended {
		return
	}
	p.ended = true

	record := NewRecord(LevelPerfWarn)
	Current().logPrelude(record)
	record.Logf("PROFILE: END [id=%d] ", p.id)
	record.Log(p.name)
	record.Logf(" [took %v] ", time.Since(p.start))
	record.Dispatch()
}
