package tracing

import (
	"github.com/drewcrawford/logwise"
)

// traceHook translates runtime hook payloads into Tracer calls.
type traceHook struct {
	tracer Tracer
}

// Func determines what to do when the hook is invoked.
func (h *traceHook) Func(ctx logwise.HookCtx) {
	switch ctx.Pos {
	case logwise.HookPosTaskStart:
		item := ctx.Item.(logwise.TaskStart)
		h.tracer.StartTask(Task{
			ID:        item.ID,
			ParentID:  item.ParentID,
			Label:     item.Label,
			StartTime: item.Time,
		})
	case logwise.HookPosTaskEnd:
		item := ctx.Item.(logwise.TaskEnd)
		h.tracer.EndTask(Task{
			ID:      item.ID,
			Label:   item.Label,
			EndTime: item.Time,
			Stats:   item.Stats,
		})
	case logwise.HookPosIntervalEnd:
		item := ctx.Item.(logwise.IntervalEnd)
		h.tracer.EndInterval(Interval{
			TaskID:   item.TaskID,
			Label:    item.Label,
			Duration: item.Duration,
		})
	}
}

// CollectTraces attaches a tracer to the logging runtime. Every task start,
// task end, and interval end is forwarded to the tracer, from the goroutine
// that triggered it. Tracers cannot be detached.
func CollectTraces(tracer Tracer) {
	logwise.AcceptHook(&traceHook{tracer: tracer})
}
