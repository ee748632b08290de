package logwise

import (
	"fmt"
	"strings"
	"sync"
	"time"

	g "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = g.Describe("Context", func() {
	var logger *InMemoryLogger

	g.BeforeEach(func() {
		logger = installTestLogger()
		Reset("context test")
	})

	g.It("should allocate increasing, unique task IDs", func() {
		a := NewTask(nil, "a", LevelInfo, false)
		b := NewTask(nil, "b", LevelInfo, false)
		defer a.Release()
		defer b.Release()

		Expect(uint64(b.TaskID())).To(BeNumerically(">", uint64(a.TaskID())))
	})

	g.It("should inherit the parent's task through FromParent", func() {
		parent := NewTask(nil, "parent", LevelInfo, false)
		child := FromParent(parent)
		grandchild := FromParent(child)
		defer parent.Release()
		defer child.Release()
		defer grandchild.Release()

		Expect(child.TaskID()).To(Equal(parent.TaskID()))
		Expect(grandchild.TaskID()).To(Equal(parent.TaskID()))
	})

	g.It("should count nesting as hops to the root", func() {
		root := NewTask(nil, "root", LevelInfo, false)
		child := FromParent(root)
		grandchild := NewTask(child, "nested", LevelInfo, false)
		defer root.Release()
		defer child.Release()
		defer grandchild.Release()

		Expect(root.NestingLevel()).To(Equal(0))
		Expect(child.NestingLevel()).To(Equal(1))
		Expect(grandchild.NestingLevel()).To(Equal(2))
	})

	g.It("should snapshot the tracing flag at FromParent time", func() {
		parent := NewTask(nil, "parent", LevelInfo, false)
		defer parent.Release()

		before := FromParent(parent)
		defer before.Release()

		parent.tracing.Store(true)
		after := FromParent(parent)
		defer after.Release()

		Expect(before.IsTracing()).To(BeFalse())
		Expect(after.IsTracing()).To(BeTrue())
	})

	g.It("should finish the task only when the last reference goes away", func() {
		ctx := NewTask(nil, "finishing", LevelInfo, true)
		child := FromParent(ctx)

		ctx.Release()
		Expect(logger.DrainLogs()).ToNot(ContainSubstring("Finished task"))

		child.Release()
		Expect(logger.DrainLogs()).To(
			ContainSubstring("Finished task `finishing`"))
	})

	g.It("should not finish a task twice", func() {
		ctx := NewTask(nil, "once", LevelInfo, true)
		child1 := FromParent(ctx)
		child2 := FromParent(ctx)

		ctx.Release()
		child1.Release()
		child2.Release()

		logs := logger.DrainLogs()
		Expect(strings.Count(logs, "Finished task `once`")).To(Equal(1))
	})

	g.It("should prefix records with indentation and the task ID", func() {
		ctx := NewTask(nil, "prelude", LevelInfo, false)
		child := FromParent(ctx)
		defer ctx.Release()
		defer child.Release()

		record := NewRecord(LevelInfo)
		child.logPrelude(record)

		Expect(record.String()).To(
			Equal(fmt.Sprintf("  %d ", uint64(ctx.TaskID()))))
	})

	g.It("should mark records from tracing contexts with T", func() {
		ctx := NewTask(nil, "traced", LevelInfo, false)
		defer ctx.Release()
		ctx.tracing.Store(true)

		record := NewRecord(LevelInfo)
		ctx.logPrelude(record)

		Expect(record.String()).To(HavePrefix("T"))
	})

	g.It("should emit a TaskStart hook with the parent task ID", func() {
		hook := &collectingHook{}
		AcceptHook(hook)

		parent := NewTask(nil, "hook parent", LevelInfo, false)
		child := NewTask(parent, "hook child", LevelInfo, false)
		child.Release()
		parent.Release()

		starts := hook.itemsAt(HookPosTaskStart)
		Expect(len(starts)).To(BeNumerically(">=", 2))

		last := starts[len(starts)-1].(TaskStart)
		Expect(last.Label).To(Equal("hook child"))
		Expect(last.ParentID).To(Equal(uint64(parent.TaskID())))
	})
})

var _ = g.Describe("Pop", func() {
	var logger *InMemoryLogger

	g.BeforeEach(func() {
		logger = installTestLogger()
		Reset("pop test")
	})

	g.It("should restore the parent of the popped context", func() {
		base := Current()
		baseID := base.ContextID()

		scope := FromParent(base)
		scope.SetCurrent()
		scopeID := scope.ContextID()
		scope.Release()

		Expect(Current().ContextID()).To(Equal(scopeID))

		Pop(scopeID)

		Expect(Current().ContextID()).To(Equal(baseID))
	})

	g.It("should pop through intermediate contexts left on the chain", func() {
		base := Current()
		baseID := base.ContextID()

		outer := FromParent(base)
		outer.SetCurrent()
		outerID := outer.ContextID()
		outer.Release()

		inner := FromParent(Current())
		inner.SetCurrent()
		inner.Release()

		// Popping outer from inside inner unwinds both scopes.
		Pop(outerID)

		Expect(Current().ContextID()).To(Equal(baseID))
	})

	g.It("should warn and keep the current context when the ID is unknown", func() {
		before := Current().ContextID()

		Pop(ContextID(999999999))

		Expect(Current().ContextID()).To(Equal(before))
		Expect(logger.DrainLogs()).To(ContainSubstring(
			"Tried to pop context with ID 999999999, " +
				"but it was not found in the current context chain."))
	})

	g.It("should panic when asked to pop a root context", func() {
		Expect(func() {
			Pop(Current().ContextID())
		}).To(Panic())
	})
})

var _ = g.Describe("BeginTrace", func() {
	var logger *InMemoryLogger

	g.BeforeEach(func() {
		logger = installTestLogger()
		Reset("trace test")
	})

	g.It("should flag the current context and log the start of the trace", func() {
		Expect(CurrentlyTracing()).To(BeFalse())

		BeginTrace()

		Expect(CurrentlyTracing()).To(BeTrue())
		Expect(logger.DrainLogs()).To(ContainSubstring("Begin trace"))
	})

	g.It("should propagate to children created afterward", func() {
		BeginTrace()
		logger.DrainLogs()

		child := FromParent(Current())
		defer child.Release()

		Expect(child.IsTracing()).To(BeTrue())
	})
})

// collectingHook records every invocation for later inspection. Hooks can
// fire from the heartbeat watcher goroutine, hence the lock.
type collectingHook struct {
	mu   sync.Mutex
	ctxs []HookCtx
}

func (h *collectingHook) Func(ctx HookCtx) {
	h.mu.Lock()
	h.ctxs = append(h.ctxs, ctx)
	h.mu.Unlock()
}

func (h *collectingHook) itemsAt(pos *HookPos) []any {
	h.mu.Lock()
	defer h.mu.Unlock()

	var items []any
	for _, ctx := range h.ctxs {
		if ctx.Pos == pos {
			items = append(items, ctx.Item)
		}
	}
	return items
}

var _ = g.Describe("Task statistics", func() {
	var logger *InMemoryLogger

	g.BeforeEach(func() {
		logger = installTestLogger()
		Reset("stats test")
	})

	g.It("should sum repeated intervals under the same key", func() {
		ctx := NewTask(nil, "summing", LevelInfo, false)
		task := ctx.Task()

		task.addInterval("step", 2*time.Millisecond)
		task.addInterval("step", 3*time.Millisecond)

		Expect(task.statsSnapshot()["step"]).To(Equal(5 * time.Millisecond))

		ctx.Release()
		Expect(logger.DrainLogs()).To(ContainSubstring(
			fmt.Sprintf("%d PERFWARN: statistics[step: 5ms]",
				uint64(task.ID()))))
	})

	g.It("should list statistics keys in sorted order", func() {
		ctx := NewTask(nil, "sorted", LevelInfo, false)
		task := ctx.Task()

		task.addInterval("zeta", time.Millisecond)
		task.addInterval("alpha", time.Millisecond)
		ctx.Release()

		Expect(logger.DrainLogs()).To(ContainSubstring(
			"statistics[alpha: 1ms, zeta: 1ms]"))
	})

	g.It("should drop keys that stayed within their accumulated threshold", func() {
		ctx := NewTask(nil, "filtered", LevelInfo, false)
		task := ctx.Task()

		task.addIntervalIf("fast", 2*time.Millisecond, 10*time.Millisecond)
		task.addIntervalIf("slow", 20*time.Millisecond, 10*time.Millisecond)
		ctx.Release()

		logs := logger.DrainLogs()
		Expect(logs).To(ContainSubstring("statistics[slow: 20ms]"))
		Expect(logs).ToNot(ContainSubstring("fast"))
	})

	g.It("should skip the statistics line when every key is filtered", func() {
		ctx := NewTask(nil, "quiet", LevelInfo, false)
		task := ctx.Task()

		task.addIntervalIf("fast", 2*time.Millisecond, 10*time.Millisecond)
		ctx.Release()

		Expect(logger.DrainLogs()).ToNot(ContainSubstring("statistics["))
	})

	g.It("should report statistics in the TaskEnd hook", func() {
		hook := &collectingHook{}
		AcceptHook(hook)

		ctx := NewTask(nil, "hooked stats", LevelInfo, false)
		ctx.Task().addInterval("work", 4*time.Millisecond)
		ctx.Release()

		ends := hook.itemsAt(HookPosTaskEnd)
		Expect(ends).ToNot(BeEmpty())

		var end TaskEnd
		for _, item := range ends {
			if item.(TaskEnd).Label == "hooked stats" {
				end = item.(TaskEnd)
			}
		}
		Expect(end.Stats["work"]).To(Equal(4 * time.Millisecond))
	})
})
