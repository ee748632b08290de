package logwise

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

var nextContextID atomic.Uint64

// ContextID uniquely identifies a context for the process lifetime.
// Context IDs can be used with Pop to restore a previous context.
type ContextID uint64

// A Context is an immutable node in the hierarchical tree of logging
// scopes. Each context either defines a new task or inherits its parent's
// task. The parent chain is acyclic by construction: a context can only
// reference a parent that already existed when it was created.
//
// Contexts are reference counted. Everything that stores a context holds a
// reference: children retain their parents, and the per-goroutine current
// cell retains its occupant. Callers that create a context own one
// reference and give it up with Release; the last release of a
// task-defining context finishes its task.
type Context struct {
	id      uint64
	parent  *Context
	task    *Task // non-nil only if this context defines a task
	tracing atomic.Bool
	refs    atomic.Int64
}

// NewTask creates a context that defines a new task. parent may be nil for
// a root context. The returned context carries one reference owned by the
// caller.
func NewTask(
	parent *Context,
	label string,
	completionLevel Level,
	shouldLogCompletion bool,
) *Context {
	c := &Context{
		id:     nextContextID.Add(1),
		parent: parent,
		task:   newTask(label, completionLevel, shouldLogCompletion),
	}
	c.refs.Store(1)

	if parent != nil {
		parent.Retain()
	}

	if NumHooks() > 0 {
		var parentID uint64
		if parent != nil {
			parentID = uint64(parent.TaskID())
		}
		InvokeHook(HookCtx{
			Pos: HookPosTaskStart,
			Item: TaskStart{
				ID:       uint64(c.task.id),
				ParentID: parentID,
				Label:    label,
				Time:     time.Now(),
			},
		})
	}

	return c
}

// FromParent creates a context that inherits the parent's task. The new
// context snapshots the parent's current tracing flag; later changes to the
// parent are not observed. The returned context carries one reference owned
// by the caller.
func FromParent(parent *Context) *Context {
	if parent == nil {
		panic("logwise: FromParent requires a parent context")
	}

	c := &Context{
		id:     nextContextID.Add(1),
		parent: parent,
	}
	c.refs.Store(1)
	c.tracing.Store(parent.tracing.Load())
	parent.Retain()

	return c
}

// Retain adds a reference to the context.
func (c *Context) Retain() {
	c.refs.Add(1)
}

// Release gives up one reference. When the last reference is released, the
// context's task (if it defines one) finishes, and the reference held on
// the parent is released in turn.
func (c *Context) Release() {
	n := c.refs.Add(-1)
	if n > 0 {
		return
	}
	if n < 0 {
		panic("logwise: context released more times than retained")
	}

	if c.task != nil {
		c.task.finish()
	}
	if c.parent != nil {
		c.parent.Release()
	}
}

// ContextID returns the unique ID of this context.
func (c *Context) ContextID() ContextID {
	return ContextID(c.id)
}

// Task returns the nearest task in the chain starting at this context. It
// panics if the chain has no task-defining node, which indicates the
// context tree was built incorrectly.
func (c *Context) Task() *Task {
	for n := c; n != nil; n = n.parent {
		if n.task != nil {
			return n.task
		}
	}
	panic("logwise: context chain has no task")
}

// TaskID returns the ID of the task associated with this context.
func (c *Context) TaskID() TaskID {
	return c.Task().ID()
}

// IsTracing reports whether this specific context has tracing enabled.
func (c *Context) IsTracing() bool {
	return c.tracing.Load()
}

// NestingLevel returns the number of parent hops from this context to its
// root. It is used for log indentation only.
func (c *Context) NestingLevel() int {
	level := 0
	for n := c.parent; n != nil; n = n.parent {
		level++
	}
	return level
}

// logPrelude writes the per-line context prefix: the tracing marker, one
// space per nesting level, and the task ID.
func (c *Context) logPrelude(record *Record) {
	if c.IsTracing() {
		record.Log("T")
	} else {
		record.Log(" ")
	}
	if n := c.NestingLevel(); n > 0 {
		record.Log(strings.Repeat(" ", n))
	}
	record.LogOwned(fmt.Sprintf("%d ", uint64(c.TaskID())))
}

func (c *Context) String() string {
	return fmt.Sprintf("%s%d (%s)",
		strings.Repeat("  ", c.NestingLevel()),
		uint64(c.TaskID()),
		c.Task().Label(),
	)
}

// SetCurrent installs this context as the calling goroutine's current
// context. The previous occupant of the cell is released; restoring it is
// the caller's job, via Pop.
func (c *Context) SetCurrent() {
	c.Retain()
	prev := swapCurrent(c)
	if prev != nil {
		prev.Release()
	}
}

// Current returns the calling goroutine's current context, lazily creating
// a default root on first use. The returned context is borrowed: the
// current cell keeps it alive, so callers that hold on to it across a
// SetCurrent or Pop must Retain it themselves.
func Current() *Context {
	return currentOrInit()
}

// Reset replaces the calling goroutine's current context with a fresh root
// task. Useful for starting over in tests or worker loops.
func Reset(label string) {
	c := NewTask(nil, label, LevelDebugInternal, Enabled(LevelDebugInternal))
	c.SetCurrent()
	c.Release()
}

// CurrentlyTracing reports whether the calling goroutine's current context
// has tracing enabled, without initializing the cell.
func CurrentlyTracing() bool {
	c := currentIfAny()
	return c != nil && c.IsTracing()
}

// BeginTrace enables tracing on the current context. Children created
// afterward with FromParent inherit the flag; already-created children are
// unaffected.
func BeginTrace() {
	Current().tracing.Store(true)

	record := NewRecord(LevelTrace)
	Current().logPrelude(record)
	record.Log("Begin trace")
	record.Dispatch()
}

// Pop walks from the current context up through its parents looking for the
// context with the given ID. When found, that node's parent becomes the
// goroutine's current context. If the ID is not on the current chain, a
// warning is logged and the current context is left unchanged.
func Pop(id ContextID) {
	current := Current()
	for n := current; n != nil; n = n.parent {
		if n.ContextID() == id {
			parent := n.parent
			if parent == nil {
				panic("logwise: cannot pop a root context")
			}
			parent.Retain()
			prev := swapCurrent(parent)
			if prev != nil {
				prev.Release()
			}
			return
		}
	}

	record := NewRecord(LevelWarning)
	current.logPrelude(record)
	record.Logf(
		"Tried to pop context with ID %d, but it was not found in the current context chain.",
		uint64(id))
	record.Dispatch()
}
