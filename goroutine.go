package logwise

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// Each goroutine owns exactly one mutable current-context cell, keyed by its
// runtime goroutine ID. Only the owning goroutine reads or writes its own
// entry, so the cell's contents need no further synchronization; the map
// itself does.
//
// A goroutine that installs a context with SetCurrent and then exits leaves
// its cell (and the references it holds) behind: the retained chain is never
// released, so a labeled task installed this way never logs its completion
// line or its statistics. Spawn goroutines with Go, or scope a context with
// Apply, to get automatic cleanup.
var currentCells sync.Map // goroutine id -> *Context

// goroutineID extracts the numeric goroutine ID from the runtime stack
// header, which is formatted "goroutine N [status]:".
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	header := buf[:n]

	header = bytes.TrimPrefix(header, []byte("goroutine "))
	if i := bytes.IndexByte(header, ' '); i >= 0 {
		header = header[:i]
	}

	id, err := strconv.ParseUint(string(header), 10, 64)
	if err != nil {
		panic("logwise: cannot parse goroutine ID: " + err.Error())
	}
	return id
}

// currentOrInit returns the goroutine's current context, installing a
// default root task the first time the goroutine touches the cell. The
// default root is unlabeled and never logs completion.
func currentOrInit() *Context {
	gid := goroutineID()
	if v, ok := currentCells.Load(gid); ok {
		return v.(*Context)
	}

	root := NewTask(nil, "", LevelDebugInternal, false)
	currentCells.Store(gid, root)
	return root
}

// currentIfAny returns the goroutine's current context without initializing
// the cell.
func currentIfAny() *Context {
	if v, ok := currentCells.Load(goroutineID()); ok {
		return v.(*Context)
	}
	return nil
}

// swapCurrent installs c in the goroutine's cell and returns the previous
// occupant, which may be nil. Reference accounting is the caller's job.
func swapCurrent(c *Context) *Context {
	gid := goroutineID()
	prev, _ := currentCells.Load(gid)
	currentCells.Store(gid, c)
	if prev == nil {
		return nil
	}
	return prev.(*Context)
}

// Apply runs fn with c installed as the goroutine's current context, then
// restores whatever was current before. This is the synchronous analog of
// wrapping a future so that suspended work resumes under the context it was
// started with.
func Apply(c *Context, fn func()) {
	gid := goroutineID()
	prev, hadPrev := currentCells.Load(gid)

	c.Retain()
	currentCells.Store(gid, c)

	defer func() {
		if hadPrev {
			currentCells.Store(gid, prev)
		} else {
			currentCells.Delete(gid)
		}
		c.Release()
	}()

	fn()
}

// Go spawns fn on a new goroutine whose current context is a child of the
// spawner's, created with FromParent. The child context, and the
// goroutine's cell, are released when fn returns.
func Go(fn func()) {
	child := FromParent(Current())

	go func() {
		gid := goroutineID()
		currentCells.Store(gid, child)

		defer func() {
			currentCells.Delete(gid)
			child.Release()
		}()

		fn()
	}()
}
