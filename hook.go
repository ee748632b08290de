package logwise

import (
	"sync"
	"time"
)

// HookPos identifies the place in the runtime where a hook fires.
type HookPos struct {
	Name string
}

// A list of hook positions.
var (
	HookPosTaskStart     = &HookPos{Name: "HookPosTaskStart"}
	HookPosTaskEnd       = &HookPos{Name: "HookPosTaskEnd"}
	HookPosIntervalEnd   = &HookPos{Name: "HookPosIntervalEnd"}
	HookPosHeartbeatMiss = &HookPos{Name: "HookPosHeartbeatMiss"}
)

// HookCtx holds the information about the site where a hook is invoked.
type HookCtx struct {
	Pos  *HookPos
	Item any
}

// Hook is a short piece of program that the runtime invokes at task,
// interval, and heartbeat lifecycle points.
type Hook interface {
	// Func determines what to do when the hook is invoked.
	Func(ctx HookCtx)
}

// TaskStart is the hook payload emitted when a task-defining context is
// created.
type TaskStart struct {
	ID       uint64
	ParentID uint64
	Label    string
	Time     time.Time
}

// TaskEnd is the hook payload emitted when a task finishes, carrying its
// accumulated interval statistics.
type TaskEnd struct {
	ID    uint64
	Label string
	Time  time.Time
	Stats map[string]time.Duration
}

// IntervalEnd is the hook payload emitted when a perfwarn interval guard
// ends.
type IntervalEnd struct {
	TaskID   uint64
	Label    string
	Duration time.Duration
}

// HeartbeatMiss is the hook payload emitted when the watcher detects a
// missed deadline.
type HeartbeatMiss struct {
	ID      uint64
	Name    string
	Overrun time.Duration
}

var (
	hookLock sync.RWMutex
	hooks    []Hook
)

// AcceptHook registers a hook with the runtime. Hooks cannot be removed.
func AcceptHook(hook Hook) {
	hookLock.Lock()
	hooks = append(hooks, hook)
	hookLock.Unlock()
}

// NumHooks returns the number of registered hooks. Emitting sites use it to
// skip payload construction when nothing is listening.
func NumHooks() int {
	hookLock.RLock()
	defer hookLock.RUnlock()

	return len(hooks)
}

// InvokeHook triggers every registered hook.
func InvokeHook(ctx HookCtx) {
	hookLock.RLock()
	hs := hooks
	hookLock.RUnlock()

	for _, h := range hs {
		h.Func(ctx)
	}
}
