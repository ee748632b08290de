package logwise

import (
	"sync"
	"sync/atomic"
	"time"
)

// heartbeatIdlePoll bounds how long the watcher sleeps when no registered
// heartbeat needs a deadline check.
const heartbeatIdlePoll = 250 * time.Millisecond

var (
	nextHeartbeatID   atomic.Uint64
	heartbeatChanOnce sync.Once
	heartbeatChan     atomic.Value // chan any, set once by watcherChannel
)

// heartbeatReg is the watcher's record of one armed heartbeat. After
// registration it is owned exclusively by the watcher goroutine; no lock
// guards it.
type heartbeatReg struct {
	id        uint64
	name      string
	createdAt time.Time
	deadline  time.Time
	location  string
	warned    bool
}

type registerMsg struct {
	reg heartbeatReg
}

type completeMsg struct {
	id uint64
}

type snapshotMsg struct {
	reply chan []HeartbeatInfo
}

// HeartbeatInfo describes one pending heartbeat, as reported by
// HeartbeatSnapshot.
type HeartbeatInfo struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Deadline  time.Time `json:"deadline"`
	Location  string    `json:"location"`
	Warned    bool      `json:"warned"`
}

func watcherChannel() chan any {
	heartbeatChanOnce.Do(func() {
		ch := make(chan any, 128)
		heartbeatChan.Store(ch)
		go watcherLoop(ch)
	})
	return heartbeatChan.Load().(chan any)
}

// A HeartbeatGuard watches one operation against a deadline. Begin it with
// BeginHeartbeat and end it with End, usually via defer. Ending on time is
// silent; missing the deadline produces warnings both from the background
// watcher (when the deadline passes) and from End itself (when the guard is
// ended late). The duplication is deliberate: visibility of overruns is
// preferred over exactly-once reporting.
//
// A guard that is never ended is never removed from the watcher's registry.
type HeartbeatGuard struct {
	id        uint64
	name      string
	createdAt time.Time
	deadline  time.Time
	location  string
	ch        chan any
	ended     bool
}

// BeginHeartbeat arms a heartbeat that must be ended within d. When
// performance warnings are disabled entirely, the returned guard is inert:
// nothing is registered and End does nothing.
func BeginHeartbeat(name string, d time.Duration) *HeartbeatGuard {
	if !Enabled(LevelPerfWarn) {
		return &HeartbeatGuard{name: name}
	}

	now := time.Now()
	g := &HeartbeatGuard{
		id:        nextHeartbeatID.Add(1),
		name:      name,
		createdAt: now,
		deadline:  now.Add(d),
		location:  callerLocation(1),
		ch:        watcherChannel(),
	}

	g.ch <- registerMsg{reg: heartbeatReg{
		id:        g.id,
		name:      g.name,
		createdAt: g.createdAt,
		deadline:  g.deadline,
		location:  g.location,
	}}

	return g
}

// End completes the heartbeat. If the deadline has already passed, End
// emits its own late-drop warning before notifying the watcher; the watcher
// may have warned as well. End is a no-op when called again.
func (g *HeartbeatGuard) End() {
	if g == nil || g.ended {
		return
	}
	g.ended = true

	if g.ch == nil {
		return
	}

	now := time.Now()
	if now.After(g.deadline) {
		logHeartbeat(callerLocation(1), func(record *Record) {
			record.Logf("heartbeat %q dropped after deadline by %v ",
				g.name, now.Sub(g.deadline))
			record.Logf("(created at %s, %v ago) ",
				g.location, now.Sub(g.createdAt))
		})
	}

	g.ch <- completeMsg{id: g.id}
}

// HeartbeatSnapshot returns the heartbeats currently registered with the
// watcher. It returns nil when the watcher has never been started.
func HeartbeatSnapshot() []HeartbeatInfo {
	ch, ok := heartbeatChan.Load().(chan any)
	if !ok {
		return nil
	}

	reply := make(chan []HeartbeatInfo, 1)
	ch <- snapshotMsg{reply: reply}
	return <-reply
}

func logHeartbeat(location string, write func(record *Record)) {
	record := NewRecord(LevelPerfWarn)
	Current().logPrelude(record)
	record.Log("PERFWARN: HEARTBEAT ")
	record.Log(location)
	record.Log(" ")
	record.LogTimestamp()
	write(record)
	record.Dispatch()
}

func warnMissedDeadline(hb *heartbeatReg, now time.Time) {
	logHeartbeat(hb.location, func(record *Record) {
		record.Logf("heartbeat %q missed deadline by %v ",
			hb.name, now.Sub(hb.deadline))
		record.Logf("(created %v ago) ", now.Sub(hb.createdAt))
	})

	if NumHooks() > 0 {
		InvokeHook(HookCtx{
			Pos: HookPosHeartbeatMiss,
			Item: HeartbeatMiss{
				ID:      hb.id,
				Name:    hb.name,
				Overrun: now.Sub(hb.deadline),
			},
		})
	}
}

// watcherLoop is the single background goroutine that detects missed
// deadlines. It owns the registry outright; all coordination goes through
// the message channel. The loop wakes at the soonest pending deadline, or
// at the idle poll interval when nothing is pending, and never busy-polls.
func watcherLoop(ch <-chan any) {
	registry := make(map[uint64]*heartbeatReg)

	for {
		now := time.Now()
		wait := heartbeatIdlePoll
		for _, hb := range registry {
			if hb.warned {
				continue
			}
			if until := hb.deadline.Sub(now); until < wait {
				wait = until
			}
		}
		if wait < 0 {
			wait = 0
		}

		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			switch m := msg.(type) {
			case registerMsg:
				reg := m.reg
				registry[reg.id] = &reg
			case completeMsg:
				if hb, ok := registry[m.id]; ok {
					delete(registry, m.id)
					// The guard ended late before the loop had a
					// chance to wake up.
					if now := time.Now(); !hb.warned && !now.Before(hb.deadline) {
						warnMissedDeadline(hb, now)
					}
				}
			case snapshotMsg:
				infos := make([]HeartbeatInfo, 0, len(registry))
				for _, hb := range registry {
					infos = append(infos, HeartbeatInfo{
						ID:        hb.id,
						Name:      hb.name,
						CreatedAt: hb.createdAt,
						Deadline:  hb.deadline,
						Location:  hb.location,
						Warned:    hb.warned,
					})
				}
				m.reply <- infos
			}
		case <-time.After(wait):
		}

		now = time.Now()
		for _, hb := range registry {
			if !hb.warned && !now.Before(hb.deadline) {
				warnMissedDeadline(hb, now)
				hb.warned = true
			}
		}
	}
}
