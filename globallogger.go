package logwise

import (
	"sync"

	"github.com/tebeka/atexit"
)

var (
	globalLoggerLock sync.RWMutex
	globalLoggers    []Logger
	globalLoggersSet bool
	atexitOnce       sync.Once
)

// GlobalLoggers returns the loggers that finished records are dispatched to.
// If none have been configured, a console logger writing to stderr is
// installed first.
func GlobalLoggers() []Logger {
	globalLoggerLock.RLock()
	if globalLoggersSet {
		loggers := globalLoggers
		globalLoggerLock.RUnlock()
		return loggers
	}
	globalLoggerLock.RUnlock()

	globalLoggerLock.Lock()
	if !globalLoggersSet {
		globalLoggers = []Logger{NewConsoleLogger()}
		globalLoggersSet = true
		registerExitFlush()
	}
	loggers := globalLoggers
	globalLoggerLock.Unlock()

	return loggers
}

// SetGlobalLoggers replaces the full set of registered loggers. Dispatch
// sites that already read the previous slice keep using it, so replacing
// loggers never loses a record mid-dispatch.
func SetGlobalLoggers(loggers []Logger) {
	globalLoggerLock.Lock()
	globalLoggers = loggers
	globalLoggersSet = true
	registerExitFlush()
	globalLoggerLock.Unlock()
}

// AddGlobalLogger registers an additional logger alongside the existing
// ones.
func AddGlobalLogger(logger Logger) {
	loggers := GlobalLoggers()

	globalLoggerLock.Lock()
	next := make([]Logger, 0, len(loggers)+1)
	next = append(next, globalLoggers...)
	next = append(next, logger)
	globalLoggers = next
	globalLoggerLock.Unlock()
}

func registerExitFlush() {
	atexitOnce.Do(func() {
		atexit.Register(func() {
			for _, l := range GlobalLoggers() {
				l.PrepareToDie()
			}
		})
	})
}
