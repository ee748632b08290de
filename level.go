package logwise

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Level describes the importance of a log record. Levels are ordered from
// least to most important.
type Level int

// A list of all log levels.
const (
	// LevelTrace is emitted only while a context is tracing.
	LevelTrace Level = iota

	// LevelDebugInternal is for diagnostics of the logging runtime itself.
	LevelDebugInternal

	// LevelInfo is for ordinary progress messages.
	LevelInfo

	// LevelAnalytics is for messages that summarize behavior over time.
	LevelAnalytics

	// LevelPerfWarn is used by interval guards, heartbeats, and task
	// statistics to report performance problems.
	LevelPerfWarn

	// LevelWarning is for recoverable problems, including runtime misuse
	// such as popping a context that is not on the current chain.
	LevelWarning

	// LevelError is for runtime errors.
	LevelError

	// LevelPanic is for programmer errors.
	LevelPanic
)

func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebugInternal:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelAnalytics:
		return "ANALYTICS"
	case LevelPerfWarn:
		return "PERFWARN"
	case LevelWarning:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelPanic:
		return "PANIC"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// ParseLevel converts a level name, as accepted from the LOGWISE_LEVEL
// environment variable, into a Level.
func ParseLevel(name string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG", "DEBUGINTERNAL":
		return LevelDebugInternal, nil
	case "INFO":
		return LevelInfo, nil
	case "ANALYTICS":
		return LevelAnalytics, nil
	case "PERFWARN":
		return LevelPerfWarn, nil
	case "WARN", "WARNING":
		return LevelWarning, nil
	case "ERROR":
		return LevelError, nil
	case "PANIC":
		return LevelPanic, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

var minLevel atomic.Int32

func init() {
	minLevel.Store(int32(LevelInfo))
}

// SetMinLevel sets the smallest level that Enabled reports true for.
func SetMinLevel(l Level) {
	minLevel.Store(int32(l))
}

// MinLevel returns the smallest enabled level.
func MinLevel() Level {
	return Level(minLevel.Load())
}

// Enabled reports whether records at the given level are dispatched at all.
// Guard constructors consult this to skip all work when the output would be
// discarded anyway.
func Enabled(l Level) bool {
	return l >= Level(minLevel.Load())
}
