package logwise

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadEnv configures the logging runtime from the environment. A .env file
// in the working directory is read first if present; real environment
// variables take precedence over it.
//
// Recognized variables:
//
//	LOGWISE_LEVEL        minimum level to emit, by name (e.g. "perfwarn")
//	LOGWISE_RECORD_DB    SQLite file to mirror records into
//	LOGWISE_MONITOR_PORT preferred port for the monitoring server
//
// It panics when a variable is set to an unusable value.
func LoadEnv() {
	_ = godotenv.Load()

	if name := os.Getenv("LOGWISE_LEVEL"); name != "" {
		level, err := ParseLevel(name)
		if err != nil {
			panic(fmt.Sprintf("logwise: LOGWISE_LEVEL: %s", err))
		}
		SetMinLevel(level)
	}
}

// RecordDBPath returns the SQLite path requested through the environment,
// or "" when record mirroring is not requested.
func RecordDBPath() string {
	return os.Getenv("LOGWISE_RECORD_DB")
}

// MonitorPort returns the monitoring port requested through the
// environment, or 0 when any free port will do. It panics when the value
// is not a number.
func MonitorPort() int {
	portString := os.Getenv("LOGWISE_MONITOR_PORT")
	if portString == "" {
		return 0
	}

	port, err := strconv.Atoi(portString)
	if err != nil {
		panic(fmt.Sprintf(
			"logwise: LOGWISE_MONITOR_PORT must be a number, got %q",
			portString))
	}

	return port
}
