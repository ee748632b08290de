package logwise

// Logger is a sink that receives finished log records.
//
// Implementations must be safe for concurrent use; records arrive from any
// goroutine, including the heartbeat watcher.
type Logger interface {
	// FinishLogRecord accepts a completed record and writes it somewhere.
	FinishLogRecord(record *Record)

	// PrepareToDie flushes any buffered output. It is called once, at
	// process exit, for every registered logger.
	PrepareToDie()
}
