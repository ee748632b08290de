// Package logwise is the runtime underneath a task-scoped structured logging
// facade. It tracks a tree of logging contexts and tasks, aggregates
// per-task interval statistics, and watches long-running operations for
// missed deadlines with a dedicated background watcher.
//
// Application code creates a Context, makes it current for the goroutine,
// and subsequent log records and interval or heartbeat guards read the
// current Context to find the active Task. Finished records are dispatched
// to the registered Loggers.
package logwise
