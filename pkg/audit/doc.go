// Package audit records rule executions for after-the-fact inspection.
//
// The Recorder observes completed session executions and writes Records
// asynchronously through a buffered channel, so recording never blocks the
// evaluation path. Storage backends are pluggable: SQLite for durable
// trails and an in-memory store for tests and ephemeral deployments. A
// cron-scheduled Pruner enforces the retention window.
package audit
