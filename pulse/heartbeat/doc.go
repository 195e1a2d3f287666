// Package heartbeat runs a fixed set of independently-timed background tasks
// on a shared clock.
//
// Each tick ("pulse") walks the task registry in descending priority order,
// executes every task whose interval has elapsed since its last attempt, and
// records the outcomes in an immutable Pulse. The pulse is appended to a
// durable PulseLog and a compact Snapshot is written to a StateStore so pulse
// numbering resumes after a restart.
//
// Failure isolation:
//
//   - A failing task (error, panic, or timeout) is recorded in its Outcome and
//     error count. It never aborts the tick or stops the scheduler.
//   - A failed attempt still advances the task's last run, so a broken task is
//     retried no sooner than its normal interval.
//   - Persistence failures are returned from Tick wrapped as
//     errors.ErrPersistence, logged, and retried on the next tick.
//
// Concurrency: tasks within a tick run sequentially on the caller's goroutine.
// Tick is mutually exclusive, so a manual SingleTick never interleaves with
// the background loop. Status may be called at any time and returns a
// consistent point-in-time view.
//
// Known limitation: an action that ignores its context cannot be interrupted.
// With a timeout configured the tick moves on, but the abandoned action keeps
// running in the background until it returns.
package heartbeat
