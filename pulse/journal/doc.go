// Package journal provides durable backends for the heartbeat: an
// append-only pulse log and a single-record state snapshot, on flat files
// or on sqlite.
package journal
