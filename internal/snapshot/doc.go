// Package snapshot publishes program snapshots to Redis for observers
// outside the process.
//
// Redis implements middleware.SnapshotWriter. Each write stores the latest
// snapshot of a run under "<prefix>:<run>" and publishes it on the channel
// "<prefix>:<run>:changes", so a dashboard can read the current state and
// follow changes without touching the program.
//
// Connect creates a client with connection verification and retry, the
// same way for redis:// and rediss:// URLs.
package snapshot
