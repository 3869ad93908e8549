// Package store provides SQLite-backed durable storage for program runs.
//
// The store keeps an append-only record of each run:
//   - Runs: one row per program run, keyed by program ID
//   - Messages: every journaled message with its kind, JSON payload and
//     content hash
//   - Snapshots: serialized states with their canonical hash
//
// Store implements middleware.MessageJournal and middleware.SnapshotWriter,
// so a program records itself by installing middleware.Journal and
// middleware.Persist backed by the same Store.
//
// # Ordering
//
//   - All ordering uses seq INTEGER (the position of the message in its
//     run), never timestamps
//   - Queries include ORDER BY seq ASC so results are identical across reads
//
// # Idempotency
//
//   - (run_id, seq) is the primary key of messages and snapshots
//   - Duplicate writes are silently ignored (ON CONFLICT DO NOTHING)
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait on lock contention
//   - Single connection: SQLite allows one writer at a time
package store
