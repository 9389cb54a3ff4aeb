// Package store provides SQLite-backed durable storage for replay traces.
//
// The store is an append-only log with two tables:
//   - replays: one row per recorded replay (operation, content hashes,
//     example values, outcome)
//   - replay_steps: one row per recorded path of an approximate replay,
//     holding the outcome and the graph snapshot before the action
//
// # Ordering
//
// Every replay gets a logical sequence number at write time. Listings are
// ordered by seq ASC, id ASC COLLATE BINARY and steps by path in the
// engine's path order, so reads are deterministic regardless of wall time.
//
// # Identity
//
// Replay ids come from an IDGenerator (UUIDv7 by default). Operation and
// trace hashes are computed by internal/ir over canonical JSON, so two
// replays of the same operation state with the same example values share a
// trace hash.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
