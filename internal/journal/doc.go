// Package journal records a store's change feed in SQLite.
//
// The journal is an append-only audit log:
//   - Sessions: one row per store run, named by a UUIDv7 token
//   - Changes: one row per change record, keyed by (session_id, seq)
//
// A store never loads its state back from the journal. The journal exists so
// a feed can be inspected after the fact (obstore trace) and checked for
// determinism by re-applying it to a fresh store (Verify).
//
// # Ordering
//
// Records are ordered by seq, a logical clock stamped by the Recorder, never
// by wall-clock time. All reads use ORDER BY seq ASC.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON: changes must reference an existing session
//
// Digests are computed by ir.ChangeDigest over canonical JSON.
package journal
