package journal

import (
	"context"
	"fmt"

	"github.com/roach88/obstore/internal/ir"
)

// Entry is one journaled change record.
type Entry struct {
	Session string    `json:"session"`
	Seq     int64     `json:"seq"`
	Change  ir.Change `json:"change"`
	Digest  string    `json:"digest"`
}

// NewEntry builds an entry and computes its digest.
func NewEntry(session string, seq int64, c ir.Change) (Entry, error) {
	digest, err := ir.ChangeDigest(session, seq, c)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Session: session, Seq: seq, Change: c, Digest: digest}, nil
}

// BeginSession registers a session. Registering the same id twice is a no-op.
func (j *Journal) BeginSession(ctx context.Context, id string, capacity int) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO sessions (id, format_version, tool_version, capacity)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, ir.FormatVersion, ir.Version, capacity)
	if err != nil {
		return fmt.Errorf("begin session: %w", err)
	}
	return nil
}

// WriteChange appends an entry. Writing the same (session, seq) twice is
// silently ignored. The session must have been registered with BeginSession.
func (j *Journal) WriteChange(ctx context.Context, e Entry) error {
	if e.Digest == "" {
		return fmt.Errorf("write change: seq %d has no digest", e.Seq)
	}

	prev, err := marshalItem(e.Change.Previous)
	if err != nil {
		return fmt.Errorf("write change: %w", err)
	}
	cur, err := marshalItem(e.Change.Current)
	if err != nil {
		return fmt.Errorf("write change: %w", err)
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO changes
		(session_id, seq, kind, item_index, previous, current, digest)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, seq) DO NOTHING
	`,
		e.Session,
		e.Seq,
		string(e.Change.Kind()),
		e.Change.Index(),
		prev,
		cur,
		e.Digest,
	)
	if err != nil {
		return fmt.Errorf("write change: %w", err)
	}
	return nil
}
