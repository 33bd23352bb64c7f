package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/obstore/internal/ir"
)

// ReadSession returns every entry of a session ordered by seq.
// Returns an empty slice (not nil) for a session with no changes.
func (j *Journal) ReadSession(ctx context.Context, session string) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT session_id, seq, previous, current, digest
		FROM changes
		WHERE session_id = ?
		ORDER BY seq ASC
	`, session)
	if err != nil {
		return nil, fmt.Errorf("query changes: %w", err)
	}
	return scanEntries(rows)
}

// ReadItemHistory returns the entries touching one index within a session,
// ordered by seq. No-op records carry no index and are never included.
func (j *Journal) ReadItemHistory(ctx context.Context, session string, index int) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT session_id, seq, previous, current, digest
		FROM changes
		WHERE session_id = ? AND item_index = ?
		ORDER BY seq ASC
	`, session, index)
	if err != nil {
		return nil, fmt.Errorf("query item history: %w", err)
	}
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e         Entry
			prev, cur sql.NullString
		)
		if err := rows.Scan(&e.Session, &e.Seq, &prev, &cur, &e.Digest); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}

		var err error
		if e.Change.Previous, err = unmarshalItem(prev); err != nil {
			return nil, fmt.Errorf("seq %d previous: %w", e.Seq, err)
		}
		if e.Change.Current, err = unmarshalItem(cur); err != nil {
			return nil, fmt.Errorf("seq %d current: %w", e.Seq, err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate changes: %w", err)
	}
	return entries, nil
}

// ReadSessionInfo returns one session's metadata and change count.
// Returns ErrSessionNotFound for an unknown id.
func (j *Journal) ReadSessionInfo(ctx context.Context, id string) (Session, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT s.id, s.format_version, s.tool_version, s.capacity,
		       (SELECT COUNT(*) FROM changes c WHERE c.session_id = s.id)
		FROM sessions s
		WHERE s.id = ?
	`, id)

	var s Session
	err := row.Scan(&s.ID, &s.FormatVersion, &s.ToolVersion, &s.Capacity, &s.Changes)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("%s: %w", id, ErrSessionNotFound)
	}
	if err != nil {
		return Session{}, fmt.Errorf("read session: %w", err)
	}
	return s, nil
}

// ListSessions returns all sessions in the order they were begun.
func (j *Journal) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT s.id, s.format_version, s.tool_version, s.capacity,
		       (SELECT COUNT(*) FROM changes c WHERE c.session_id = s.id)
		FROM sessions s
		ORDER BY s.ord ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.FormatVersion, &s.ToolVersion, &s.Capacity, &s.Changes); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// LastSeq returns the highest seq recorded for a session, or 0.
func (j *Journal) LastSeq(ctx context.Context, session string) (int64, error) {
	var seq sql.NullInt64
	err := j.db.QueryRowContext(ctx, `
		SELECT MAX(seq) FROM changes WHERE session_id = ?
	`, session).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq.Int64, nil
}

// recomputeDigest checks an entry's stored digest against its content.
func recomputeDigest(e Entry) (bool, error) {
	d, err := ir.ChangeDigest(e.Session, e.Seq, e.Change)
	if err != nil {
		return false, err
	}
	return d == e.Digest, nil
}
