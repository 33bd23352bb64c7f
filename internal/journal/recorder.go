package journal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/obstore/internal/ir"
)

// Recorder is a feed.Observer that journals every record it receives.
//
// Observers cannot return errors, so the first failure is kept and reported
// by Err. After a failure nothing more is written: a gap in seq would make
// the session unverifiable anyway.
type Recorder struct {
	ctx     context.Context
	journal *Journal
	session string
	clock   *Clock
	written int
	err     error
}

// NewRecorder creates a recorder writing to session. The session must
// already be registered with BeginSession.
//
// A nil clock resumes the session: the first record is stamped after the
// highest seq already journaled for it, so a second recorder on the same
// session appends instead of colliding with existing rows.
func NewRecorder(ctx context.Context, j *Journal, session string, clock *Clock) *Recorder {
	return &Recorder{ctx: ctx, journal: j, session: session, clock: clock}
}

// Next stamps c with the next seq and writes it.
func (r *Recorder) Next(c ir.Change) {
	if r.err != nil {
		return
	}

	if r.clock == nil {
		last, err := r.journal.LastSeq(r.ctx, r.session)
		if err != nil {
			r.err = fmt.Errorf("resume session %s: %w", r.session, err)
			slog.Error("journal resume failed", "session", r.session, "error", err)
			return
		}
		r.clock = NewClockAt(last)
	}

	seq := r.clock.Next()
	e, err := NewEntry(r.session, seq, c)
	if err != nil {
		r.fail(seq, err)
		return
	}
	if err := r.journal.WriteChange(r.ctx, e); err != nil {
		r.fail(seq, err)
		return
	}
	r.written++
}

func (r *Recorder) fail(seq int64, err error) {
	r.err = fmt.Errorf("journal seq %d: %w", seq, err)
	slog.Error("journal write failed", "session", r.session, "seq", seq, "error", err)
}

// Err returns the first write error, or nil.
func (r *Recorder) Err() error {
	return r.err
}

// Written returns the number of records journaled.
func (r *Recorder) Written() int {
	return r.written
}

// Session returns the session id records are written under.
func (r *Recorder) Session() string {
	return r.session
}
