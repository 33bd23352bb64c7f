package journal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/obstore/internal/feed"
	"github.com/roach88/obstore/internal/ir"
	"github.com/roach88/obstore/internal/store"
)

// Mismatch describes one journaled record the replay did not reproduce.
type Mismatch struct {
	Seq    int64  `json:"seq"`
	Reason string `json:"reason"`
}

// VerifyResult summarizes a replay of one session.
type VerifyResult struct {
	Session     string     `json:"session"`
	Applied     int        `json:"applied"`
	Skipped     int        `json:"skipped"`
	Size        int        `json:"size"`
	StateDigest string     `json:"state_digest"`
	Mismatches  []Mismatch `json:"mismatches"`
}

// OK reports whether every record was reproduced.
func (r VerifyResult) OK() bool {
	return len(r.Mismatches) == 0
}

// Verify re-applies a journaled session to a fresh store and checks that
// every change the store emits digests the same as the journaled one.
//
// Each record is turned back into the operation that produced it: create as
// CreateItem, update as UpdateItem with the merged fields, delete as
// DeleteItem. No-op records name no index and are skipped.
//
// A non-nil error means the session could not be read; a replay that diverges
// is reported through Mismatches.
func Verify(ctx context.Context, j *Journal, session string) (VerifyResult, error) {
	info, err := j.ReadSessionInfo(ctx, session)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("verify: %w", err)
	}
	entries, err := j.ReadSession(ctx, session)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("verify: %w", err)
	}

	result := VerifyResult{Session: session, Mismatches: []Mismatch{}}
	s := store.New(store.WithCapacity(info.Capacity))
	rec := &feed.Recorder{}
	s.Subscribe(rec)

	for _, e := range entries {
		ok, err := recomputeDigest(e)
		if err != nil {
			return result, fmt.Errorf("verify seq %d: %w", e.Seq, err)
		}
		if !ok {
			result.Mismatches = append(result.Mismatches, Mismatch{Seq: e.Seq, Reason: "stored digest does not match content"})
			continue
		}

		if e.Change.Kind() == ir.ChangeNoop {
			result.Skipped++
			continue
		}

		before := rec.Len()
		if err := apply(s, e.Change); err != nil {
			result.Mismatches = append(result.Mismatches, Mismatch{Seq: e.Seq, Reason: err.Error()})
			continue
		}
		result.Applied++

		if rec.Len() != before+1 {
			result.Mismatches = append(result.Mismatches, Mismatch{
				Seq:    e.Seq,
				Reason: fmt.Sprintf("replay emitted %d records, want 1", rec.Len()-before),
			})
			continue
		}
		got, err := ir.ChangeDigest(session, e.Seq, rec.Changes[before])
		if err != nil {
			return result, fmt.Errorf("verify seq %d: %w", e.Seq, err)
		}
		if got != e.Digest {
			result.Mismatches = append(result.Mismatches, Mismatch{
				Seq:    e.Seq,
				Reason: fmt.Sprintf("replayed %s differs from journaled %s", rec.Changes[before].Kind(), e.Change.Kind()),
			})
		}
	}

	result.Size = s.Size()
	result.StateDigest, err = ir.StateDigest(s.Items())
	if err != nil {
		return result, fmt.Errorf("verify: %w", err)
	}

	slog.Debug("session verified",
		"session", session,
		"applied", result.Applied,
		"skipped", result.Skipped,
		"mismatches", len(result.Mismatches))
	return result, nil
}

// apply performs the store operation that produced c.
func apply(s *store.Store, c ir.Change) error {
	switch c.Kind() {
	case ir.ChangeCreate:
		it, err := s.CreateItem(c.Current.Fields)
		if err != nil {
			return err
		}
		if it.Index != c.Current.Index {
			return fmt.Errorf("create allocated index %d, journal has %d", it.Index, c.Current.Index)
		}
		return nil
	case ir.ChangeUpdate:
		_, err := s.UpdateItem(c.Current.Index, c.Current.Fields)
		return err
	case ir.ChangeDelete:
		return s.DeleteItem(c.Previous.Index)
	default:
		return fmt.Errorf("cannot replay %s record", c.Kind())
	}
}
