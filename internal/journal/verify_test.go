package journal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/obstore/internal/ir"
	"github.com/roach88/obstore/internal/store"
)

// recordSession runs ops against a store whose feed is journaled as session.
func recordSession(t *testing.T, j *Journal, session string, ops func(s *store.Store)) *store.Store {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, j.BeginSession(ctx, session, 4))

	s := store.New(store.WithCapacity(4))
	ops(s)

	rec := NewRecorder(ctx, j, session, NewClock())
	s.Subscribe(rec)
	require.NoError(t, rec.Err())
	return s
}

func workload(t *testing.T) func(s *store.Store) {
	return func(s *store.Store) {
		for i := 0; i < 3; i++ {
			_, err := s.CreateItem(item(0, "value", i).Fields)
			require.NoError(t, err)
		}
		_, err := s.UpdateItem(1, item(0, "extra", true).Fields)
		require.NoError(t, err)
		require.NoError(t, s.DeleteItem(0))
		require.NoError(t, s.DeleteItem(0))
		_, err = s.UpdateItem(0, item(0, "revived", "yes").Fields)
		require.NoError(t, err)
		_, err = s.UpdateItem(2, nil)
		require.NoError(t, err)
		_, err = s.CreateItem(item(0, "value", 9).Fields)
		require.NoError(t, err)
	}
}

func TestRecorder_WritesBacklogAndLive(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	s := recordSession(t, j, "s1", func(s *store.Store) {
		_, err := s.CreateItem(ir.IRObject{})
		require.NoError(t, err)
	})

	rec := NewRecorder(ctx, j, "s1", NewClockAt(1))
	s.Subscribe(rec)
	_, err := s.CreateItem(item(0, "a", 1).Fields)
	require.NoError(t, err)
	require.NoError(t, rec.Err())

	// Resubscribing replays the backlog: seq 2 re-records the first create.
	assert.Equal(t, 2, rec.Written())

	entries, err := j.ReadSession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, 1, entries[2].Change.Current.Index)
}

func TestRecorder_KeepsFirstError(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	rec := NewRecorder(ctx, j, "unregistered", nil)
	rec.Next(ir.Change{Current: item(0)})
	rec.Next(ir.Change{Current: item(1)})

	require.Error(t, rec.Err())
	assert.Contains(t, rec.Err().Error(), "journal seq 1")
	assert.Zero(t, rec.Written())
	assert.Equal(t, "unregistered", rec.Session())
}

func TestRecorder_ResumesAfterLastSeq(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	require.NoError(t, j.BeginSession(ctx, "s1", 0))

	first := NewRecorder(ctx, j, "s1", nil)
	first.Next(ir.Change{Current: item(0)})
	first.Next(ir.Change{Current: item(1)})
	require.NoError(t, first.Err())

	second := NewRecorder(ctx, j, "s1", nil)
	second.Next(ir.Change{Previous: item(1)})
	require.NoError(t, second.Err())
	assert.Equal(t, 1, second.Written())

	entries, err := j.ReadSession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{entries[0].Seq, entries[1].Seq, entries[2].Seq})
	assert.Equal(t, ir.ChangeDelete, entries[2].Change.Kind())
}

func TestVerify_FloatAndNullFields(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	original := recordSession(t, j, "s1", func(s *store.Store) {
		_, err := s.CreateItem(ir.IRObject{"price": ir.IRFloat(9.99), "note": nil})
		require.NoError(t, err)
		_, err = s.UpdateItem(0, ir.IRObject{"price": ir.IRFloat(2.5e-8)})
		require.NoError(t, err)
	})

	result, err := Verify(ctx, j, "s1")
	require.NoError(t, err)
	assert.True(t, result.OK(), "mismatches: %v", result.Mismatches)
	assert.Equal(t, 2, result.Applied)

	want, err := ir.StateDigest(original.Items())
	require.NoError(t, err)
	assert.Equal(t, want, result.StateDigest)
}

func TestVerify_ReproducesSession(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	original := recordSession(t, j, "s1", workload(t))

	result, err := Verify(ctx, j, "s1")
	require.NoError(t, err)
	assert.True(t, result.OK(), "mismatches: %v", result.Mismatches)
	assert.Equal(t, 8, result.Applied)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, original.Size(), result.Size)

	want, err := ir.StateDigest(original.Items())
	require.NoError(t, err)
	assert.Equal(t, want, result.StateDigest)
}

func TestVerify_DetectsTampering(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	recordSession(t, j, "s1", workload(t))

	_, err := j.db.ExecContext(ctx, `
		UPDATE changes SET current = '{"index":0,"fields":{"value":42}}'
		WHERE session_id = 's1' AND seq = 1
	`)
	require.NoError(t, err)

	result, err := Verify(ctx, j, "s1")
	require.NoError(t, err)
	require.False(t, result.OK())
	assert.Equal(t, int64(1), result.Mismatches[0].Seq)
	assert.Contains(t, result.Mismatches[0].Reason, "stored digest")
}

func TestVerify_DetectsDivergence(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	require.NoError(t, j.BeginSession(ctx, "s1", 0))

	// A create that claims index 3 in an empty store cannot be reproduced.
	e := mustEntry(t, "s1", 1, ir.Change{Current: item(3, "a", 1)})
	require.NoError(t, j.WriteChange(ctx, e))

	result, err := Verify(ctx, j, "s1")
	require.NoError(t, err)
	require.Len(t, result.Mismatches, 1)
	assert.Contains(t, result.Mismatches[0].Reason, "allocated index 0")
}

func TestVerify_UnknownSession(t *testing.T) {
	j := openTestJournal(t)

	_, err := Verify(context.Background(), j, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
