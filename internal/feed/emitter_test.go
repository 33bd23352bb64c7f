package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/obstore/internal/ir"
)

func created(index int) ir.Change {
	return ir.Change{Current: &ir.Item{Index: index, Fields: ir.IRObject{}}}
}

func indices(changes []ir.Change) []int {
	out := make([]int, len(changes))
	for i, c := range changes {
		out[i] = c.Index()
	}
	return out
}

func TestEmitter_BuffersUntilSubscribed(t *testing.T) {
	e := New()
	e.Emit(created(0))
	e.Emit(created(1))
	e.Emit(created(2))

	assert.False(t, e.Subscribed())
	assert.Len(t, e.Backlog(), 3)

	rec := &Recorder{}
	e.Subscribe(rec)

	assert.True(t, e.Subscribed())
	assert.Equal(t, []int{0, 1, 2}, indices(rec.Changes), "replayed in emission order")
}

func TestEmitter_LiveDeliveryAfterSubscribe(t *testing.T) {
	e := New()
	e.Emit(created(0))

	rec := &Recorder{}
	e.Subscribe(rec)
	e.Emit(created(1))

	assert.Equal(t, []int{0, 1}, indices(rec.Changes))
	assert.Len(t, e.Backlog(), 1, "live records are not buffered")
}

func TestEmitter_ResubscribeReplaysSameBacklog(t *testing.T) {
	e := New()
	e.Emit(created(0))
	e.Emit(created(1))

	first := &Recorder{}
	sub1 := e.Subscribe(first)
	e.Emit(created(2))

	second := &Recorder{}
	sub2 := e.Subscribe(second)
	e.Emit(created(3))

	assert.Equal(t, []int{0, 1, 2}, indices(first.Changes), "superseded observer stops receiving")
	assert.Equal(t, []int{0, 1, 3}, indices(second.Changes), "backlog replayed again from the start")
	assert.False(t, sub1.Active())
	assert.True(t, sub2.Active())
}

func TestEmitter_UnsubscribeBuffersAgain(t *testing.T) {
	e := New()
	rec := &Recorder{}
	sub := e.Subscribe(rec)
	e.Emit(created(0))

	sub.Unsubscribe()
	assert.False(t, e.Subscribed())
	e.Emit(created(1))

	assert.Equal(t, []int{0}, indices(rec.Changes))
	assert.Equal(t, []int{1}, indices(e.Backlog()))
}

func TestEmitter_UnsubscribeSupersededIsNoop(t *testing.T) {
	e := New()
	sub1 := e.Subscribe(&Recorder{})
	rec := &Recorder{}
	e.Subscribe(rec)

	sub1.Unsubscribe()
	e.Emit(created(0))

	assert.True(t, e.Subscribed())
	assert.Equal(t, 1, rec.Len())
}

func TestEmitter_BacklogLimit(t *testing.T) {
	e := New(WithBacklogLimit(2))
	for i := 0; i < 5; i++ {
		e.Emit(created(i))
	}

	assert.Equal(t, []int{3, 4}, indices(e.Backlog()))
	assert.Equal(t, 3, e.Dropped())

	rec := &Recorder{}
	e.Subscribe(rec)
	assert.Equal(t, []int{3, 4}, indices(rec.Changes))
}

func TestEmitter_ObserverFunc(t *testing.T) {
	e := New()
	var got []ir.Change
	e.Subscribe(ObserverFunc(func(c ir.Change) { got = append(got, c) }))

	e.Emit(ir.Change{})
	require.Len(t, got, 1)
	assert.Equal(t, ir.ChangeNoop, got[0].Kind())
}

func TestChannelObserver_DropsWhenFull(t *testing.T) {
	ch := make(chan ir.Change, 1)
	obs := NewChannelObserver(ch)

	e := New()
	e.Subscribe(obs)
	e.Emit(created(0))
	e.Emit(created(1))

	assert.Equal(t, 1, obs.Dropped())
	c := <-ch
	assert.Equal(t, 0, c.Index())
}

func TestChannelObserver_BlockingDeliversEverything(t *testing.T) {
	ch := make(chan ir.Change)
	obs := NewBlockingChannelObserver(ch)

	e := New()
	for i := 0; i < 3; i++ {
		e.Emit(created(i))
	}

	got := make(chan []int)
	go func() {
		var idx []int
		for c := range ch {
			idx = append(idx, c.Index())
		}
		got <- idx
	}()

	e.Subscribe(obs)
	for i := 3; i < 6; i++ {
		e.Emit(created(i))
	}
	close(ch)

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, <-got)
	assert.Zero(t, obs.Dropped())
}

func TestEmitter_TapSeesEveryRecordOnce(t *testing.T) {
	tap := &Recorder{}
	e := New(WithTap(tap))

	e.Emit(created(0))
	e.Emit(created(1))

	first := &Recorder{}
	e.Subscribe(first)
	e.Emit(created(2))

	e.Subscribe(&Recorder{})
	e.Emit(created(3))

	assert.Equal(t, []int{0, 1, 2, 3}, indices(tap.Changes))
	assert.Equal(t, []int{0, 1, 2}, indices(first.Changes))
}
