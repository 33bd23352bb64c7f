package feed

import "github.com/roach88/obstore/internal/ir"

// ChannelObserver forwards change records to a Go channel.
//
// It has two modes:
//
// Lossy (NewChannelObserver): delivery never blocks the emitter. When the
// channel is full the record is dropped and counted by Dropped, so the
// receiver may miss records. Size the channel for the expected burst,
// including the backlog replayed on Subscribe.
//
// Blocking (NewBlockingChannelObserver): every record is delivered and the
// mutating store call waits until the receiver takes it. The receiver must
// run on another goroutine or the first full send deadlocks.
type ChannelObserver struct {
	ch      chan<- ir.Change
	block   bool
	dropped int
}

// NewChannelObserver creates a lossy ChannelObserver writing to ch.
func NewChannelObserver(ch chan<- ir.Change) *ChannelObserver {
	return &ChannelObserver{ch: ch}
}

// NewBlockingChannelObserver creates a ChannelObserver that never drops.
func NewBlockingChannelObserver(ch chan<- ir.Change) *ChannelObserver {
	return &ChannelObserver{ch: ch, block: true}
}

// Next sends c, waiting for room in blocking mode and dropping it
// otherwise.
func (o *ChannelObserver) Next(c ir.Change) {
	if o.block {
		o.ch <- c
		return
	}
	select {
	case o.ch <- c:
	default:
		o.dropped++
	}
}

// Dropped returns how many records did not fit in the channel. Always 0 in
// blocking mode.
func (o *ChannelObserver) Dropped() int {
	return o.dropped
}

// Recorder is an Observer that keeps every record it receives, in order.
type Recorder struct {
	Changes []ir.Change
}

// Next appends c.
func (r *Recorder) Next(c ir.Change) {
	r.Changes = append(r.Changes, c)
}

// Len returns the number of records seen.
func (r *Recorder) Len() int {
	return len(r.Changes)
}
