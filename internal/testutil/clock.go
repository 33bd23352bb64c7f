package testutil

// SeqClock numbers feed deliveries during a scenario run.
//
// It is not safe for concurrent use. Like the store it stamps, it runs on a
// single goroutine. Reset rewinds it so a scenario rerun produces identical
// seq values.
type SeqClock struct {
	seq int64
}

// NewSeqClock returns a clock whose first Next is 1.
func NewSeqClock() *SeqClock {
	return &SeqClock{}
}

// Next advances the clock and returns the new seq.
func (c *SeqClock) Next() int64 {
	c.seq++
	return c.seq
}

// Current returns the last seq handed out, 0 before the first Next.
func (c *SeqClock) Current() int64 {
	return c.seq
}

// Since reports how many seqs were handed out after mark, a value
// previously returned by Current.
func (c *SeqClock) Since(mark int64) int64 {
	return c.seq - mark
}

// Reset rewinds the clock to 0.
func (c *SeqClock) Reset() {
	c.seq = 0
}
