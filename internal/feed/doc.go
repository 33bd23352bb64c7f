// Package feed delivers change records to a single observer.
//
// An Emitter is in one of two states:
//
// Unsubscribed: every Emit is appended to the backlog, in call order.
//
// Subscribed: Subscribe first replays the whole backlog to the new observer,
// oldest first, then makes it the active observer. Later emissions go straight
// to it, synchronously, and are not buffered.
//
// There is exactly one active observer. A second Subscribe replays the same
// backlog again and replaces the first observer, which silently stops
// receiving records ("last subscriber wins"). The backlog is a retained log:
// replay never clears it. WithBacklogLimit bounds it by dropping the oldest
// records.
//
// Unsubscribe detaches the active observer and returns the emitter to the
// Unsubscribed state, so records emitted afterwards join the backlog.
//
// Observers are called synchronously and every record reaches the active
// observer. ChannelObserver created with NewChannelObserver is the exception:
// it drops records its channel has no room for. Use
// NewBlockingChannelObserver when every record must arrive.
//
// The emitter is synchronous and not safe for concurrent use. An observer
// must not call back into the component that is emitting.
package feed
