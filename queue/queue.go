// Package queue implements the per-target message block completion
// queue and the peer queue registry (spec §3, §4.2): an ordered FIFO of
// (targetPeerId, block, onReady) triples per connected peer, looked up
// by target peer id, existing iff there is a live connection to that
// peer.
package queue

import (
	"context"
	"sync"

	"github.com/ground-x/blmessaging/block"
	"github.com/ground-x/blmessaging/common"
	"github.com/ground-x/blmessaging/common/errs"
	"github.com/ground-x/blmessaging/wire"
)

// OnReady is invoked exactly once per enqueued entry, with either a nil
// error (delivered and acknowledged) or a failure classification.
type OnReady func(error)

// Entry is one pending send: a command frame with an optional payload
// block attached (spec §4.1's framing pairs a header with a chunk body
// for Put and chunk-bearing replies; the header alone suffices for
// control-only exchanges).
type Entry struct {
	TargetPeerID common.PeerID
	Frame        wire.Frame
	Blk          *block.Block
	OnReady      OnReady
}

// Queue is a single target peer's outbound FIFO. Entries are delivered
// in enqueue order (spec §5): the k-th completion fires before the
// k+1-th entry is even popped for sending.
type Queue struct {
	peerID common.PeerID

	mu     sync.Mutex
	items  []Entry
	notify chan struct{}
	closed bool
}

func newQueue(peerID common.PeerID) *Queue {
	return &Queue{peerID: peerID, notify: make(chan struct{}, 1)}
}

func (q *Queue) PeerID() common.PeerID { return q.peerID }

// Push enqueues an entry. Returns an error if the queue has already
// been drained (disconnect raced the caller).
func (q *Queue) Push(e Entry) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return errs.New(errs.TargetPeerNotFound, "queue: target peer not connected")
	}
	q.items = append(q.items, e)
	select {
	case q.notify <- struct{}{}:
	default:
	}
	q.mu.Unlock()
	return nil
}

// Pop blocks until an entry is available, the queue is drained, or ctx
// is done. The connection's send loop calls this to pull work in
// enqueue order, one entry in flight per direction (spec §4.1).
func (q *Queue) Pop(ctx context.Context) (Entry, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			e := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return e, true
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return Entry{}, false
		}
		select {
		case <-q.notify:
		case <-ctx.Done():
			return Entry{}, false
		}
	}
}

// Depth reports the number of pending entries, used by admin
// inspection surfaces.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// drain marks the queue closed and fails every pending entry with the
// given error, per spec §3: "on disconnect the queue is drained with
// an error result for every pending entry."
func (q *Queue) drain(cause error) {
	q.mu.Lock()
	pending := q.items
	q.items = nil
	q.closed = true
	q.mu.Unlock()

	for _, e := range pending {
		if e.OnReady != nil {
			e.OnReady(cause)
		}
	}
}
