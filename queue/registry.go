package queue

import (
	"sync"

	"github.com/ground-x/blmessaging/common"
)

// Registry maps connected peer ids to their outbound completion queue.
// Readers (dispatch lookups) and writers (connect/disconnect) share a
// single RWMutex, per spec §5's "Peer queue registry: readers-writer
// lock; insertion on connect, removal on disconnect, iteration on
// lookup."
type Registry struct {
	mu     sync.RWMutex
	queues map[common.PeerID]*Queue
}

func NewRegistry() *Registry {
	return &Registry{queues: make(map[common.PeerID]*Queue)}
}

// Create registers a new queue for peerID, called once a connection to
// that peer completes its handshake.
func (r *Registry) Create(peerID common.PeerID) *Queue {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := newQueue(peerID)
	r.queues[peerID] = q
	return q
}

// TryGet returns the queue for peerID, if any live connection exists.
func (r *Registry) TryGet(peerID common.PeerID) (*Queue, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.queues[peerID]
	return q, ok
}

// AllActiveIDs returns the set of peer ids with a live queue.
func (r *Registry) AllActiveIDs() []common.PeerID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]common.PeerID, 0, len(r.queues))
	for id := range r.queues {
		ids = append(ids, id)
	}
	return ids
}

// Remove drops and drains the queue for peerID with the given
// disconnect cause, invoked when the owning connection tears down.
func (r *Registry) Remove(peerID common.PeerID, cause error) {
	r.mu.Lock()
	q, ok := r.queues[peerID]
	if ok {
		delete(r.queues, peerID)
	}
	r.mu.Unlock()
	if ok {
		q.drain(cause)
	}
}
