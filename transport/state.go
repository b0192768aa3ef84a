// Package transport owns one TLS-wrapped byte stream per peer and
// drives the frame-oriented exchange described in spec §4.1: a state
// machine from handshake through ready send/receive to shutdown, with
// cancellation reachable from any non-terminal state.
package transport

import "sync/atomic"

// State is the connection's lifecycle state (spec §4.1).
type State int32

const (
	StateHandshaking State = iota
	StateReady
	StateSending
	StateReceiving
	StateShuttingDown
	StateClosed
	StateCanceled
)

func (s State) String() string {
	switch s {
	case StateHandshaking:
		return "Handshaking"
	case StateReady:
		return "Ready"
	case StateSending:
		return "Sending"
	case StateReceiving:
		return "Receiving"
	case StateShuttingDown:
		return "ShuttingDown"
	case StateClosed:
		return "Closed"
	case StateCanceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// stateHolder is a small atomic state box shared by the send and
// receive loops, which run concurrently on the same connection.
type stateHolder struct {
	v int32
}

func (h *stateHolder) load() State { return State(atomic.LoadInt32(&h.v)) }
func (h *stateHolder) store(s State) { atomic.StoreInt32(&h.v, int32(s)) }

// cancel transitions to Canceled from any state other than Closed,
// matching "reachable from any non-Closed state" (spec §4.1).
func (h *stateHolder) cancel() {
	for {
		cur := h.load()
		if cur == StateClosed {
			return
		}
		if atomic.CompareAndSwapInt32(&h.v, int32(cur), int32(StateCanceled)) {
			return
		}
	}
}
