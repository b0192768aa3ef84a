package executor

import (
	"sync"

	"github.com/ground-x/blmessaging/block"
	"github.com/ground-x/blmessaging/common"
)

// state is a pooled block-oriented operation state (spec §4.8): each
// carries the operation's full identity tuple plus an optional data
// block. States are reused across operations rather than allocated per
// call.
type state struct {
	operation    Operation
	sessionID    common.ChunkID
	chunkID      common.ChunkID
	sourcePeerID common.PeerID
	targetPeerID common.PeerID
	commandID    int32
	block        *block.Block
}

var statePool = sync.Pool{New: func() interface{} { return &state{} }}

func acquireState() *state { return statePool.Get().(*state) }

// releaseState is this state's releaseResources() (spec §4.8): it
// returns the held block to the block pool and resets every identifier
// before returning the state itself to the free-list. Because
// CreateTask's dispatch.Task only carries an error, the block any
// Alloc-family operation produced does not outlive this call through
// that path — callers that need the block back use Backend's direct
// Alloc/SecureAlloc/GetServerStateBlock methods instead, which never
// route through state at all.
func releaseState(pool *block.Pool, st *state) {
	if st.block != nil && st.block.Capacity() == pool.Capacity() {
		pool.Put(st.block)
	}
	st.operation = 0
	st.sessionID = common.ChunkID{}
	st.chunkID = common.ChunkID{}
	st.sourcePeerID = common.ZeroPeerID
	st.targetPeerID = common.ZeroPeerID
	st.commandID = 0
	st.block = nil
	statePool.Put(st)
}
