// Package storage implements the two interchangeable chunk storage
// backends from spec §4.6: a multi-file store (one file per chunk) and
// a single-file append-log store, both behind one ChunkStore interface.
package storage

import (
	"github.com/ground-x/blmessaging/block"
	"github.com/ground-x/blmessaging/common"
)

// ChunkStore is the interface both storage variants implement.
type ChunkStore interface {
	Save(sessionID, chunkID common.ChunkID, blk *block.Block) error
	Load(sessionID, chunkID common.ChunkID, blk *block.Block) error
	Remove(sessionID, chunkID common.ChunkID) error
	FlushPeerSessions(peerID common.PeerID) error
	Dispose() error
}
