// Package common holds the identity primitives shared by every
// messaging-core package: peer ids and chunk ids. The sum-type error used
// to classify failures lives in the subpackage common/errs.
package common

import (
	"encoding/hex"
	"errors"

	uuid "github.com/satori/go.uuid"
)

// IDSize is the byte width of a peer or chunk identifier (128 bits).
const IDSize = 16

// PeerID identifies a participant on the messaging plane. It is the only
// addressing primitive the dispatch layer understands.
type PeerID [IDSize]byte

// ChunkID identifies a persisted blob in the chunk store.
type ChunkID [IDSize]byte

// ZeroPeerID is the nil-sentinel returned before a connection's remote
// identity is known.
var ZeroPeerID PeerID

// DefaultChunkID is the sentinel used in command frames whose block type
// implies the chunk id is irrelevant.
var DefaultChunkID ChunkID

func (p PeerID) IsZero() bool { return p == ZeroPeerID }

func (p PeerID) String() string { return hex.EncodeToString(p[:]) }

func (c ChunkID) IsDefault() bool { return c == DefaultChunkID }

func (c ChunkID) String() string { return uuidFormat(c) }

// uuidFormat renders 16 raw bytes as a lowercase hyphenated uuid string,
// matching the multi-file chunk store's on-disk filename convention.
func uuidFormat(b [IDSize]byte) string {
	u := uuid.UUID{}
	copy(u[:], b[:])
	return u.String()
}

// NewPeerID generates a fresh random peer id using hashicorp/go-uuid,
// the generator the teacher's go.mod carries specifically for node
// identity (as distinct from satori/go.uuid, used below for chunk ids).
func NewPeerID() (PeerID, error) {
	raw, err := goUUID()
	if err != nil {
		return ZeroPeerID, err
	}
	var id PeerID
	copy(id[:], raw)
	return id, nil
}

// NewChunkID generates a fresh random chunk id.
func NewChunkID() ChunkID {
	u := uuid.NewV4()
	var id ChunkID
	copy(id[:], u.Bytes())
	return id
}

// ParseChunkID parses the lowercase-hyphenated uuid form used as a
// multi-file chunk store filename back into a ChunkID.
func ParseChunkID(s string) (ChunkID, error) {
	u, err := uuid.FromString(s)
	if err != nil {
		return ChunkID{}, errors.New("common: invalid chunk id: " + err.Error())
	}
	var id ChunkID
	copy(id[:], u.Bytes())
	return id, nil
}

// PeerIDFromBytes builds a PeerID from a 16-byte slice, as read off the
// wire in a CommandBlock's peerId field.
func PeerIDFromBytes(b []byte) (PeerID, error) {
	if len(b) != IDSize {
		return ZeroPeerID, errors.New("common: peer id must be 16 bytes")
	}
	var id PeerID
	copy(id[:], b)
	return id, nil
}

// ChunkIDFromBytes builds a ChunkID from a 16-byte slice.
func ChunkIDFromBytes(b []byte) (ChunkID, error) {
	if len(b) != IDSize {
		return ChunkID{}, errors.New("common: chunk id must be 16 bytes")
	}
	var id ChunkID
	copy(id[:], b)
	return id, nil
}
