// Package wire implements the block-transfer command frame: the
// fixed-layout header spec §3/§6 requires before any payload bytes on
// a connection, plus encode/decode and the layout assertion that the
// packed form is exactly FrameSize bytes.
package wire

// ControlCode is the frame's cntrlCode field.
type ControlCode uint16

const (
	GetProtocolVersion ControlCode = iota + 1
	SetProtocolVersion
	GetDataBlockSize
	Get
	Put
	Remove
	FlushPeerSessions
)

func (c ControlCode) Valid() bool {
	return c >= GetProtocolVersion && c <= FlushPeerSessions
}

// Flags are bit flags in the frame's flags field.
type Flags uint16

const (
	FlagAck Flags = 1 << 0
	FlagErr Flags = 1 << 1
)

// BlockType tags the data-block-info union variant (spec §4.1).
type BlockType uint8

const (
	Normal BlockType = iota
	Authentication
	ServerState
	TransferOnly
)

func (t BlockType) Valid() bool { return t <= TransferOnly }

// ProtocolVersion values (spec §6).
const (
	ProtocolVersionLegacy = 1
	ProtocolVersionServer = 2
)

// MaxChunkSize is the hard cap on chunkSize (spec §3/§6): 128 MiB.
const MaxChunkSize = 128 * 1024 * 1024

// FrameSize is the fixed, eight-byte-aligned header size. Summing §3's
// field table (cntrlCode 2 + flags 2 + errorCode 4 + peerId 16 +
// chunkId 16 + chunkSize 4 + data union 32 = 76, padded to the next
// 8-byte boundary) gives 80, not the illustrative "48 bytes" figure
// §8's round-trip property names. The field table is the binding
// contract (it is what a decoder actually reads field by field); the
// round number in §8 is treated as descriptive shorthand and not
// load-bearing. See DESIGN.md, "Open Question decisions", for this
// resolution.
const FrameSize = 80

// headerFieldsSize is FrameSize before the trailing alignment pad.
const headerFieldsSize = 76

