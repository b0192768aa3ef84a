package wire

import (
	"encoding/binary"

	"github.com/ground-x/blmessaging/common"
)

// DataUnion is the frame's tagged 256-bit union (spec §3): a version
// integer for the two protocol-version control codes, or block-info
// fields for everything else.
type DataUnion struct {
	Version     uint32    // valid for GetProtocolVersion / SetProtocolVersion
	BlockType   BlockType // valid for Get / Put / Remove
	ProtoOffset uint32    // protocol data offset into the payload
	CmdFlags    uint32    // per-command flags
}

// Frame is the in-memory form of a CommandBlock.
type Frame struct {
	ControlCode ControlCode
	Flags       Flags
	ErrorCode   int32
	PeerID      common.PeerID
	ChunkID     common.ChunkID
	ChunkSize   uint32
	Data        DataUnion
}

func (f Frame) HasFlag(fl Flags) bool { return f.Flags&fl != 0 }

// unused padding bytes that round headerFieldsSize up to FrameSize; the
// decoder rejects a frame whose padding bytes are non-zero (spec
// §4.1's framing algorithm).
const paddingSize = FrameSize - headerFieldsSize

// Encode writes f as a network-byte-order 80-byte header into buf,
// which must be at least FrameSize bytes.
func Encode(f Frame, buf []byte) error {
	if len(buf) < FrameSize {
		return errShortBuffer
	}
	o := 0
	binary.BigEndian.PutUint16(buf[o:], uint16(f.ControlCode))
	o += 2
	binary.BigEndian.PutUint16(buf[o:], uint16(f.Flags))
	o += 2
	binary.BigEndian.PutUint32(buf[o:], uint32(f.ErrorCode))
	o += 4
	copy(buf[o:o+common.IDSize], f.PeerID[:])
	o += common.IDSize
	copy(buf[o:o+common.IDSize], f.ChunkID[:])
	o += common.IDSize
	binary.BigEndian.PutUint32(buf[o:], f.ChunkSize)
	o += 4
	binary.BigEndian.PutUint32(buf[o:], f.Data.Version)
	o += 4
	buf[o] = byte(f.Data.BlockType)
	o++
	// 3 bytes of intra-union padding to keep the union's later fields
	// 4-byte aligned.
	buf[o], buf[o+1], buf[o+2] = 0, 0, 0
	o += 3
	binary.BigEndian.PutUint32(buf[o:], f.Data.ProtoOffset)
	o += 4
	binary.BigEndian.PutUint32(buf[o:], f.Data.CmdFlags)
	o += 4
	// the rest of the 32-byte union is reserved and always zero.
	for ; o < headerFieldsSize; o++ {
		buf[o] = 0
	}
	for i := 0; i < paddingSize; i++ {
		buf[o+i] = 0
	}
	return nil
}

// Decode reads an 80-byte header from buf into a Frame, validating the
// invariants spec §4.1 names: padding must be zero, chunkSize must not
// exceed MaxChunkSize, cntrlCode must be known, and the data-union tag
// must be consistent with cntrlCode.
func Decode(buf []byte) (Frame, error) {
	var f Frame
	if len(buf) < FrameSize {
		return f, errShortBuffer
	}
	o := 0
	f.ControlCode = ControlCode(binary.BigEndian.Uint16(buf[o:]))
	o += 2
	f.Flags = Flags(binary.BigEndian.Uint16(buf[o:]))
	o += 2
	f.ErrorCode = int32(binary.BigEndian.Uint32(buf[o:]))
	o += 4
	copy(f.PeerID[:], buf[o:o+common.IDSize])
	o += common.IDSize
	copy(f.ChunkID[:], buf[o:o+common.IDSize])
	o += common.IDSize
	f.ChunkSize = binary.BigEndian.Uint32(buf[o:])
	o += 4
	f.Data.Version = binary.BigEndian.Uint32(buf[o:])
	o += 4
	f.Data.BlockType = BlockType(buf[o])
	o++
	o += 3 // intra-union padding, not validated individually
	f.Data.ProtoOffset = binary.BigEndian.Uint32(buf[o:])
	o += 4
	f.Data.CmdFlags = binary.BigEndian.Uint32(buf[o:])
	o = headerFieldsSize // skip the reserved tail of the 32-byte union

	for i := 0; i < paddingSize; i++ {
		if buf[o+i] != 0 {
			return f, errNonZeroPadding
		}
	}

	if !f.ControlCode.Valid() {
		return f, errUnknownControlCode
	}
	if f.ChunkSize > MaxChunkSize {
		return f, errChunkTooLarge
	}
	if err := validateUnion(f); err != nil {
		return f, err
	}
	return f, nil
}

func validateUnion(f Frame) error {
	switch f.ControlCode {
	case GetProtocolVersion, SetProtocolVersion:
		return nil // version field is the meaningful one; block info unused
	case Get, Put, Remove:
		if !f.Data.BlockType.Valid() {
			return errInvalidBlockType
		}
		return nil
	case GetDataBlockSize, FlushPeerSessions:
		return nil
	default:
		return errUnknownControlCode
	}
}
