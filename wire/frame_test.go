package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ground-x/blmessaging/common"
)

func sampleFrame() Frame {
	var peer common.PeerID
	for i := range peer {
		peer[i] = byte(i)
	}
	var chunk common.ChunkID
	for i := range chunk {
		chunk[i] = byte(16 - i)
	}
	return Frame{
		ControlCode: Put,
		Flags:       FlagAck,
		ErrorCode:   0,
		PeerID:      peer,
		ChunkID:     chunk,
		ChunkSize:   1024,
		Data: DataUnion{
			BlockType:   Normal,
			ProtoOffset: 8,
			CmdFlags:    0,
		},
	}
}

func TestFrameRoundTrip(t *testing.T) {
	f := sampleFrame()
	buf := make([]byte, FrameSize)
	require.NoError(t, Encode(f, buf))
	assert.Len(t, buf, FrameSize)

	got, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, f, got)
}

func TestDecodeRejectsOversizedChunk(t *testing.T) {
	f := sampleFrame()
	f.ChunkSize = MaxChunkSize + 1
	buf := make([]byte, FrameSize)
	require.NoError(t, Encode(f, buf))

	_, err := Decode(buf)
	assert.Error(t, err)
}

func TestDecodeRejectsUnknownControlCode(t *testing.T) {
	f := sampleFrame()
	buf := make([]byte, FrameSize)
	require.NoError(t, Encode(f, buf))
	buf[1] = 0xFF // corrupt low byte of cntrlCode into an unknown value

	_, err := Decode(buf)
	assert.Error(t, err)
}

func TestDecodeRejectsNonZeroPadding(t *testing.T) {
	f := sampleFrame()
	buf := make([]byte, FrameSize)
	require.NoError(t, Encode(f, buf))
	buf[FrameSize-1] = 0x01

	_, err := Decode(buf)
	assert.Error(t, err)
}

func TestDecodeShortBuffer(t *testing.T) {
	_, err := Decode(make([]byte, FrameSize-1))
	assert.Error(t, err)
}
