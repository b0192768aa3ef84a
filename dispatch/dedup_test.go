package dispatch

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ground-x/blmessaging/common"
)

func tempDedupDir(t *testing.T) string {
	dir, err := ioutil.TempDir("", "dedup-test-")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func TestDedupIndexMarkThenSeen(t *testing.T) {
	idx, err := OpenDedupIndex(tempDedupDir(t))
	require.NoError(t, err)
	defer idx.Close()

	target, err := common.NewPeerID()
	require.NoError(t, err)
	chunk := common.NewChunkID()

	seen, err := idx.Seen(target, chunk)
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, idx.MarkSeen(target, chunk))

	seen, err = idx.Seen(target, chunk)
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestDedupIndexInMemoryHitAvoidsMissingDBEntry(t *testing.T) {
	idx, err := OpenDedupIndex(tempDedupDir(t))
	require.NoError(t, err)
	defer idx.Close()

	target, err := common.NewPeerID()
	require.NoError(t, err)
	chunk := common.NewChunkID()

	idx.markSeenInMemory(target, chunk)
	assert.True(t, idx.seenInMemory(target, chunk))

	seen, err := idx.Seen(target, chunk)
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestDedupIndexEvictsOldestBeyondCap(t *testing.T) {
	idx, err := OpenDedupIndex(tempDedupDir(t))
	require.NoError(t, err)
	defer idx.Close()

	target, err := common.NewPeerID()
	require.NoError(t, err)

	first := common.NewChunkID()
	idx.markSeenInMemory(target, first)

	for i := 0; i < maxKnownChunksPerTarget; i++ {
		idx.markSeenInMemory(target, common.NewChunkID())
	}

	assert.False(t, idx.seenInMemory(target, first))
}
