package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ground-x/blmessaging/block"
	"github.com/ground-x/blmessaging/common"
)

func TestSingleFileSaveLoadRoundTrip(t *testing.T) {
	root := tempRoot(t)
	s, err := OpenSingleFileStore(root, true)
	require.NoError(t, err)
	defer s.Dispose()

	pool := block.NewPool(64, 4, false)
	sessionID := common.NewChunkID()
	chunkID := common.NewChunkID()

	in := pool.Get()
	copy(in.Bytes(), []byte("single file payload"))
	in.SetSize(len("single file payload"))
	require.NoError(t, s.Save(sessionID, chunkID, in))

	out := pool.Get()
	require.NoError(t, s.Load(sessionID, chunkID, out))
	assert.Equal(t, "single file payload", string(out.Data()))
}

func TestSingleFileOverwriteMarksPriorDeleted(t *testing.T) {
	root := tempRoot(t)
	s, err := OpenSingleFileStore(root, true)
	require.NoError(t, err)
	defer s.Dispose()

	pool := block.NewPool(64, 4, false)
	sessionID := common.NewChunkID()
	chunkID := common.NewChunkID()

	first := pool.Get()
	first.SetSize(3)
	copy(first.Bytes(), []byte("old"))
	require.NoError(t, s.Save(sessionID, chunkID, first))

	second := pool.Get()
	second.SetSize(3)
	copy(second.Bytes(), []byte("new"))
	require.NoError(t, s.Save(sessionID, chunkID, second))

	assert.Len(t, s.index, 1)
	out := pool.Get()
	require.NoError(t, s.Load(sessionID, chunkID, out))
	assert.Equal(t, "new", string(out.Data()))
}

func TestSingleFileRemoveThenLoadMisses(t *testing.T) {
	root := tempRoot(t)
	s, err := OpenSingleFileStore(root, true)
	require.NoError(t, err)
	defer s.Dispose()

	pool := block.NewPool(64, 2, false)
	sessionID := common.NewChunkID()
	chunkID := common.NewChunkID()

	in := pool.Get()
	in.SetSize(4)
	copy(in.Bytes(), []byte("data"))
	require.NoError(t, s.Save(sessionID, chunkID, in))
	require.NoError(t, s.Remove(sessionID, chunkID))

	out := pool.Get()
	err = s.Load(sessionID, chunkID, out)
	require.Error(t, err)
	assert.True(t, isChunkNotFound(err))
}

func TestSingleFileReopenReplaysHeaderChain(t *testing.T) {
	root := tempRoot(t)
	s1, err := OpenSingleFileStore(root, true)
	require.NoError(t, err)

	pool := block.NewPool(64, 4, false)
	sessionID := common.NewChunkID()
	kept := common.NewChunkID()
	removed := common.NewChunkID()

	a := pool.Get()
	a.SetSize(4)
	copy(a.Bytes(), []byte("kept"))
	require.NoError(t, s1.Save(sessionID, kept, a))

	b := pool.Get()
	b.SetSize(7)
	copy(b.Bytes(), []byte("removed"))
	require.NoError(t, s1.Save(sessionID, removed, b))
	require.NoError(t, s1.Remove(sessionID, removed))
	require.NoError(t, s1.Dispose())

	s2, err := OpenSingleFileStore(root, true)
	require.NoError(t, err)
	defer s2.Dispose()

	assert.Len(t, s2.index, 1)
	out := pool.Get()
	require.NoError(t, s2.Load(sessionID, kept, out))
	assert.Equal(t, "kept", string(out.Data()))

	err = s2.Load(sessionID, removed, out)
	require.Error(t, err)
	assert.True(t, isChunkNotFound(err))
}
