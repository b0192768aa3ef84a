package storage

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ground-x/blmessaging/block"
	"github.com/ground-x/blmessaging/common"
)

func tempRoot(t *testing.T) string {
	dir, err := ioutil.TempDir("", "blmessaging-multifile")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func TestMultiFileSaveLoadRoundTrip(t *testing.T) {
	root := tempRoot(t)
	s, err := NewMultiFileStore(root)
	require.NoError(t, err)
	defer s.Dispose()

	pool := block.NewPool(64, 4, false)
	sessionID := common.NewChunkID()
	chunkID := common.NewChunkID()

	in := pool.Get()
	copy(in.Bytes(), []byte("hello chunk"))
	in.SetSize(len("hello chunk"))
	require.NoError(t, s.Save(sessionID, chunkID, in))

	out := pool.Get()
	require.NoError(t, s.Load(sessionID, chunkID, out))
	assert.Equal(t, "hello chunk", string(out.Data()))
}

func TestMultiFileLoadMissingIsChunkNotFound(t *testing.T) {
	root := tempRoot(t)
	s, err := NewMultiFileStore(root)
	require.NoError(t, err)
	defer s.Dispose()

	pool := block.NewPool(64, 2, false)
	out := pool.Get()
	err = s.Load(common.NewChunkID(), common.NewChunkID(), out)
	require.Error(t, err)
	assert.True(t, isChunkNotFound(err))
}

func TestMultiFileRemoveThenLoadMisses(t *testing.T) {
	root := tempRoot(t)
	s, err := NewMultiFileStore(root)
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

func TestMultiFileReopenPreservesBloomSeeding(t *testing.T) {
	root := tempRoot(t)
	s1, err := NewMultiFileStore(root)
	require.NoError(t, err)

	pool := block.NewPool(64, 2, false)
	sessionID := common.NewChunkID()
	chunkID := common.NewChunkID()
	in := pool.Get()
	in.SetSize(3)
	copy(in.Bytes(), []byte("abc"))
	require.NoError(t, s1.Save(sessionID, chunkID, in))
	require.NoError(t, s1.Dispose())

	s2, err := NewMultiFileStore(root)
	require.NoError(t, err)
	defer s2.Dispose()

	out := pool.Get()
	require.NoError(t, s2.Load(sessionID, chunkID, out))
	assert.Equal(t, "abc", string(out.Data()))
}
