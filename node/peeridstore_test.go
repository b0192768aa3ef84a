package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ground-x/blmessaging/common"
)

func TestPeerIDStoreLoadOrCreateThenReopen(t *testing.T) {
	dir := tempDataDir(t)

	s1, err := OpenPeerIDStore(dir)
	require.NoError(t, err)
	id, err := s1.LoadOrCreate()
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := OpenPeerIDStore(dir)
	require.NoError(t, err)
	defer s2.Close()
	loaded, ok, err := s2.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, id, loaded)
}

func TestPeerIDStoreLoadMissingReturnsNotOK(t *testing.T) {
	dir := tempDataDir(t)
	s, err := OpenPeerIDStore(dir)
	require.NoError(t, err)
	defer s.Close()

	_, ok, err := s.Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPeerIDStoreSaveOverwrites(t *testing.T) {
	dir := tempDataDir(t)
	s, err := OpenPeerIDStore(dir)
	require.NoError(t, err)
	defer s.Close()

	first, err := s.LoadOrCreate()
	require.NoError(t, err)

	var second common.PeerID
	copy(second[:], "0123456789abcdef")
	require.NoError(t, s.Save(second))

	loaded, ok, err := s.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEqual(t, first, loaded)
	assert.Equal(t, second, loaded)
}
