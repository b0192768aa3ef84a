package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ground-x/blmessaging/block"
	"github.com/ground-x/blmessaging/common"
	"github.com/ground-x/blmessaging/common/errs"
	"github.com/ground-x/blmessaging/wire"
)

func TestAllocAcquiresFromPool(t *testing.T) {
	pool := block.NewPool(32, 4, false)
	b := New(pool, nil, nil)
	blk := b.Alloc()
	require.NotNil(t, blk)
	assert.Equal(t, 32, blk.Capacity())
}

func TestAuthenticateClientWithoutCallbackFails(t *testing.T) {
	pool := block.NewPool(32, 4, false)
	b := New(pool, nil, nil)
	blk := pool.Get()
	blk.SetSize(4)

	task, err := b.CreateTask(int32(AuthenticateClient), 0, common.ChunkID{}, common.ChunkID{}, common.PeerID{}, common.PeerID{}, blk)
	require.NoError(t, err)
	waitErr := task.Wait(context.Background())
	require.Error(t, waitErr)
	assert.True(t, errs.Is(waitErr, errs.AuthorizationFailure))
}

func TestAuthenticateClientMissingBlockIsInvalidArgument(t *testing.T) {
	pool := block.NewPool(32, 4, false)
	b := New(pool, func(*block.Block) error { return nil }, nil)

	task, err := b.CreateTask(int32(AuthenticateClient), 0, common.ChunkID{}, common.ChunkID{}, common.PeerID{}, common.PeerID{}, nil)
	require.NoError(t, err)
	waitErr := task.Wait(context.Background())
	require.Error(t, waitErr)
	assert.True(t, errs.Is(waitErr, errs.ProtocolFailure))
}

func TestAuthenticateClientInvokesCallback(t *testing.T) {
	pool := block.NewPool(32, 4, false)
	called := false
	b := New(pool, func(*block.Block) error { called = true; return nil }, nil)
	blk := pool.Get()
	blk.SetSize(4)

	task, err := b.CreateTask(int32(AuthenticateClient), 0, common.ChunkID{}, common.ChunkID{}, common.PeerID{}, common.PeerID{}, blk)
	require.NoError(t, err)
	require.NoError(t, task.Wait(context.Background()))
	assert.True(t, called)
}

func TestGetServerStateAllocatesWhenMissing(t *testing.T) {
	pool := block.NewPool(32, 4, false)
	var seen *block.Block
	b := New(pool, nil, func(blk *block.Block) error { seen = blk; return nil })

	out, err := b.GetServerStateBlock(nil)
	require.NoError(t, err)
	assert.Same(t, seen, out)
}

func TestGetServerStateWithoutCallbackFails(t *testing.T) {
	pool := block.NewPool(32, 4, false)
	b := New(pool, nil, nil)
	_, err := b.GetServerStateBlock(nil)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ServerFailure))
}

func TestCommandAcceptsFlushPeerSessionsAndRemove(t *testing.T) {
	pool := block.NewPool(32, 4, false)
	b := New(pool, nil, nil)
	assert.NoError(t, b.Command(int32(wire.FlushPeerSessions)))
	assert.NoError(t, b.Command(int32(wire.Remove)))
}

func TestSecureDiscardRequiresBlock(t *testing.T) {
	pool := block.NewPool(32, 4, false)
	b := New(pool, nil, nil)
	err := b.SecureDiscard(nil)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ProtocolFailure))
}
