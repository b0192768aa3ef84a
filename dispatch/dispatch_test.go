package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ground-x/blmessaging/common"
	"github.com/ground-x/blmessaging/queue"
	"github.com/ground-x/blmessaging/wire"
)

func mustPeerID(t *testing.T) common.PeerID {
	t.Helper()
	id, err := common.NewPeerID()
	require.NoError(t, err)
	return id
}

func TestCreateDispatchTaskUnknownTarget(t *testing.T) {
	reg := queue.NewRegistry()
	b := NewBrokerDispatchBackend(reg, nil, nil)

	target := mustPeerID(t)
	task := b.CreateDispatchTask(target, wire.Frame{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := task.Wait(ctx)
	assert.Error(t, err)
}

func TestCreateDispatchTaskDeliversToQueue(t *testing.T) {
	reg := queue.NewRegistry()
	b := NewBrokerDispatchBackend(reg, nil, nil)

	target := mustPeerID(t)
	q := reg.Create(target)

	task := b.CreateDispatchTask(target, wire.Frame{ControlCode: wire.Put}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	entry, ok := q.Pop(ctx)
	require.True(t, ok)
	entry.OnReady(nil)

	require.NoError(t, task.Wait(ctx))
}

func TestDispatchWithNoProcessingBackendGoesStraightToQueue(t *testing.T) {
	reg := queue.NewRegistry()
	b := NewBrokerDispatchBackend(reg, nil, nil)
	target := mustPeerID(t)
	q := reg.Create(target)

	task := b.Dispatch(0, 0, common.ChunkID{}, common.ChunkID{}, common.PeerID{}, target, wire.Frame{ControlCode: wire.Put}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	entry, ok := q.Pop(ctx)
	require.True(t, ok)
	entry.OnReady(nil)
	require.NoError(t, task.Wait(ctx))
}
