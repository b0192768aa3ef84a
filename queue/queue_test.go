package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ground-x/blmessaging/common"
)

func TestQueueOrderPreserved(t *testing.T) {
	reg := NewRegistry()
	peer, err := common.NewPeerID()
	require.NoError(t, err)
	q := reg.Create(peer)

	var fired []int
	for i := 0; i < 5; i++ {
		i := i
		require.NoError(t, q.Push(Entry{TargetPeerID: peer, OnReady: func(error) { fired = append(fired, i) }}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for i := 0; i < 5; i++ {
		e, ok := q.Pop(ctx)
		require.True(t, ok)
		e.OnReady(nil)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, fired)
}

func TestRegistryRemoveDrainsPending(t *testing.T) {
	reg := NewRegistry()
	peer, err := common.NewPeerID()
	require.NoError(t, err)
	q := reg.Create(peer)

	var gotErr error
	require.NoError(t, q.Push(Entry{TargetPeerID: peer, OnReady: func(e error) { gotErr = e }}))

	reg.Remove(peer, assert.AnError)
	assert.Equal(t, assert.AnError, gotErr)

	_, ok := reg.TryGet(peer)
	assert.False(t, ok)

	err = q.Push(Entry{TargetPeerID: peer})
	assert.Error(t, err)
}
