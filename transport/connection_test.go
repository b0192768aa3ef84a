package transport

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ground-x/blmessaging/block"
	"github.com/ground-x/blmessaging/common"
	"github.com/ground-x/blmessaging/queue"
	"github.com/ground-x/blmessaging/wire"
)

type recordingHandler struct {
	mu     sync.Mutex
	frames []wire.Frame
	done   chan struct{}
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{done: make(chan struct{}, 8)}
}

func (h *recordingHandler) HandleFrame(c *Connection, f wire.Frame, payload *block.Block) error {
	h.mu.Lock()
	h.frames = append(h.frames, f)
	h.mu.Unlock()
	h.done <- struct{}{}
	return nil
}

func mustPeerID(t *testing.T) common.PeerID {
	t.Helper()
	id, err := common.NewPeerID()
	require.NoError(t, err)
	return id
}

func TestConnectionHandshakeAndSendBlock(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	pool := block.NewPool(1024, 4, false)
	reg := queue.NewRegistry()

	clientID := mustPeerID(t)
	serverID := mustPeerID(t)

	serverHandler := newRecordingHandler()
	client := NewConnection(clientConn, clientID, reg, pool, nil)
	server := NewConnection(serverConn, serverID, queue.NewRegistry(), pool, serverHandler)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	var clientErr, serverErr error
	go func() { defer wg.Done(); clientErr = client.Handshake(ctx) }()
	go func() { defer wg.Done(); serverErr = server.Handshake(ctx) }()
	wg.Wait()

	require.NoError(t, clientErr)
	require.NoError(t, serverErr)
	assert.Equal(t, serverID, client.RemotePeerID())
	assert.Equal(t, clientID, server.RemotePeerID())

	go client.Start(ctx)
	go server.Start(ctx)

	f := wire.Frame{
		ControlCode: wire.Put,
		PeerID:      serverID,
		ChunkID:     common.NewChunkID(),
		Data:        wire.DataUnion{BlockType: wire.Normal},
	}
	done := make(chan error, 1)
	require.NoError(t, client.SendBlock(serverID, f, nil, func(err error) { done <- err }))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("send did not complete")
	}

	select {
	case <-serverHandler.done:
	case <-time.After(time.Second):
		t.Fatal("server never received frame")
	}

	serverHandler.mu.Lock()
	got := serverHandler.frames[0]
	serverHandler.mu.Unlock()
	assert.Equal(t, wire.Put, got.ControlCode)
}

func TestSendBlockRejectsWrongTarget(t *testing.T) {
	clientConn, _ := net.Pipe()
	pool := block.NewPool(1024, 4, false)
	reg := queue.NewRegistry()
	client := NewConnection(clientConn, mustPeerID(t), reg, pool, nil)
	client.remote = mustPeerID(t)
	client.q = reg.Create(client.remote)

	wrongTarget := mustPeerID(t)
	err := client.SendBlock(wrongTarget, wire.Frame{}, nil, nil)
	assert.Error(t, err)
}
