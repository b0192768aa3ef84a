package forwarding

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ground-x/blmessaging/block"
	"github.com/ground-x/blmessaging/common"
	"github.com/ground-x/blmessaging/queue"
	"github.com/ground-x/blmessaging/selector"
	"github.com/ground-x/blmessaging/transport"
	"github.com/ground-x/blmessaging/wire"
)

// pairedDialer hands out one side of an in-memory net.Pipe per dial and
// runs a bare-bones handshake responder on the other side so Backend's
// construction protocol completes without a real listener.
func pairedDialer(t *testing.T, registry *queue.Registry, pool *block.Pool) Dialer {
	return func(ctx context.Context, host string, port int) (net.Conn, error) {
		clientSide, serverSide := net.Pipe()
		serverID, err := common.NewPeerID()
		require.NoError(t, err)
		serverConn := transport.NewConnection(serverSide, serverID, registry, pool, nil)
		go func() {
			_ = serverConn.Handshake(context.Background())
			serverConn.Start(context.Background())
		}()
		return clientSide, nil
	}
}

func TestNewFailsWithNoEndpoints(t *testing.T) {
	pool := block.NewPool(1024, 4, false)
	registry := queue.NewRegistry()
	localID, err := common.NewPeerID()
	require.NoError(t, err)

	_, err = New(context.Background(), nil, 1, localID, registry, pool, nil, pairedDialer(t, registry, pool), false)
	assert.Error(t, err)
}

func TestNewConnectsAndDispatches(t *testing.T) {
	pool := block.NewPool(1024, 4, false)
	registry := queue.NewRegistry()
	localID, err := common.NewPeerID()
	require.NoError(t, err)

	endpoints := []selector.Endpoint{{Host: "127.0.0.1", Port: 9100}}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	backend, err := New(ctx, endpoints, 1, localID, registry, pool, nil, pairedDialer(t, registry, pool), false)
	require.NoError(t, err)
	assert.True(t, backend.IsConnected())

	task := backend.CreateDispatchTask(wire.Frame{ControlCode: wire.Put}, nil)
	err = task.Wait(ctx)
	assert.NoError(t, err)
}
