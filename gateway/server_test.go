package gateway

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ground-x/blmessaging/block"
	"github.com/ground-x/blmessaging/common"
	"github.com/ground-x/blmessaging/forwarding"
	"github.com/ground-x/blmessaging/queue"
	"github.com/ground-x/blmessaging/selector"
	"github.com/ground-x/blmessaging/transport"
	"github.com/ground-x/blmessaging/wire"
)

// echoHandler decodes an inbound envelope and immediately sends a reply
// envelope carrying a fixed status/body back on the same connection,
// standing in for an upstream peer that answers every request.
type echoHandler struct{}

func (echoHandler) HandleFrame(c *transport.Connection, f wire.Frame, payload *block.Block) error {
	env, err := DecodeEnvelope(payload)
	if err != nil {
		return err
	}
	reply := Envelope{ConversationID: env.ConversationID, StatusCode: 200, Body: []byte("ok:" + env.Method)}
	pool := block.NewPool(4096, 4, false)
	blk := pool.Get()
	if err := EncodeInto(reply, blk); err != nil {
		return err
	}
	replyFrame := wire.Frame{ControlCode: wire.Put, PeerID: c.RemotePeerID(), Data: wire.DataUnion{BlockType: wire.Normal}}
	return c.SendBlock(c.RemotePeerID(), replyFrame, blk, func(error) {})
}

func echoingDialer(t *testing.T, registry *queue.Registry, pool *block.Pool) forwarding.Dialer {
	return func(ctx context.Context, host string, port int) (net.Conn, error) {
		clientSide, serverSide := net.Pipe()
		serverID, err := common.NewPeerID()
		require.NoError(t, err)
		serverConn := transport.NewConnection(serverSide, serverID, registry, pool, echoHandler{})
		go func() {
			_ = serverConn.Handshake(context.Background())
			serverConn.Start(context.Background())
		}()
		return clientSide, nil
	}
}

func TestServeProxyRoundTripsThroughForwardingBackend(t *testing.T) {
	pool := block.NewPool(4096, 4, false)
	registry := queue.NewRegistry()
	localID, err := common.NewPeerID()
	require.NoError(t, err)

	endpoints := []selector.Endpoint{{Host: "127.0.0.1", Port: 9200}}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cfg := Config{
		NoServerAuthenticationRequired: true,
		RequestTimeout:                 2 * time.Second,
	}
	srv := NewServer(cfg, pool, nil, nil, nil)

	backend, err := forwarding.New(ctx, endpoints, 1, localID, registry, pool, srv, echoingDialer(t, registry, pool), false)
	require.NoError(t, err)
	srv.dispatcher = backend

	req := httptest.NewRequest("GET", "/anything", nil)
	w := httptest.NewRecorder()
	srv.serveProxy(w, req)

	resp := w.Result()
	assert.Equal(t, 200, resp.StatusCode)
}

func TestExtractTokenFromCookie(t *testing.T) {
	cfg := Config{TokenCookieNames: []string{"session"}}
	srv := NewServer(cfg, nil, nil, nil, nil)

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "abc123"})

	token, ok := srv.extractToken(req)
	require.True(t, ok)
	assert.Equal(t, "abc123", string(token))
}

func TestExtractTokenFallsBackToDefault(t *testing.T) {
	cfg := Config{TokenCookieNames: []string{"session"}, TokenDataDefault: "fallback"}
	srv := NewServer(cfg, nil, nil, nil, nil)

	req := httptest.NewRequest("GET", "/", nil)
	token, ok := srv.extractToken(req)
	require.True(t, ok)
	assert.Equal(t, "fallback", string(token))
}

func TestExtractTokenMissingFailsWhenNoDefault(t *testing.T) {
	cfg := Config{TokenCookieNames: []string{"session"}}
	srv := NewServer(cfg, nil, nil, nil, nil)

	req := httptest.NewRequest("GET", "/", nil)
	_, ok := srv.extractToken(req)
	assert.False(t, ok)
}
