package transport

import (
	"context"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/ground-x/blmessaging/block"
	"github.com/ground-x/blmessaging/common"
	"github.com/ground-x/blmessaging/common/errs"
	"github.com/ground-x/blmessaging/log"
	"github.com/ground-x/blmessaging/queue"
	"github.com/ground-x/blmessaging/wire"
)

// FrameHandler receives frames as they arrive off the wire. Implementations
// live in the dispatch package; a gateway-side or forwarding-side Connection
// may use a narrower adapter instead.
type FrameHandler interface {
	HandleFrame(c *Connection, f wire.Frame, payload *block.Block) error
}

// Connection owns one TLS-wrapped byte stream to a single remote peer and
// drives it through the state machine in state.go (spec §4.1): a handshake
// that exchanges peer identities out of band, then concurrent send and
// receive loops until either side tears the connection down.
type Connection struct {
	conn   net.Conn
	local  common.PeerID
	remote common.PeerID

	state    stateHolder
	pool     *block.Pool
	registry *queue.Registry
	q        *queue.Queue
	handler  FrameHandler
	logger   *log.Logger

	closeOnce sync.Once
	doneCh    chan struct{}
	wg        sync.WaitGroup

	blocksTransferred uint64
}

// NewConnection wraps an already-dialed or already-accepted net.Conn
// (expected to already be inside its TLS handshake per the caller's
// listener/dialer configuration). Handshake must be called before Start.
func NewConnection(conn net.Conn, localPeerID common.PeerID, registry *queue.Registry, pool *block.Pool, handler FrameHandler) *Connection {
	return &Connection{
		conn:     conn,
		local:    localPeerID,
		registry: registry,
		pool:     pool,
		handler:  handler,
		logger:   log.New("transport.connection"),
		doneCh:   make(chan struct{}),
	}
}

// Handshake exchanges 16-byte peer identities over the already-secured
// stream and registers this connection's send queue into the registry
// under the remote peer's id, per spec §4.1's "Handshaking" state and
// §4.2's "insertion on connect."
func (c *Connection) Handshake(ctx context.Context) error {
	if dl, ok := ctx.Deadline(); ok {
		_ = c.conn.SetDeadline(dl)
		defer c.conn.SetDeadline(noDeadline)
	}

	var wg sync.WaitGroup
	var writeErr, readErr error
	remoteBuf := make([]byte, common.IDSize)

	wg.Add(2)
	go func() {
		defer wg.Done()
		_, writeErr = c.conn.Write(c.local[:])
	}()
	go func() {
		defer wg.Done()
		_, readErr = io.ReadFull(c.conn, remoteBuf)
	}()
	wg.Wait()

	if writeErr != nil || readErr != nil {
		c.state.store(StateCanceled)
		if writeErr != nil {
			return errs.Wrap(errs.ConnectivityFailure, "transport: handshake write failed", writeErr)
		}
		return errs.Wrap(errs.ConnectivityFailure, "transport: handshake read failed", readErr)
	}

	remote, err := common.PeerIDFromBytes(remoteBuf)
	if err != nil {
		c.state.store(StateCanceled)
		return errHandshakeFailed
	}
	c.remote = remote
	c.q = c.registry.Create(remote)
	c.state.store(StateReady)
	c.logger.Info("handshake complete", "remote", remote.String())
	return nil
}

// RemotePeerID returns the identity negotiated during Handshake.
func (c *Connection) RemotePeerID() common.PeerID { return c.remote }

// NoOfBlocksTransferred reports the running count of data blocks (Put/Get
// payloads, not bare control frames) this connection has moved in either
// direction, an admin inspection counter named in spec §5.
func (c *Connection) NoOfBlocksTransferred() uint64 {
	return atomic.LoadUint64(&c.blocksTransferred)
}

func (c *Connection) State() State { return c.state.load() }

// Start launches the send and receive loops. Call after a successful
// Handshake. Blocks until both loops exit, so callers typically invoke it
// in its own goroutine.
func (c *Connection) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.wg.Add(2)
	go func() { defer c.wg.Done(); c.sendLoop(ctx) }()
	go func() { defer c.wg.Done(); c.recvLoop(ctx) }()
	c.wg.Wait()

	close(c.doneCh)
	if c.q != nil {
		c.registry.Remove(c.remote, errs.NewExpectedAborted())
	}
}

// SendBlock enqueues a frame/payload pair addressed to targetPeerID. It is
// a programmer error to target any peer but this connection's own remote
// identity: the queue is per-connection, so misrouting is caught
// synchronously rather than silently dropped.
func (c *Connection) SendBlock(targetPeerID common.PeerID, f wire.Frame, blk *block.Block, onReady queue.OnReady) error {
	if c.q == nil {
		return errNotReady
	}
	if targetPeerID != c.remote {
		return errs.New(errs.TargetPeerNotFound, "transport: target peer id does not match this connection's remote peer")
	}
	return c.q.Push(queue.Entry{TargetPeerID: targetPeerID, Frame: f, Blk: blk, OnReady: onReady})
}

// Shutdown transitions to ShuttingDown, half-closes the write side so the
// peer observes EOF, and waits up to shutdownTimeout for the loops to
// notice. Matches the half-close-before-hard-close discipline the
// original_source's AsioSslStreamWrapper used (SPEC_FULL.md §4).
func (c *Connection) Shutdown() {
	c.state.store(StateShuttingDown)
	if cw, ok := c.conn.(interface{ CloseWrite() error }); ok {
		_ = cw.CloseWrite()
	}
	select {
	case <-c.doneCh:
	case <-timeAfter(shutdownTimeout):
	}
	c.close()
}

func (c *Connection) close() {
	c.closeOnce.Do(func() {
		c.state.store(StateClosed)
		_ = c.conn.Close()
	})
}

// sendLoop pulls entries off this connection's queue in FIFO order and
// writes one frame (plus payload, if any) at a time, per spec §4.1's
// "Framing algorithm (send side)": exactly one write in flight per
// direction at any moment.
func (c *Connection) sendLoop(ctx context.Context) {
	header := make([]byte, wire.FrameSize)
	for {
		entry, ok := c.q.Pop(ctx)
		if !ok {
			return
		}
		c.state.store(StateSending)
		err := c.writeEntry(header, entry)
		c.state.store(StateReady)
		if entry.OnReady != nil {
			entry.OnReady(err)
		}
		if err != nil && !errs.IsExpectedSilent(err) {
			c.logger.Warn("send failed", "remote", c.remote.String(), "err", err)
			c.cancelAndClose()
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (c *Connection) writeEntry(header []byte, entry queue.Entry) error {
	if err := wire.Encode(entry.Frame, header); err != nil {
		return errs.AsServerFailure("transport: encode frame", err)
	}
	if _, err := c.conn.Write(header); err != nil {
		return classifyIOError(err)
	}
	if entry.Blk != nil && entry.Blk.Size() > 0 {
		if _, err := c.conn.Write(entry.Blk.Data()); err != nil {
			return classifyIOError(err)
		}
		atomic.AddUint64(&c.blocksTransferred, 1)
	}
	return nil
}

// recvLoop reads one frame at a time, pulling its payload from the pool
// when chunkSize is non-zero, and hands the pair to the handler, per spec
// §4.1's "Framing algorithm (receive side)".
func (c *Connection) recvLoop(ctx context.Context) {
	header := make([]byte, wire.FrameSize)
	for {
		c.state.store(StateReceiving)
		if _, err := io.ReadFull(c.conn, header); err != nil {
			c.state.store(StateReady)
			cerr := classifyIOError(err)
			if !errs.IsExpectedSilent(cerr) {
				c.logger.Warn("recv failed", "remote", c.remote.String(), "err", cerr)
			}
			c.cancelAndClose()
			return
		}

		f, err := wire.Decode(header)
		if err != nil {
			c.logger.Warn("malformed frame", "remote", c.remote.String(), "err", err)
			c.cancelAndClose()
			return
		}

		var payload *block.Block
		if f.ChunkSize > 0 {
			payload = c.pool.Get()
			if int(f.ChunkSize) > payload.Capacity() {
				c.pool.Put(payload)
				c.logger.Warn("chunk exceeds pool block capacity", "remote", c.remote.String(), "chunkSize", f.ChunkSize)
				c.cancelAndClose()
				return
			}
			if _, err := io.ReadFull(c.conn, payload.Bytes()[:f.ChunkSize]); err != nil {
				c.pool.Put(payload)
				c.cancelAndClose()
				return
			}
			payload.SetSize(int(f.ChunkSize))
			atomic.AddUint64(&c.blocksTransferred, 1)
		}
		c.state.store(StateReady)

		if c.handler != nil {
			if err := c.handler.HandleFrame(c, f, payload); err != nil {
				c.logger.Warn("handler rejected frame", "remote", c.remote.String(), "err", err)
			}
		}
		if payload != nil {
			c.pool.Put(payload)
		}

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (c *Connection) cancelAndClose() {
	c.state.cancel()
	c.close()
}

// classifyIOError maps a raw I/O error into the three expected-silent
// connectivity failures the transport layer swallows (spec §4.1, plus the
// original_source's reset-during-shutdown supplement) or a generic
// ConnectivityFailure otherwise.
func classifyIOError(err error) error {
	if err == io.EOF {
		return errs.NewExpectedEOF()
	}
	if err == context.Canceled {
		return errs.NewExpectedAborted()
	}
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return errs.Wrap(errs.Timeout, "transport: i/o timeout", err)
	}
	if isResetError(err) {
		return errs.NewExpectedResetOnShutdown()
	}
	return errs.Wrap(errs.ConnectivityFailure, "transport: i/o error", err)
}
