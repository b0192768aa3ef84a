// Package forwarding implements the client-side forwarding backend
// (spec §4.3): N outbound connections per configured broker endpoint,
// round-robin dispatching sends across the live connections. Its
// surface is its own (CreateDispatchTask(frame, blk), IsConnected); it
// does not implement dispatch.Dispatcher.
package forwarding

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/ground-x/blmessaging/block"
	"github.com/ground-x/blmessaging/common"
	"github.com/ground-x/blmessaging/common/errs"
	"github.com/ground-x/blmessaging/log"
	"github.com/ground-x/blmessaging/queue"
	"github.com/ground-x/blmessaging/selector"
	"github.com/ground-x/blmessaging/transport"
	"github.com/ground-x/blmessaging/wire"
)

// minPerEndpoint is spec §4.3's floor on connections-per-endpoint when
// expanding the requested connection count.
const minPerEndpoint = 8

// pollInterval/pollBudget implement the "wait up to 60s, poll every
// 100ms" construction step.
const (
	pollInterval = 100 * time.Millisecond
	pollBudget   = 60 * time.Second
)

// Dialer opens one direction of one endpoint's connection pair. The real
// implementation dials TLS; tests substitute net.Pipe or an in-memory
// listener.
type Dialer func(ctx context.Context, host string, port int) (net.Conn, error)

type clientConn struct {
	conn    *transport.Connection
	mu      sync.Mutex
	live    bool
}

func (c *clientConn) isLive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live
}

func (c *clientConn) markDead() {
	c.mu.Lock()
	c.live = false
	c.mu.Unlock()
}

// Backend is the client-side dispatcher: a rotating set of outbound
// connections to one or more broker endpoints. It does not implement
// dispatch.Dispatcher.
type Backend struct {
	mu      sync.Mutex
	clients []*clientConn
	cursor  int
	logger  *log.Logger
}

// errCannotConnect is returned by New when the endpoint list is empty or
// no endpoint got both its inbound and outbound direction connected,
// per spec §4.3 step 3.
var errCannotConnect = errs.New(errs.ConnectivityFailure, "forwarding: cannot establish connectivity to any endpoint")

// New implements spec §4.3's construction protocol: expand the endpoint
// list, dial both directions of every endpoint pair in parallel, require
// at least one fully-connected endpoint, then optionally wait for the
// rest up to pollBudget.
func New(ctx context.Context, endpoints []selector.Endpoint, connectionsRequested int, localPeerID common.PeerID, registry *queue.Registry, pool *block.Pool, handler transport.FrameHandler, dial Dialer, waitForAll bool) (*Backend, error) {
	if len(endpoints) == 0 {
		return nil, errCannotConnect
	}
	n := connectionsRequested
	if want := minPerEndpoint * len(endpoints); want > n {
		n = want
	}
	connsPerEndpoint := n / len(endpoints)
	if connsPerEndpoint < 1 {
		connsPerEndpoint = 1
	}

	type slot struct {
		endpointIdx int
		outbound    bool
		cc          *clientConn
	}
	slots := make([]slot, 0, len(endpoints)*connsPerEndpoint*2)
	for i := range endpoints {
		for j := 0; j < connsPerEndpoint; j++ {
			slots = append(slots, slot{endpointIdx: i, outbound: false})
			slots = append(slots, slot{endpointIdx: i, outbound: true})
		}
	}

	var wg sync.WaitGroup
	wg.Add(len(slots))
	for i := range slots {
		i := i
		ep := endpoints[slots[i].endpointIdx]
		port := ep.Port
		if slots[i].outbound {
			port++
		}
		go func() {
			defer wg.Done()
			slots[i].cc = dialOne(ctx, ep.Host, port, localPeerID, registry, pool, handler, dial)
		}()
	}
	wg.Wait()

	b := &Backend{logger: log.New("forwarding.backend")}
	connectedEndpoints := make(map[int]struct{ in, out bool })
	for _, s := range slots {
		if s.cc == nil {
			continue
		}
		b.clients = append(b.clients, s.cc)
		st := connectedEndpoints[s.endpointIdx]
		if s.outbound {
			st.out = true
		} else {
			st.in = true
		}
		connectedEndpoints[s.endpointIdx] = st
	}
	anyFullyConnected := false
	for _, st := range connectedEndpoints {
		if st.in && st.out {
			anyFullyConnected = true
			break
		}
	}
	if !anyFullyConnected {
		return nil, errCannotConnect
	}

	if waitForAll {
		b.waitForMore(ctx, len(slots))
	}
	return b, nil
}

func dialOne(ctx context.Context, host string, port int, localPeerID common.PeerID, registry *queue.Registry, pool *block.Pool, handler transport.FrameHandler, dial Dialer) *clientConn {
	conn, err := dial(ctx, host, port)
	if err != nil {
		return nil
	}
	tc := transport.NewConnection(conn, localPeerID, registry, pool, handler)
	if err := tc.Handshake(ctx); err != nil {
		return nil
	}
	cc := &clientConn{conn: tc, live: true}
	go func() {
		tc.Start(ctx)
		cc.markDead()
	}()
	return cc
}

// waitForMore polls every pollInterval, up to pollBudget, until want
// clients are live. dialOne already blocks until each handshake completes
// or fails, and a slot whose dial failed is never retried, so this
// returns at once when every slot connected and otherwise waits out the
// whole pollBudget (or until ctx is done). It is kept as the named step
// so the construction protocol's timing budget is visible in one place.
func (b *Backend) waitForMore(ctx context.Context, want int) {
	deadline := time.Now().Add(pollBudget)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for time.Now().Before(deadline) {
		if b.liveCount() >= want {
			return
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func (b *Backend) liveCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.clients {
		if c.isLive() {
			n++
		}
	}
	return n
}

// IsConnected is true iff the rotating dispatcher has any live outbound
// channel (spec §4.3).
func (b *Backend) IsConnected() bool {
	return b.liveCount() > 0
}

// CreateDispatchTask round-robins across live connections, skipping dead
// ones and wrapping at the end of the list (spec §4.3's rotating
// dispatcher). It does not address a specific remote peer the way the
// broker-side backend does: the target peer id travels inside the frame,
// and delivery ordering across connections is explicitly not guaranteed
// (spec §5).
func (b *Backend) CreateDispatchTask(f wire.Frame, blk *block.Block) *dispatchTask {
	t := &dispatchTask{done: make(chan error, 1)}
	b.mu.Lock()
	n := len(b.clients)
	if n == 0 {
		b.mu.Unlock()
		t.done <- errCannotConnect
		return t
	}
	for i := 0; i < n; i++ {
		idx := (b.cursor + i) % n
		c := b.clients[idx]
		if !c.isLive() {
			continue
		}
		b.cursor = (idx + 1) % n
		b.mu.Unlock()
		err := c.conn.SendBlock(c.conn.RemotePeerID(), f, blk, t.done.push)
		if err != nil {
			t.done <- err
		}
		return t
	}
	b.mu.Unlock()
	t.done <- errCannotConnect
	return t
}

type doneChan chan error

func (d doneChan) push(err error) { d <- err }

type dispatchTask struct {
	done doneChan
}

func (t *dispatchTask) Wait(ctx context.Context) error {
	select {
	case err := <-t.done:
		return err
	case <-ctx.Done():
		return errs.NewExpectedAborted()
	}
}
