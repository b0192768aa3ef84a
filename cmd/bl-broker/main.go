// Command bl-broker runs the peer-to-peer block-oriented messaging
// broker (spec §4.1-§4.2, §4.6, §4.8): a TLS-wrapped TCP listener that
// accepts block-transfer connections, persists chunks, and dispatches
// Put blocks to the target peer's outbound queue.
package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/net/netutil"
	"gopkg.in/urfave/cli.v1"

	"github.com/ground-x/blmessaging/api/debug"
	"github.com/ground-x/blmessaging/block"
	"github.com/ground-x/blmessaging/common"
	"github.com/ground-x/blmessaging/dispatch"
	"github.com/ground-x/blmessaging/executor"
	"github.com/ground-x/blmessaging/log"
	"github.com/ground-x/blmessaging/node"
	"github.com/ground-x/blmessaging/nodeutil"
	"github.com/ground-x/blmessaging/queue"
	"github.com/ground-x/blmessaging/storage"
	"github.com/ground-x/blmessaging/transport"
)

var gitCommit = ""

// handshakeTimeout bounds the initial peer-identity exchange
// (transport.Connection.Handshake) on an accepted connection, so a
// slow or stalled peer cannot tie up an accept-loop goroutine forever.
const handshakeTimeout = 10 * time.Second

func main() {
	app := cli.NewApp()
	app.Name = "bl-broker"
	app.Usage = "peer-to-peer block-oriented messaging broker"
	app.Version = gitCommit
	app.Flags = append(append([]cli.Flag{}, nodeutil.BrokerFlags...), debug.Flags...)
	app.Action = runBroker
	app.Commands = []cli.Command{consoleCommand}

	if err := app.Run(os.Args); err != nil {
		nodeutil.Fatalf("%v", err)
	}
}

func runBroker(ctx *cli.Context) error {
	if err := debug.Setup(ctx); err != nil {
		return err
	}
	defer debug.Exit()

	n, _, err := buildBrokerNode(ctx)
	if err != nil {
		return err
	}
	nodeutil.StartNode(n)
	return nil
}

// buildBrokerNode assembles a node.Node with the broker's one service
// registered, returning the node (not yet started) and the broker
// service, whose dispatch backend is set once the node starts, so the
// console command can reach into it without a second copy of this wiring.
func buildBrokerNode(ctx *cli.Context) (*node.Node, *brokerService, error) {
	cfg := node.DefaultConfig
	if dir := ctx.String(nodeutil.DataDirFlag.Name); dir != "" {
		cfg.DataDir = dir
	}
	if ctx.String(nodeutil.PoolSizeFlag.Name) != "" {
		size, err := nodeutil.ParseSize(ctx.String(nodeutil.PoolSizeFlag.Name))
		if err != nil {
			return nil, nil, fmt.Errorf("bl-broker: invalid --pool-size: %w", err)
		}
		cfg.PoolCapacity = int(size)
	}

	n := node.New(cfg)
	svc := &brokerService{
		listenPort:      ctx.Int(nodeutil.ListenPortFlag.Name),
		privateKeyFile:  ctx.String(nodeutil.PrivateKeyFileFlag.Name),
		certificateFile: ctx.String(nodeutil.CertificateFileFlag.Name),
		storageVariant:  ctx.String(nodeutil.StorageVariantFlag.Name),
		fsync:           ctx.Bool(nodeutil.FsyncFlag.Name),
		maxConnections:  ctx.Int(nodeutil.MaxConnectionsFlag.Name),
		natMode:         ctx.String(nodeutil.NATFlag.Name),
	}
	n.Register(func(sctx *node.ServiceContext) (node.Service, error) {
		if err := svc.init(sctx); err != nil {
			return nil, err
		}
		return svc, nil
	})
	return n, svc, nil
}

// brokerService is the node.Service wrapping everything the broker
// binary owns beyond the shared pool/registry: chunk storage, the
// dispatch backend, and the TLS accept loop.
type brokerService struct {
	listenPort      int
	privateKeyFile  string
	certificateFile string
	storageVariant  string
	fsync           bool
	maxConnections  int
	natMode         string

	pool     *block.Pool
	registry *queue.Registry
	peerID   common.PeerID

	store   storage.ChunkStore
	dedup   *dispatch.DedupIndex
	backend *dispatch.BrokerDispatchBackend
	handler *brokerFrameHandler

	listener net.Listener
	cancel   context.CancelFunc
	logger   *log.Logger
}

func (s *brokerService) init(sctx *node.ServiceContext) error {
	s.pool = sctx.Pool
	s.registry = sctx.Registry
	s.peerID = sctx.PeerID
	s.logger = log.New("bl-broker")

	store, err := openChunkStore(s.storageVariant, sctx.Config.ResolvePath("chunks"), s.fsync)
	if err != nil {
		return err
	}
	s.store = store

	dedup, err := dispatch.OpenDedupIndex(sctx.Config.ResolvePath("dedup"))
	if err != nil {
		return err
	}
	s.dedup = dedup

	exec := executor.New(s.pool, nil, nil)
	s.backend = dispatch.NewBrokerDispatchBackend(s.registry, exec, nil)

	s.handler = &brokerFrameHandler{
		backend: s.backend,
		store:   s.store,
		dedup:   s.dedup,
		pool:    s.pool,
		logger:  log.New("bl-broker.handler"),
	}
	return nil
}

func openChunkStore(variant, root string, fsync bool) (storage.ChunkStore, error) {
	switch variant {
	case "singlefile":
		return storage.OpenSingleFileStore(root, fsync)
	case "multifile", "":
		return storage.NewMultiFileStore(root)
	default:
		return nil, fmt.Errorf("bl-broker: unknown --storage-variant %q", variant)
	}
}

func (s *brokerService) Start() error {
	cert, err := nodeutil.ResolveTLSMaterial(s.certificateFile)
	if err != nil {
		return fmt.Errorf("bl-broker: resolving certificate: %w", err)
	}
	key, err := nodeutil.ResolveTLSMaterial(s.privateKeyFile)
	if err != nil {
		return fmt.Errorf("bl-broker: resolving private key: %w", err)
	}
	pair, err := tls.LoadX509KeyPair(cert, key)
	if err != nil {
		return fmt.Errorf("bl-broker: loading TLS identity: %w", err)
	}

	raw, err := tls.Listen("tcp", fmt.Sprintf(":%d", s.listenPort), &tls.Config{Certificates: []tls.Certificate{pair}})
	if err != nil {
		return fmt.Errorf("bl-broker: listen failed: %w", err)
	}
	if s.maxConnections > 0 {
		raw = netutil.LimitListener(raw, s.maxConnections)
	}
	s.listener = raw

	if s.natMode == "auto" {
		go nodeutil.MapPort(s.listenPort)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.acceptLoop(ctx)

	s.logger.Info("broker listening", "port", s.listenPort, "peerId", s.peerID.String())
	return nil
}

func (s *brokerService) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				s.logger.Warn("accept failed", "err", err)
				return
			}
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *brokerService) handleConn(ctx context.Context, conn net.Conn) {
	tc := transport.NewConnection(conn, s.peerID, s.registry, s.pool, s.handler)
	hctx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	defer cancel()
	if err := tc.Handshake(hctx); err != nil {
		s.logger.Warn("handshake failed", "err", err)
		conn.Close()
		return
	}
	s.backend.PeerConnectedNotify(tc.RemotePeerID())
	tc.Start(ctx)
	s.backend.PeerDisconnectedNotify(tc.RemotePeerID(), nil)
}

func (s *brokerService) Stop() error {
	s.backend.Dispose(s.cancel)
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if err := s.dedup.Close(); err != nil {
		s.logger.Warn("dedup index close failed", "err", err)
	}
	if err := s.store.Dispose(); err != nil {
		s.logger.Warn("chunk store dispose failed", "err", err)
	}
	return nil
}
