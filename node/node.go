// Package node provides the broker process's lifecycle container: a
// shared block pool and peer queue registry, a persisted local peer
// id, and a service registry modeled on the teacher's own
// ServiceContext/Service pattern (node/service.go), scaled down from
// P2P-protocol-plus-RPC-API registration to the simpler Start/Stop
// contract this broker's constituent subsystems (storage, dispatch,
// forwarding, gateway) actually need.
package node

import (
	"errors"
	"reflect"
	"sync"

	"github.com/ground-x/blmessaging/block"
	"github.com/ground-x/blmessaging/common"
	"github.com/ground-x/blmessaging/log"
	"github.com/ground-x/blmessaging/queue"
)

// ErrServiceUnknown is returned by Service when no constructor
// registered a value assignable to the requested type.
var ErrServiceUnknown = errors.New("node: unknown service")

// Service is a subsystem the node owns the lifecycle of. Unlike the
// teacher's Service, there is no Protocols()/APIs() surface: this
// broker has no pluggable wire protocol or JSON-RPC layer to publish,
// only start/stop ordering to honor.
type Service interface {
	Start() error
	Stop() error
}

// ServiceConstructor builds a Service given the node's shared
// resources, mirroring the teacher's ServiceConstructor signature.
type ServiceConstructor func(ctx *ServiceContext) (Service, error)

// ServiceContext exposes the resources a service constructor needs:
// the resolved config, the shared pool and queue registry, and the
// node's own persisted identity.
type ServiceContext struct {
	Config   Config
	Pool     *block.Pool
	Registry *queue.Registry
	PeerID   common.PeerID

	services map[reflect.Type]Service
}

// Service retrieves a running service of a specific type into the
// pointer passed in, following the teacher's reflect-by-pointer idiom.
func (ctx *ServiceContext) Service(service interface{}) error {
	element := reflect.ValueOf(service).Elem()
	if running, ok := ctx.services[element.Type()]; ok {
		element.Set(reflect.ValueOf(running))
		return nil
	}
	return ErrServiceUnknown
}

// Node owns process-wide lifecycle: it constructs the shared pool and
// registry once, resolves (or mints and persists) this process's peer
// id, and starts/stops every registered service in registration order
// (reverse order on stop), matching the teacher's own node.Start/
// node.Stop sequencing.
type Node struct {
	cfg Config

	logger      *log.Logger
	peerIDStore *PeerIDStore

	pool     *block.Pool
	registry *queue.Registry
	peerID   common.PeerID

	mu           sync.Mutex
	constructors []ServiceConstructor
	services     []Service
	serviceTypes map[reflect.Type]Service
	started      bool
}

// New builds a Node from cfg. It does not open any persistent state or
// mint a peer id until Start is called, matching the teacher's
// construct-then-start split.
func New(cfg Config) *Node {
	return &Node{
		cfg:          cfg,
		logger:       log.New("node"),
		serviceTypes: make(map[reflect.Type]Service),
	}
}

// Register queues a service constructor to run at Start. Order is
// preserved; services are stopped in the reverse order they started.
func (n *Node) Register(constructor ServiceConstructor) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.constructors = append(n.constructors, constructor)
}

// Start resolves the node's peer id (persisting a freshly minted one
// if cfg.DataDir is non-empty and none exists yet), builds the shared
// pool and registry, and starts every registered service in order. If
// any service fails to start, the services already started are
// stopped before Start returns the error.
func (n *Node) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.started {
		return errors.New("node: already started")
	}

	peerID, err := n.resolvePeerID()
	if err != nil {
		return err
	}
	n.peerID = peerID

	n.pool = block.NewPool(n.cfg.PoolCapacity, n.cfg.PoolSlots, n.cfg.SecureBlocks)
	n.registry = queue.NewRegistry()

	ctx := &ServiceContext{
		Config:   n.cfg,
		Pool:     n.pool,
		Registry: n.registry,
		PeerID:   n.peerID,
		services: n.serviceTypes,
	}

	for _, constructor := range n.constructors {
		svc, err := constructor(ctx)
		if err != nil {
			n.stopLocked()
			return err
		}
		if err := svc.Start(); err != nil {
			n.stopLocked()
			return err
		}
		n.services = append(n.services, svc)
		n.serviceTypes[reflect.TypeOf(svc)] = svc
	}

	n.started = true
	n.logger.Info("node: started", "peerId", n.peerID.String(), "services", len(n.services))
	return nil
}

func (n *Node) resolvePeerID() (common.PeerID, error) {
	if n.cfg.DataDir == "" {
		return common.NewPeerID()
	}
	store, err := OpenPeerIDStore(n.cfg.DataDir)
	if err != nil {
		return common.ZeroPeerID, err
	}
	n.peerIDStore = store
	return store.LoadOrCreate()
}

// Stop stops every started service in reverse order and closes the
// peer-id store, if one was opened.
func (n *Node) Stop() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stopLocked()
}

func (n *Node) stopLocked() error {
	var firstErr error
	for i := len(n.services) - 1; i >= 0; i-- {
		if err := n.services[i].Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	n.services = nil
	n.serviceTypes = make(map[reflect.Type]Service)
	if n.peerIDStore != nil {
		if err := n.peerIDStore.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		n.peerIDStore = nil
	}
	n.started = false
	return firstErr
}

// PeerID returns the node's resolved identity. Valid only after Start.
func (n *Node) PeerID() common.PeerID { return n.peerID }

// Pool returns the shared block pool. Valid only after Start.
func (n *Node) Pool() *block.Pool { return n.pool }

// Registry returns the shared peer queue registry. Valid only after Start.
func (n *Node) Registry() *queue.Registry { return n.registry }
