// Package dispatch implements the broker dispatch backend (spec §4.2):
// the component that accepts inbound Put frames, optionally runs them
// through a processing backend, and schedules delivery on the target
// peer's outbound queue.
package dispatch

import (
	"context"

	"github.com/ground-x/blmessaging/block"
	"github.com/ground-x/blmessaging/common"
	"github.com/ground-x/blmessaging/common/errs"
	"github.com/ground-x/blmessaging/log"
	"github.com/ground-x/blmessaging/queue"
	"github.com/ground-x/blmessaging/wire"
)

// Task is the result handle for a dispatch operation: it completes once
// the target has acknowledged (or failed) delivery.
type Task struct {
	done chan error
}

func newTask() *Task { return &Task{done: make(chan error, 1)} }

func (t *Task) complete(err error) { t.done <- err }

// NewTask constructs a Task for a ProcessingBackend implementation
// outside this package (e.g. the async block executor) to complete
// itself once its operation finishes.
func NewTask() *Task { return newTask() }

// Complete finishes t with err (nil for success), unblocking any
// pending Wait.
func (t *Task) Complete(err error) { t.complete(err) }

// Wait blocks until the task completes or ctx is done.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case err := <-t.done:
		return err
	case <-ctx.Done():
		return errs.NewExpectedAborted()
	}
}

// ProcessingBackend is the optional in-path stage spec §4.2 allows a
// dispatcher to chain in front of delivery (e.g. authorization).
// CreateTask returns (nil, nil) to mean "not our operation, hand to the
// async wrapper" per spec's nullable-return convention.
type ProcessingBackend interface {
	CreateTask(operationID, commandID int32, sessionID, chunkID common.ChunkID, sourcePeerID, targetPeerID common.PeerID, data *block.Block) (*Task, error)
	AutoBlockDispatching() bool
}

// Dispatcher is the interface the broker-side backend (this package)
// implements. The forwarding client backend does not implement it:
// forwarding.Backend has its own CreateDispatchTask(frame, blk), which
// takes no target peer id, and it has no queue inspection methods.
type Dispatcher interface {
	CreateDispatchTask(targetPeerID common.PeerID, f wire.Frame, blk *block.Block) *Task
	AllActiveQueueIDs() []common.PeerID
	TryGetQueue(peerID common.PeerID) (*queue.Queue, bool)
}

// ConnectNotifier optionally observes peer connect/disconnect events,
// per spec §4.2's peerConnectedNotify/peerDisconnectedNotify hooks.
type ConnectNotifier interface {
	PeerConnected(peerID common.PeerID)
	PeerDisconnected(peerID common.PeerID, cause error)
}

// BrokerDispatchBackend is the broker-side Dispatcher: it owns the peer
// queue registry and an optional chained ProcessingBackend.
type BrokerDispatchBackend struct {
	registry   *queue.Registry
	processing ProcessingBackend
	notifier   ConnectNotifier
	telemetry  *TelemetryPublisher
	logger     *log.Logger
}

// SetTelemetryPublisher installs an optional telemetry sink; nil
// (the default) disables publishing entirely.
func (b *BrokerDispatchBackend) SetTelemetryPublisher(pub *TelemetryPublisher) {
	b.telemetry = pub
}

func NewBrokerDispatchBackend(registry *queue.Registry, processing ProcessingBackend, notifier ConnectNotifier) *BrokerDispatchBackend {
	return &BrokerDispatchBackend{
		registry:   registry,
		processing: processing,
		logger:     log.New("dispatch.broker"),
		notifier:   notifier,
	}
}

// AutoBlockDispatching reports whether this backend auto-forwards after
// an optional processing step; with no processing backend chained,
// dispatch always happens, so this is effectively "is there a reason
// not to."
func (b *BrokerDispatchBackend) AutoBlockDispatching() bool {
	if b.processing == nil {
		return true
	}
	return b.processing.AutoBlockDispatching()
}

// CreateBackendProcessingTask hands off to the chained processing
// backend, if any. A nil, nil return means "not our operation."
func (b *BrokerDispatchBackend) CreateBackendProcessingTask(operationID, commandID int32, sessionID, chunkID common.ChunkID, sourcePeerID, targetPeerID common.PeerID, data *block.Block) (*Task, error) {
	if b.processing == nil {
		return nil, nil
	}
	return b.processing.CreateTask(operationID, commandID, sessionID, chunkID, sourcePeerID, targetPeerID, data)
}

// CreateDispatchTask enqueues blk on targetPeerID's queue and returns a
// task that completes when the target's connection reports the send's
// outcome (spec §4.2).
func (b *BrokerDispatchBackend) CreateDispatchTask(targetPeerID common.PeerID, f wire.Frame, blk *block.Block) *Task {
	t := newTask()
	q, ok := b.registry.TryGet(targetPeerID)
	if !ok {
		t.complete(errs.New(errs.TargetPeerNotFound, "dispatch: no active queue for target peer"))
		return t
	}
	err := q.Push(queue.Entry{
		TargetPeerID: targetPeerID,
		Frame:        f,
		Blk:          blk,
		OnReady:      t.complete,
	})
	if err != nil {
		t.complete(err)
	}
	return t
}

// Dispatch implements the full "dispatching protocol" from spec §4.2:
// run optional processing, then either auto-chain into delivery or
// return the processing task as-is for the processing backend to
// dispatch on its own via host services.
func (b *BrokerDispatchBackend) Dispatch(operationID, commandID int32, sessionID, chunkID common.ChunkID, sourcePeerID, targetPeerID common.PeerID, f wire.Frame, data *block.Block) *Task {
	b.telemetry.publish(dispatchEvent{
		OperationID:  operationID,
		CommandID:    commandID,
		SourcePeerID: sourcePeerID,
		TargetPeerID: targetPeerID,
		ChunkID:      chunkID,
	})

	procTask, err := b.CreateBackendProcessingTask(operationID, commandID, sessionID, chunkID, sourcePeerID, targetPeerID, data)
	if err != nil {
		t := newTask()
		t.complete(err)
		return t
	}
	if procTask == nil {
		return b.CreateDispatchTask(targetPeerID, f, data)
	}
	if !b.AutoBlockDispatching() {
		return procTask
	}
	chained := newTask()
	go func() {
		if err := procTask.Wait(context.Background()); err != nil {
			chained.complete(err)
			return
		}
		dt := b.CreateDispatchTask(targetPeerID, f, data)
		chained.complete(dt.Wait(context.Background()))
	}()
	return chained
}

func (b *BrokerDispatchBackend) AllActiveQueueIDs() []common.PeerID {
	return b.registry.AllActiveIDs()
}

func (b *BrokerDispatchBackend) TryGetQueue(peerID common.PeerID) (*queue.Queue, bool) {
	return b.registry.TryGet(peerID)
}

// PeerConnectedNotify and PeerDisconnectedNotify forward to an optional
// ConnectNotifier; they return false when none is installed so callers
// know to proceed synchronously, matching spec §4.2's contract.
func (b *BrokerDispatchBackend) PeerConnectedNotify(peerID common.PeerID) bool {
	if b.notifier == nil {
		return false
	}
	b.notifier.PeerConnected(peerID)
	return true
}

func (b *BrokerDispatchBackend) PeerDisconnectedNotify(peerID common.PeerID, cause error) bool {
	if b.notifier == nil {
		return false
	}
	b.notifier.PeerDisconnected(peerID, cause)
	return true
}

// Dispose cancels the acceptor task, disposes the processing backend and
// disconnects host-service callbacks, and drains every live queue, per
// spec §4.2's disposal sequence. cancelAcceptor is supplied by the
// caller that owns the listener (bl-broker's brokerService.Stop).
func (b *BrokerDispatchBackend) Dispose(cancelAcceptor context.CancelFunc) {
	if cancelAcceptor != nil {
		cancelAcceptor()
	}
	if closer, ok := b.processing.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			b.logger.Warn("processing backend close failed", "err", err)
		}
	}
	b.notifier = nil
	for _, id := range b.registry.AllActiveIDs() {
		b.registry.Remove(id, errs.NewExpectedAborted())
	}
}
