// Package executor implements the async block executor from spec §4.8:
// the default dispatch.ProcessingBackend a broker installs when it has
// no custom authorization/processing backend of its own. It owns the
// operationId dispatch table (Alloc, SecureAlloc, SecureDiscard,
// AuthenticateClient, GetServerState, Command) and a pool of reusable
// operation states, grounded on block.Pool's acquire/release idiom and
// the teacher's node/cn/peer.go switch-on-message-code dispatch shape.
package executor

import (
	"syscall"

	pborman "github.com/pborman/uuid"

	"github.com/ground-x/blmessaging/block"
	"github.com/ground-x/blmessaging/common"
	"github.com/ground-x/blmessaging/common/errs"
	"github.com/ground-x/blmessaging/dispatch"
	"github.com/ground-x/blmessaging/log"
	"github.com/ground-x/blmessaging/wire"
)

// NewSessionID mints a fresh session correlation id for a caller
// assembling a CreateTask call that has none of its own (e.g. a
// connection handling a bare Get with no prior session context). Kept
// on a distinct generator (pborman/uuid) from the peer-id and chunk-id
// generators in package common, matching this repo's one-generator-per-
// identity-concern convention.
func NewSessionID() common.ChunkID {
	var id common.ChunkID
	copy(id[:], pborman.NewUUID())
	return id
}

// Operation is the operationId spec §4.8's dispatch table is keyed on.
type Operation int32

const (
	Alloc Operation = iota
	SecureAlloc
	SecureDiscard
	AuthenticateClient
	GetServerState
	Command
)

// AuthenticateFunc is the installed authentication callback; nil means
// "not supported" per the operation table.
type AuthenticateFunc func(blk *block.Block) error

// ServerStateFunc is the installed server-state callback.
type ServerStateFunc func(blk *block.Block) error

// Backend is the async block executor. It is a dispatch.ProcessingBackend:
// a broker installs it (directly, or chained in front of an
// application-specific one) so every control operationId is handled
// uniformly. It handles only the operationIds in this table: a task
// created for any other operationId aborts the process when it runs.
type Backend struct {
	pool *block.Pool

	authenticate AuthenticateFunc
	serverState  ServerStateFunc

	logger *log.Logger
}

// New builds an executor backend over pool. authenticate and
// serverState may be nil; the operation table reports
// function-not-supported when invoked without one installed.
func New(pool *block.Pool, authenticate AuthenticateFunc, serverState ServerStateFunc) *Backend {
	return &Backend{
		pool:         pool,
		authenticate: authenticate,
		serverState:  serverState,
		logger:       log.New("executor"),
	}
}

// AutoBlockDispatching reports false: every operation this backend
// handles is self-contained (it never needs the broker to additionally
// deliver the block to a target peer's queue), per spec §4.2's
// dispatching protocol ("otherwise return the processing task as-is").
func (b *Backend) AutoBlockDispatching() bool { return false }

// Alloc acquires a pooled block without filling it. Exposed directly
// (in addition to being reachable as an operationId) for call sites
// that need the resulting block back synchronously, such as a
// connection building a Get response — a dispatch.Task only carries an
// error, so the allocate-and-return-me-the-block operations are not
// expressible purely through CreateTask.
func (b *Backend) Alloc() *block.Block { return b.pool.Get() }

// SecureAlloc allocates then memsets the full capacity to the secure
// fill byte.
func (b *Backend) SecureAlloc() *block.Block {
	blk := b.pool.Get()
	blk.SecureDiscard()
	return blk
}

// SecureDiscard requires blk to be present and memsets its capacity to
// the secure fill byte.
func (b *Backend) SecureDiscard(blk *block.Block) error {
	if blk == nil {
		return errs.WithCode(errs.ProtocolFailure, "executor: SecureDiscard requires a block", int32(syscall.EINVAL))
	}
	blk.SecureDiscard()
	return nil
}

// AuthenticateClientBlock invokes the installed authentication callback.
func (b *Backend) AuthenticateClientBlock(blk *block.Block) error {
	if blk == nil {
		return errs.WithCode(errs.ProtocolFailure, "executor: AuthenticateClient requires a block", int32(syscall.EINVAL))
	}
	if b.authenticate == nil {
		return errs.WithCode(errs.AuthorizationFailure, "executor: no authentication callback installed", int32(syscall.ENOSYS))
	}
	return b.authenticate(blk)
}

// GetServerStateBlock allocates blk if missing and invokes the
// installed server-state callback, returning the (possibly freshly
// allocated) block the caller should use.
func (b *Backend) GetServerStateBlock(blk *block.Block) (*block.Block, error) {
	if blk == nil {
		blk = b.pool.Get()
	}
	if b.serverState == nil {
		return blk, errs.WithCode(errs.ServerFailure, "executor: no server-state callback installed", int32(syscall.ENOSYS))
	}
	return blk, b.serverState(blk)
}

// Command dispatches on commandID: FlushPeerSessions and Remove are
// accepted as no-ops (the storage plane handles them elsewhere); any
// other value is a programmer error and aborts the process per spec §7.
func (b *Backend) Command(commandID int32) error {
	switch wire.ControlCode(commandID) {
	case wire.FlushPeerSessions, wire.Remove:
		return nil
	default:
		b.logger.Fatal("executor: unknown command passed to Command operation", "commandID", commandID)
		return nil
	}
}

// CreateTask runs operationID against data synchronously and returns an
// already-completed dispatch.Task, satisfying dispatch.ProcessingBackend.
// It is the entry point for error-signaling operations (SecureDiscard,
// AuthenticateClient, Command); Alloc/SecureAlloc/GetServerState are
// also reachable here for completeness but callers that need the
// resulting block should use the direct methods above instead.
func (b *Backend) CreateTask(operationID, commandID int32, sessionID, chunkID common.ChunkID, sourcePeerID, targetPeerID common.PeerID, data *block.Block) (*dispatch.Task, error) {
	st := acquireState()
	defer releaseState(b.pool, st)

	st.operation = Operation(operationID)
	st.commandID = commandID
	st.sessionID = sessionID
	st.chunkID = chunkID
	st.sourcePeerID = sourcePeerID
	st.targetPeerID = targetPeerID
	st.block = data

	task := dispatch.NewTask()
	task.Complete(b.run(st))
	return task, nil
}

func (b *Backend) run(st *state) error {
	switch st.operation {
	case Alloc:
		if st.block == nil {
			st.block = b.Alloc()
		}
		return nil
	case SecureAlloc:
		if st.block == nil {
			st.block = b.SecureAlloc()
		}
		return nil
	case SecureDiscard:
		return b.SecureDiscard(st.block)
	case AuthenticateClient:
		return b.AuthenticateClientBlock(st.block)
	case GetServerState:
		blk, err := b.GetServerStateBlock(st.block)
		st.block = blk
		return err
	case Command:
		return b.Command(st.commandID)
	default:
		b.logger.Fatal("executor: unknown operationId", "operationID", st.operation)
		return nil
	}
}
