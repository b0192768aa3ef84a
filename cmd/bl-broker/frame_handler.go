package main

import (
	"context"

	"github.com/ground-x/blmessaging/block"
	"github.com/ground-x/blmessaging/common"
	"github.com/ground-x/blmessaging/common/errs"
	"github.com/ground-x/blmessaging/dispatch"
	"github.com/ground-x/blmessaging/executor"
	"github.com/ground-x/blmessaging/log"
	"github.com/ground-x/blmessaging/storage"
	"github.com/ground-x/blmessaging/transport"
	"github.com/ground-x/blmessaging/wire"
)

// brokerFrameHandler is the transport.FrameHandler installed on every
// accepted connection: it translates a decoded wire.Frame into the
// broker-side operation it names (spec §4.1/§4.2/§4.6/§4.8) — chunk
// storage for Get/Remove/FlushPeerSessions, the async block executor for
// Authentication/ServerState blocks, and a straight dispatch-queue push
// for everything else — then acknowledges asynchronously so a slow
// delivery to one peer never stalls this connection's receive loop.
type brokerFrameHandler struct {
	backend *dispatch.BrokerDispatchBackend
	store   storage.ChunkStore
	dedup   *dispatch.DedupIndex
	pool    *block.Pool
	logger  *log.Logger
}

// sessionID has no dedicated wire field; the frame handler derives one
// from the connection's negotiated remote identity, since common.PeerID
// and common.ChunkID are both opaque 16-byte values. See DESIGN.md,
// "Open Question decisions", for this convention.
func sessionIDFor(c *transport.Connection) common.ChunkID {
	remote := c.RemotePeerID()
	id, _ := common.ChunkIDFromBytes(remote[:])
	return id
}

func (h *brokerFrameHandler) HandleFrame(c *transport.Connection, f wire.Frame, payload *block.Block) error {
	switch f.ControlCode {
	case wire.Put:
		return h.handlePut(c, f, payload)
	case wire.Get:
		return h.handleGet(c, f)
	case wire.Remove:
		return h.handleRemove(c, f)
	case wire.FlushPeerSessions:
		return h.handleFlushPeerSessions(c, f)
	case wire.GetProtocolVersion, wire.SetProtocolVersion, wire.GetDataBlockSize:
		h.sendAck(c, f, nil)
		return nil
	default:
		h.logger.Warn("unhandled control code", "controlCode", f.ControlCode)
		return nil
	}
}

// handlePut routes Authentication and ServerState blocks through the
// async block executor (spec §4.8's operationId table); Normal and
// TransferOnly blocks are persisted then pushed straight onto the
// target peer's dispatch queue, bypassing the executor entirely since
// its CreateTask has no "not mine" passthrough for those block types.
func (h *brokerFrameHandler) handlePut(c *transport.Connection, f wire.Frame, payload *block.Block) error {
	sessionID := sessionIDFor(c)

	switch f.Data.BlockType {
	case wire.Authentication:
		task := h.backend.Dispatch(int32(executor.AuthenticateClient), int32(f.ControlCode), sessionID, f.ChunkID, c.RemotePeerID(), f.PeerID, f, payload)
		h.ackAsync(c, f, task)
		return nil
	case wire.ServerState:
		task := h.backend.Dispatch(int32(executor.GetServerState), int32(f.ControlCode), sessionID, f.ChunkID, c.RemotePeerID(), f.PeerID, f, payload)
		h.ackAsync(c, f, task)
		return nil
	default:
		if seen, err := h.dedup.Seen(f.PeerID, f.ChunkID); err == nil && seen {
			h.sendAck(c, f, nil)
			return nil
		}
		if err := h.store.Save(sessionID, f.ChunkID, payload); err != nil {
			h.sendAck(c, f, err)
			return nil
		}
		if err := h.dedup.MarkSeen(f.PeerID, f.ChunkID); err != nil {
			h.logger.Warn("dedup mark failed", "err", err)
		}
		task := h.backend.CreateDispatchTask(f.PeerID, f, payload)
		h.ackAsync(c, f, task)
		return nil
	}
}

func (h *brokerFrameHandler) handleGet(c *transport.Connection, f wire.Frame) error {
	sessionID := sessionIDFor(c)
	blk := h.pool.Get()
	err := h.store.Load(sessionID, f.ChunkID, blk)
	reply := f
	if err != nil {
		h.pool.Put(blk)
		h.sendAck(c, f, err)
		return nil
	}
	if sendErr := c.SendBlock(c.RemotePeerID(), replyFrame(reply), blk, func(sendErr error) {
		h.pool.Put(blk)
		if sendErr != nil {
			h.logger.Warn("get reply delivery failed", "err", sendErr)
		}
	}); sendErr != nil {
		h.pool.Put(blk)
		return sendErr
	}
	return nil
}

func (h *brokerFrameHandler) handleRemove(c *transport.Connection, f wire.Frame) error {
	sessionID := sessionIDFor(c)
	err := h.store.Remove(sessionID, f.ChunkID)
	h.sendAck(c, f, err)
	return nil
}

func (h *brokerFrameHandler) handleFlushPeerSessions(c *transport.Connection, f wire.Frame) error {
	err := h.store.FlushPeerSessions(f.PeerID)
	h.sendAck(c, f, err)
	return nil
}

// ackAsync waits on a dispatch task in its own goroutine and sends the
// resulting ack frame once it completes, so HandleFrame never blocks
// this connection's single recvLoop on another connection's delivery.
func (h *brokerFrameHandler) ackAsync(c *transport.Connection, f wire.Frame, task *dispatch.Task) {
	go func() {
		err := task.Wait(context.Background())
		h.sendAck(c, f, err)
	}()
}

func (h *brokerFrameHandler) sendAck(c *transport.Connection, f wire.Frame, err error) {
	ack := replyFrame(f)
	ack.Flags |= wire.FlagAck
	if err != nil {
		ack.Flags |= wire.FlagErr
		ack.ErrorCode = errorCodeOf(err)
	}
	if sendErr := c.SendBlock(c.RemotePeerID(), ack, nil, nil); sendErr != nil {
		h.logger.Warn("ack delivery failed", "controlCode", f.ControlCode, "err", sendErr)
	}
}

// replyFrame builds the outbound frame for f, addressed back to the
// peer that sent it and tagged with its own chunk id for correlation.
func replyFrame(f wire.Frame) wire.Frame {
	return wire.Frame{
		ControlCode: f.ControlCode,
		PeerID:      f.PeerID,
		ChunkID:     f.ChunkID,
		Data:        f.Data,
	}
}

// errorCodeOf extracts the POSIX-style error code carried by an *errs.Error,
// defaulting to a generic nonzero value for anything else so the ack's
// FlagErr is never set with a zero ErrorCode.
func errorCodeOf(err error) int32 {
	if se, ok := err.(*errs.Error); ok && se.ErrorCode != 0 {
		return se.ErrorCode
	}
	return -1
}
