package storage

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/cp"
	mmap "github.com/edsrzf/mmap-go"

	"github.com/ground-x/blmessaging/block"
	"github.com/ground-x/blmessaging/common"
	"github.com/ground-x/blmessaging/common/errs"
	"github.com/ground-x/blmessaging/log"
)

// recordHeaderSize is chunkId(16) + pos(8) + size(4) + flags(1), per
// spec §4.6.
const recordHeaderSize = common.IDSize + 8 + 4 + 1

const flagDeleted = 1 << 0

type recordHeader struct {
	chunkID common.ChunkID
	pos     int64
	size    uint32
	flags   uint8
}

func encodeHeader(h recordHeader) []byte {
	buf := make([]byte, recordHeaderSize)
	copy(buf[0:common.IDSize], h.chunkID[:])
	binary.BigEndian.PutUint64(buf[common.IDSize:], uint64(h.pos))
	binary.BigEndian.PutUint32(buf[common.IDSize+8:], h.size)
	buf[common.IDSize+12] = h.flags
	return buf
}

func decodeHeader(buf []byte) (recordHeader, error) {
	var h recordHeader
	if len(buf) < recordHeaderSize {
		return h, errs.New(errs.ProtocolFailure, "storage: truncated record header")
	}
	copy(h.chunkID[:], buf[0:common.IDSize])
	h.pos = int64(binary.BigEndian.Uint64(buf[common.IDSize:]))
	h.size = binary.BigEndian.Uint32(buf[common.IDSize+8:])
	h.flags = buf[common.IDSize+12]
	return h, nil
}

// SingleFileStore is the append-only, single-descriptor variant of spec
// §4.6: all chunks live in one <root>/chunks/data.bin file, a live
// in-memory index maps chunk id to its header, and both reads and
// writes serialize behind one mutex because they share the file
// descriptor. Header scanning reuses github.com/edsrzf/mmap-go to read
// the bootstrap pass from a mapped view instead of repeated seeks.
type SingleFileStore struct {
	path string

	mu     sync.Mutex
	f      *os.File
	index  map[common.ChunkID]recordHeader
	cursor int64

	fsync  bool
	logger *log.Logger
}

func dataFilePath(root string) string { return filepath.Join(chunksDir(root), "data.bin") }

// OpenSingleFileStore opens (creating if absent) the append log and
// replays its header chain into memory. fsyncEnabled selects the Open
// Question decision #4 policy: when true, fsync after every header
// rewrite and append.
func OpenSingleFileStore(root string, fsyncEnabled bool) (*SingleFileStore, error) {
	dir := chunksDir(root)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("storage: failed to create chunk dir %s: %w", dir, err)
	}
	path := dataFilePath(root)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to open %s: %w", path, err)
	}

	s := &SingleFileStore{
		path:   path,
		f:      f,
		index:  make(map[common.ChunkID]recordHeader),
		fsync:  fsyncEnabled,
		logger: log.New("storage.singlefile"),
	}
	if err := s.scan(); err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

// scan replays the header chain on open, per spec §4.6: each header's
// pos must equal the cursor, and each record must fit within the file.
// Format errors abort the process, matching the single-file variant's
// documented failure mode.
func (s *SingleFileStore) scan() error {
	info, err := s.f.Stat()
	if err != nil {
		return fmt.Errorf("storage: failed to stat %s: %w", s.path, err)
	}
	size := info.Size()
	if size == 0 {
		return nil
	}

	m, err := mmap.Map(s.f, mmap.RDONLY, 0)
	if err != nil {
		return fmt.Errorf("storage: failed to mmap %s: %w", s.path, err)
	}
	defer m.Unmap()

	var cursor int64
	for cursor < size {
		if cursor+recordHeaderSize > size {
			s.logger.Fatal("single-file chunk store: truncated header at end of file", "path", s.path, "cursor", cursor)
		}
		h, err := decodeHeader(m[cursor : cursor+recordHeaderSize])
		if err != nil {
			s.logger.Fatal("single-file chunk store: corrupt header", "path", s.path, "err", err)
		}
		if h.pos != cursor {
			s.logger.Fatal("single-file chunk store: header pos mismatch", "path", s.path, "expected", cursor, "got", h.pos)
		}
		recordEnd := cursor + recordHeaderSize + int64(h.size)
		if recordEnd > size {
			s.logger.Fatal("single-file chunk store: record exceeds file bounds", "path", s.path, "recordEnd", recordEnd, "size", size)
		}
		if h.flags&flagDeleted == 0 {
			s.index[h.chunkID] = h
		} else {
			delete(s.index, h.chunkID)
		}
		cursor = recordEnd
	}
	s.cursor = cursor
	return nil
}

func (s *SingleFileStore) maybeSync() {
	if s.fsync {
		_ = s.f.Sync()
	}
}

// Save marks any prior live record for chunkID as deleted, then appends
// a fresh header+payload record at end-of-file, per spec §4.6.
func (s *SingleFileStore) Save(sessionID, chunkID common.ChunkID, blk *block.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prior, ok := s.index[chunkID]; ok {
		if err := s.markDeletedLocked(prior); err != nil {
			return errs.WithChunk(errs.ServerFailure, "storage: failed to delete prior record", chunkID, err)
		}
	}

	h := recordHeader{chunkID: chunkID, pos: s.cursor, size: uint32(blk.Size())}
	record := append(encodeHeader(h), blk.Data()...)
	if _, err := s.f.WriteAt(record, s.cursor); err != nil {
		return errs.WithChunk(errs.ServerFailure, "storage: failed to append record", chunkID, err)
	}
	s.maybeSync()

	s.index[chunkID] = h
	s.cursor += int64(len(record))
	return nil
}

func (s *SingleFileStore) markDeletedLocked(h recordHeader) error {
	h.flags |= flagDeleted
	if _, err := s.f.WriteAt(encodeHeader(h), h.pos); err != nil {
		return err
	}
	s.maybeSync()
	return nil
}

// Load validates size <= blk.Capacity() and sets blk.Size/Offset1.
func (s *SingleFileStore) Load(sessionID, chunkID common.ChunkID, blk *block.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.index[chunkID]
	if !ok {
		return errs.WithChunk(errs.ChunkNotFound, "storage: chunk not found", chunkID, nil)
	}
	if int(h.size) > blk.Capacity() {
		return errs.WithChunk(errs.ProtocolFailure, "storage: chunk exceeds block capacity", chunkID, nil)
	}
	payload := blk.Bytes()[:h.size]
	if _, err := s.f.ReadAt(payload, h.pos+recordHeaderSize); err != nil {
		return errs.WithChunk(errs.ServerFailure, "storage: failed to read record", chunkID, err)
	}
	blk.SetSize(int(h.size))
	blk.SetOffset1(0)
	return nil
}

// Remove marks chunkID's header as deleted and drops the in-memory entry.
func (s *SingleFileStore) Remove(sessionID, chunkID common.ChunkID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.index[chunkID]
	if !ok {
		return errs.WithChunk(errs.ChunkNotFound, "storage: chunk not found", chunkID, nil)
	}
	if err := s.markDeletedLocked(h); err != nil {
		return errs.WithChunk(errs.ServerFailure, "storage: failed to mark record deleted", chunkID, err)
	}
	delete(s.index, chunkID)
	return nil
}

func (s *SingleFileStore) FlushPeerSessions(peerID common.PeerID) error { return nil }

func (s *SingleFileStore) Dispose() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

// SnapshotTo atomically copies data.bin to dst via github.com/cespare/cp,
// an operator-invoked backup hook independent of load/save/remove
// semantics (SPEC_FULL.md §2).
func (s *SingleFileStore) SnapshotTo(dst string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cp.CopyFile(dst, s.path)
}
