package storage

import (
	"fmt"
	"hash"
	"hash/fnv"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	fastcache "github.com/VictoriaMetrics/fastcache"
	dircopy "github.com/otiai10/copy"
	"github.com/rjeczalik/notify"
	"github.com/steakknife/bloomfilter"

	"github.com/ground-x/blmessaging/block"
	"github.com/ground-x/blmessaging/common"
	"github.com/ground-x/blmessaging/common/errs"
	"github.com/ground-x/blmessaging/log"
)

const (
	defaultCacheBytes  = 32 * 1024 * 1024
	bloomMaxElements   = 1 << 20
	bloomFalsePositive = 0.001
)

// MultiFileStore persists each chunk as its own file under
// <root>/chunks/<lowercase-uuid>, per spec §4.6. Reads/writes of
// distinct chunks are not serialized against each other (separate file
// handles); only directory-structural operations share a mutex. Opening
// the store bootstraps the chunks directory if absent, grounded on the
// teacher's badgerDB open idiom (storage/database/badger_database.go).
type MultiFileStore struct {
	root string

	mu sync.Mutex

	cache  *fastcache.Cache
	bloom  *bloomfilter.Filter
	watch  chan notify.EventInfo
	logger *log.Logger
}

func chunksDir(root string) string { return filepath.Join(root, "chunks") }

func NewMultiFileStore(root string) (*MultiFileStore, error) {
	dir := chunksDir(root)
	if fi, err := os.Stat(dir); err == nil {
		if !fi.IsDir() {
			return nil, fmt.Errorf("storage: chunk path is not a directory: %s", dir)
		}
	} else if os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("storage: failed to create chunk dir %s: %w", dir, err)
		}
	} else {
		return nil, fmt.Errorf("storage: failed to stat chunk dir %s: %w", dir, err)
	}

	bloom, err := bloomfilter.NewOptimal(bloomMaxElements, bloomFalsePositive)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to build bloom filter: %w", err)
	}

	s := &MultiFileStore{
		root:   root,
		cache:  fastcache.New(defaultCacheBytes),
		bloom:  bloom,
		logger: log.New("storage.multifile"),
		watch:  make(chan notify.EventInfo, 16),
	}
	if err := s.seedBloomFromExisting(dir); err != nil {
		return nil, err
	}
	if err := notify.Watch(dir, s.watch, notify.All); err != nil {
		s.logger.Warn("failed to watch chunk directory", "err", err)
	} else {
		go s.watchLoop()
	}
	return s, nil
}

func (s *MultiFileStore) seedBloomFromExisting(dir string) error {
	entries, err := ioutil.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("storage: failed to list chunk dir %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if id, err := common.ParseChunkID(e.Name()); err == nil {
			s.bloom.Add(chunkHash(id))
		}
	}
	return nil
}

func (s *MultiFileStore) watchLoop() {
	for ev := range s.watch {
		s.logger.Warn("chunk file modified externally", "path", ev.Path(), "event", ev.Event().String())
	}
}

func chunkHash(id common.ChunkID) hash.Hash64 {
	h := fnv.New64a()
	_, _ = h.Write(id[:])
	return fixedHash64(h.Sum64())
}

// fixedHash64 adapts an already-computed uint64 digest to hash.Hash64,
// the input type bloomfilter.Filter's Add/Contains take.
type fixedHash64 uint64

func (fixedHash64) Write(p []byte) (int, error) { return len(p), nil }
func (fixedHash64) Sum(b []byte) []byte         { return b }
func (fixedHash64) Reset()                      {}
func (fixedHash64) Size() int                   { return 8 }
func (fixedHash64) BlockSize() int              { return 8 }
func (h fixedHash64) Sum64() uint64             { return uint64(h) }

func chunkPath(root string, chunkID common.ChunkID) string {
	return filepath.Join(chunksDir(root), chunkID.String())
}

func cacheKey(sessionID, chunkID common.ChunkID) []byte {
	key := make([]byte, 0, common.IDSize*2)
	key = append(key, sessionID[:]...)
	return append(key, chunkID[:]...)
}

// Save atomically (write-to-temp, rename) writes blk's payload to the
// chunk's file.
func (s *MultiFileStore) Save(sessionID, chunkID common.ChunkID, blk *block.Block) error {
	path := chunkPath(s.root, chunkID)
	tmp := path + ".tmp"
	if err := ioutil.WriteFile(tmp, blk.Data(), 0644); err != nil {
		return errs.WithChunk(errs.ServerFailure, "storage: failed to write chunk", chunkID, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errs.WithChunk(errs.ServerFailure, "storage: failed to finalize chunk write", chunkID, err)
	}

	s.mu.Lock()
	s.bloom.Add(chunkHash(chunkID))
	s.mu.Unlock()
	s.cache.Set(cacheKey(sessionID, chunkID), blk.Data())
	return nil
}

// Load validates size <= blk.Capacity() and sets blk.Size/Offset1, per
// spec §4.6.
func (s *MultiFileStore) Load(sessionID, chunkID common.ChunkID, blk *block.Block) error {
	if cached, ok := s.cache.HasGet(nil, cacheKey(sessionID, chunkID)); ok {
		return copyIntoBlock(chunkID, cached, blk)
	}

	s.mu.Lock()
	maybePresent := s.bloom.Contains(chunkHash(chunkID))
	s.mu.Unlock()
	if !maybePresent {
		return errs.WithChunk(errs.ChunkNotFound, "storage: chunk not found", chunkID, nil)
	}

	data, err := ioutil.ReadFile(chunkPath(s.root, chunkID))
	if os.IsNotExist(err) {
		return errs.WithChunk(errs.ChunkNotFound, "storage: chunk not found", chunkID, err)
	}
	if err != nil {
		return errs.WithChunk(errs.ServerFailure, "storage: failed to read chunk", chunkID, err)
	}
	s.cache.Set(cacheKey(sessionID, chunkID), data)
	return copyIntoBlock(chunkID, data, blk)
}

func copyIntoBlock(chunkID common.ChunkID, data []byte, blk *block.Block) error {
	if len(data) > blk.Capacity() {
		return errs.WithChunk(errs.ProtocolFailure, "storage: chunk exceeds block capacity", chunkID, nil)
	}
	copy(blk.Bytes(), data)
	blk.SetSize(len(data))
	blk.SetOffset1(0)
	return nil
}

// Remove deletes the chunk's file. Missing files surface
// *chunk-not-found* per spec §4.6.
func (s *MultiFileStore) Remove(sessionID, chunkID common.ChunkID) error {
	err := os.Remove(chunkPath(s.root, chunkID))
	if os.IsNotExist(err) {
		return errs.WithChunk(errs.ChunkNotFound, "storage: chunk not found", chunkID, err)
	}
	if err != nil {
		return errs.WithChunk(errs.ServerFailure, "storage: failed to remove chunk", chunkID, err)
	}
	s.cache.Del(cacheKey(sessionID, chunkID))
	return nil
}

// FlushPeerSessions is a no-op by default, per spec §4.6: this variant
// is not session-aware.
func (s *MultiFileStore) FlushPeerSessions(peerID common.PeerID) error { return nil }

// Dispose is idempotent; it stops the directory watch.
func (s *MultiFileStore) Dispose() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watch != nil {
		notify.Stop(s.watch)
		s.watch = nil
	}
	return nil
}

// SnapshotTo recursively copies the chunks directory to dst, an
// operator-invoked backup hook (SPEC_FULL.md §2's storage snapshotting
// supplement), independent of load/save/remove semantics.
func (s *MultiFileStore) SnapshotTo(dst string) error {
	return dircopy.Copy(chunksDir(s.root), dst)
}
