package node

import (
	"path/filepath"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/errors"

	"github.com/ground-x/blmessaging/common"
)

// peerIDKey is the sole key this store ever writes: the one-key store
// spec §3's "persistable if caller supplies one" describes for the
// process's own identity.
var peerIDKey = []byte("peerid")

// PeerIDStore persists this process's peer id across restarts in a
// single-key leveldb database, grounded on storage/database/
// leveldb_database.go's open-with-corruption-recovery idiom.
type PeerIDStore struct {
	db *leveldb.DB
}

// OpenPeerIDStore opens (creating if absent) the peer-id database at
// <datadir>/peerid.
func OpenPeerIDStore(dataDir string) (*PeerIDStore, error) {
	path := filepath.Join(dataDir, "peerid")
	db, err := leveldb.OpenFile(path, nil)
	if _, corrupted := err.(*errors.ErrCorrupted); corrupted {
		db, err = leveldb.RecoverFile(path, nil)
	}
	if err != nil {
		return nil, err
	}
	return &PeerIDStore{db: db}, nil
}

// Load returns the stored peer id, or ok=false if none has been saved.
func (s *PeerIDStore) Load() (id common.PeerID, ok bool, err error) {
	raw, err := s.db.Get(peerIDKey, nil)
	if err == leveldb.ErrNotFound {
		return common.ZeroPeerID, false, nil
	}
	if err != nil {
		return common.ZeroPeerID, false, err
	}
	id, err = common.PeerIDFromBytes(raw)
	if err != nil {
		return common.ZeroPeerID, false, err
	}
	return id, true, nil
}

// Save persists id, overwriting any previously stored value.
func (s *PeerIDStore) Save(id common.PeerID) error {
	return s.db.Put(peerIDKey, id[:], nil)
}

// LoadOrCreate returns the persisted peer id, minting and saving a
// fresh one via common.NewPeerID on first run.
func (s *PeerIDStore) LoadOrCreate() (common.PeerID, error) {
	if id, ok, err := s.Load(); err != nil {
		return common.ZeroPeerID, err
	} else if ok {
		return id, nil
	}
	id, err := common.NewPeerID()
	if err != nil {
		return common.ZeroPeerID, err
	}
	if err := s.Save(id); err != nil {
		return common.ZeroPeerID, err
	}
	return id, nil
}

// Close releases the underlying leveldb handle.
func (s *PeerIDStore) Close() error {
	return s.db.Close()
}
