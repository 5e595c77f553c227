// Package inmemory provides a map-backed database implementation.
// It implements the same transactional semantics as the leveldb
// driver and is meant for tests and ephemeral tooling.
package inmemory

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/tos-network/tosdag/infrastructure/db/database"
)

// InMemoryDatabase is a database fully held in memory. Values
// survive only as long as the process does.
type InMemoryDatabase struct {
	mutex    sync.RWMutex
	data     map[string][]byte
	isClosed bool
}

// New returns a new, empty in-memory database.
func New() *InMemoryDatabase {
	return &InMemoryDatabase{
		data: make(map[string][]byte),
	}
}

// Put sets the value for the given key. It overwrites
// any previous value for that key.
func (db *InMemoryDatabase) Put(key *database.Key, value []byte) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	if db.isClosed {
		return errors.New("cannot put into a closed database")
	}

	db.data[string(key.Bytes())] = cloneBytes(value)
	return nil
}

// Get gets the value for the given key. It returns
// ErrNotFound if the given key does not exist.
func (db *InMemoryDatabase) Get(key *database.Key) ([]byte, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	if db.isClosed {
		return nil, errors.New("cannot get from a closed database")
	}

	value, ok := db.data[string(key.Bytes())]
	if !ok {
		return nil, errors.Wrapf(database.ErrNotFound,
			"key %s not found", key)
	}
	return cloneBytes(value), nil
}

// Has returns true if the database does contain the
// given key.
func (db *InMemoryDatabase) Has(key *database.Key) (bool, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	if db.isClosed {
		return false, errors.New("cannot has from a closed database")
	}

	_, ok := db.data[string(key.Bytes())]
	return ok, nil
}

// Delete deletes the value for the given key. Will not
// return an error if the key doesn't exist.
func (db *InMemoryDatabase) Delete(key *database.Key) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	if db.isClosed {
		return errors.New("cannot delete from a closed database")
	}

	delete(db.data, string(key.Bytes()))
	return nil
}

// Compact is a no-op for the in-memory database.
func (db *InMemoryDatabase) Compact() error {
	return nil
}

// Close closes the database. Any further access fails.
func (db *InMemoryDatabase) Close() error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	db.isClosed = true
	db.data = nil
	return nil
}

func cloneBytes(value []byte) []byte {
	clone := make([]byte, len(value))
	copy(clone, value)
	return clone
}
