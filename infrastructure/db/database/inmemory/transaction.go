package inmemory

import (
	"github.com/pkg/errors"

	"github.com/tos-network/tosdag/infrastructure/db/database"
)

// transaction accumulates writes in a batch and applies them to the
// database atomically on Commit. Reads are served from a snapshot
// taken at Begin, so writes made within the transaction are not
// visible to its own reads. This matches the leveldb driver.
type transaction struct {
	db           *InMemoryDatabase
	snapshot     map[string][]byte
	batchPuts    map[string][]byte
	batchDeletes map[string]struct{}
	isClosed     bool
}

// Begin begins a new transaction.
func (db *InMemoryDatabase) Begin() (database.Transaction, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	if db.isClosed {
		return nil, errors.New("cannot begin a transaction on a closed database")
	}

	snapshot := make(map[string][]byte, len(db.data))
	for key, value := range db.data {
		snapshot[key] = value
	}

	return &transaction{
		db:           db,
		snapshot:     snapshot,
		batchPuts:    make(map[string][]byte),
		batchDeletes: make(map[string]struct{}),
	}, nil
}

// Commit commits whatever changes were made to the database
// within this transaction.
func (tx *transaction) Commit() error {
	if tx.isClosed {
		return errors.New("cannot commit a closed transaction")
	}
	tx.isClosed = true

	tx.db.mutex.Lock()
	defer tx.db.mutex.Unlock()

	if tx.db.isClosed {
		return errors.New("cannot commit a transaction on a closed database")
	}

	for key, value := range tx.batchPuts {
		tx.db.data[key] = value
	}
	for key := range tx.batchDeletes {
		delete(tx.db.data, key)
	}
	return nil
}

// Rollback rolls back whatever changes were made to the
// database within this transaction.
func (tx *transaction) Rollback() error {
	if tx.isClosed {
		return errors.New("cannot rollback a closed transaction")
	}
	tx.isClosed = true
	tx.batchPuts = nil
	tx.batchDeletes = nil
	return nil
}

// RollbackUnlessClosed rolls back changes that were made to
// the database within the transaction, unless the transaction
// had already been closed using either Rollback or Commit.
func (tx *transaction) RollbackUnlessClosed() error {
	if tx.isClosed {
		return nil
	}
	return tx.Rollback()
}

// Put sets the value for the given key. It overwrites
// any previous value for that key.
func (tx *transaction) Put(key *database.Key, value []byte) error {
	if tx.isClosed {
		return errors.New("cannot put into a closed transaction")
	}

	keyString := string(key.Bytes())
	tx.batchPuts[keyString] = cloneBytes(value)
	delete(tx.batchDeletes, keyString)
	return nil
}

// Get gets the value for the given key. It returns
// ErrNotFound if the given key does not exist.
func (tx *transaction) Get(key *database.Key) ([]byte, error) {
	if tx.isClosed {
		return nil, errors.New("cannot get from a closed transaction")
	}

	value, ok := tx.snapshot[string(key.Bytes())]
	if !ok {
		return nil, errors.Wrapf(database.ErrNotFound,
			"key %s not found", key)
	}
	return cloneBytes(value), nil
}

// Has returns true if the database does contain the
// given key.
func (tx *transaction) Has(key *database.Key) (bool, error) {
	if tx.isClosed {
		return false, errors.New("cannot has from a closed transaction")
	}

	_, ok := tx.snapshot[string(key.Bytes())]
	return ok, nil
}

// Delete deletes the value for the given key. Will not
// return an error if the key doesn't exist.
func (tx *transaction) Delete(key *database.Key) error {
	if tx.isClosed {
		return errors.New("cannot delete from a closed transaction")
	}

	keyString := string(key.Bytes())
	delete(tx.batchPuts, keyString)
	tx.batchDeletes[keyString] = struct{}{}
	return nil
}
