package ldb

import (
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	ldbErrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/tos-network/tosdag/infrastructure/db/database"
)

// LevelDB defines a thin wrapper around leveldb.
type LevelDB struct {
	ldb      *leveldb.DB
	fileLock *flock.Flock
}

// NewLevelDB opens a leveldb instance defined by the given path.
// The returned instance holds an exclusive file lock on the
// database directory for as long as it's open.
func NewLevelDB(path string, cacheSizeMiB int) (*LevelDB, error) {
	fileLock := flock.New(filepath.Join(path, "db.lock"))
	locked, err := fileLock.TryLock()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if !locked {
		return nil, errors.Errorf("database at %s is locked by another process", path)
	}

	options := Options()
	options.BlockCacheCapacity = cacheSizeMiB * opt.MiB

	// Open leveldb. If it doesn't exist, create it.
	ldb, err := leveldb.OpenFile(path, options)

	// If the database is corrupted, attempt to recover.
	if _, corrupted := err.(*ldbErrors.ErrCorrupted); corrupted {
		log.Warnf("LevelDB corruption detected for path %s: %s",
			path, err)
		var recoverErr error
		ldb, recoverErr = leveldb.RecoverFile(path, nil)
		if recoverErr != nil {
			unlockErr := fileLock.Unlock()
			if unlockErr != nil {
				log.Errorf("Error unlocking database directory %s: %s", path, unlockErr)
			}
			return nil, errors.Wrapf(err, "failed recovering from leveldb corruption: %s", recoverErr)
		}
		log.Warnf("LevelDB recovered from corruption for path %s", path)
	}

	// If the database cannot be opened for any other
	// reason, return the error as-is.
	if err != nil {
		unlockErr := fileLock.Unlock()
		if unlockErr != nil {
			log.Errorf("Error unlocking database directory %s: %s", path, unlockErr)
		}
		return nil, errors.WithStack(err)
	}

	db := &LevelDB{
		ldb:      ldb,
		fileLock: fileLock,
	}
	return db, nil
}

// Compact compacts the leveldb instance.
func (db *LevelDB) Compact() error {
	err := db.ldb.CompactRange(util.Range{Start: nil, Limit: nil})
	return errors.WithStack(err)
}

// Close closes the leveldb instance and releases the directory lock.
func (db *LevelDB) Close() error {
	err := db.ldb.Close()
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(db.fileLock.Unlock())
}

// Put sets the value for the given key. It overwrites
// any previous value for that key.
func (db *LevelDB) Put(key *database.Key, value []byte) error {
	err := db.ldb.Put(key.Bytes(), value, nil)
	return errors.WithStack(err)
}

// Get gets the value for the given key. It returns
// ErrNotFound if the given key does not exist.
func (db *LevelDB) Get(key *database.Key) ([]byte, error) {
	data, err := db.ldb.Get(key.Bytes(), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, errors.Wrapf(database.ErrNotFound,
				"key %s not found", key)
		}
		return nil, errors.WithStack(err)
	}
	return data, nil
}

// Has returns true if the database does contain the
// given key.
func (db *LevelDB) Has(key *database.Key) (bool, error) {
	exists, err := db.ldb.Has(key.Bytes(), nil)
	if err != nil {
		return false, errors.WithStack(err)
	}
	return exists, nil
}

// Delete deletes the value for the given key. Will not
// return an error if the key doesn't exist.
func (db *LevelDB) Delete(key *database.Key) error {
	err := db.ldb.Delete(key.Bytes(), nil)
	return errors.WithStack(err)
}
