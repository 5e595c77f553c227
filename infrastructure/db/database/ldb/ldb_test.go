package ldb

import (
	"bytes"
	"testing"

	"github.com/tos-network/tosdag/infrastructure/db/database"
)

const testCacheSizeMiB = 8

var testBucket = database.MakeBucket([]byte("test"))

func prepareDatabaseForTest(t *testing.T) *LevelDB {
	t.Helper()

	ldb, err := NewLevelDB(t.TempDir(), testCacheSizeMiB)
	if err != nil {
		t.Fatalf("NewLevelDB: %s", err)
	}
	t.Cleanup(func() {
		err := ldb.Close()
		if err != nil {
			t.Fatalf("Close: %s", err)
		}
	})
	return ldb
}

func TestLevelDBSanity(t *testing.T) {
	ldb := prepareDatabaseForTest(t)

	key := testBucket.Key([]byte("key"))
	value := []byte("value")

	err := ldb.Put(key, value)
	if err != nil {
		t.Fatalf("Put: %s", err)
	}

	returnedValue, err := ldb.Get(key)
	if err != nil {
		t.Fatalf("Get: %s", err)
	}
	if !bytes.Equal(returnedValue, value) {
		t.Fatalf("Get: got %x, want %x", returnedValue, value)
	}

	has, err := ldb.Has(key)
	if err != nil {
		t.Fatalf("Has: %s", err)
	}
	if !has {
		t.Fatalf("Has reported a just-put key as missing")
	}

	err = ldb.Delete(key)
	if err != nil {
		t.Fatalf("Delete: %s", err)
	}
	_, err = ldb.Get(key)
	if !database.IsNotFoundError(err) {
		t.Fatalf("Get after Delete: got %+v, want not-found", err)
	}
}

func TestLevelDBTransactionSanity(t *testing.T) {
	ldb := prepareDatabaseForTest(t)

	key := testBucket.Key([]byte("key"))
	value := []byte("value")

	// Commit path.
	tx, err := ldb.Begin()
	if err != nil {
		t.Fatalf("Begin: %s", err)
	}
	err = tx.Put(key, value)
	if err != nil {
		t.Fatalf("Put: %s", err)
	}

	has, err := ldb.Has(key)
	if err != nil {
		t.Fatalf("Has: %s", err)
	}
	if has {
		t.Fatalf("uncommitted write is visible outside the transaction")
	}

	err = tx.Commit()
	if err != nil {
		t.Fatalf("Commit: %s", err)
	}
	returnedValue, err := ldb.Get(key)
	if err != nil {
		t.Fatalf("Get after Commit: %s", err)
	}
	if !bytes.Equal(returnedValue, value) {
		t.Fatalf("Get after Commit: got %x, want %x", returnedValue, value)
	}

	// Rollback path.
	rolledBackKey := testBucket.Key([]byte("rolled-back-key"))
	tx, err = ldb.Begin()
	if err != nil {
		t.Fatalf("Begin: %s", err)
	}
	err = tx.Put(rolledBackKey, value)
	if err != nil {
		t.Fatalf("Put: %s", err)
	}
	err = tx.Rollback()
	if err != nil {
		t.Fatalf("Rollback: %s", err)
	}
	has, err = ldb.Has(rolledBackKey)
	if err != nil {
		t.Fatalf("Has: %s", err)
	}
	if has {
		t.Fatalf("rolled-back write is visible in the database")
	}
}

func TestLevelDBDirectoryLock(t *testing.T) {
	path := t.TempDir()

	ldb, err := NewLevelDB(path, testCacheSizeMiB)
	if err != nil {
		t.Fatalf("NewLevelDB: %s", err)
	}

	// A second instance over the same directory must fail while the
	// first one still holds the lock.
	_, err = NewLevelDB(path, testCacheSizeMiB)
	if err == nil {
		t.Fatalf("NewLevelDB over a locked directory unexpectedly succeeded")
	}

	err = ldb.Close()
	if err != nil {
		t.Fatalf("Close: %s", err)
	}

	// Closing releases the lock.
	reopened, err := NewLevelDB(path, testCacheSizeMiB)
	if err != nil {
		t.Fatalf("NewLevelDB after Close: %s", err)
	}
	err = reopened.Close()
	if err != nil {
		t.Fatalf("Close: %s", err)
	}
}

func TestLevelDBPersistence(t *testing.T) {
	path := t.TempDir()

	key := testBucket.Key([]byte("key"))
	value := []byte("value")

	ldb, err := NewLevelDB(path, testCacheSizeMiB)
	if err != nil {
		t.Fatalf("NewLevelDB: %s", err)
	}
	err = ldb.Put(key, value)
	if err != nil {
		t.Fatalf("Put: %s", err)
	}
	err = ldb.Close()
	if err != nil {
		t.Fatalf("Close: %s", err)
	}

	reopened, err := NewLevelDB(path, testCacheSizeMiB)
	if err != nil {
		t.Fatalf("NewLevelDB after Close: %s", err)
	}
	defer reopened.Close()

	returnedValue, err := reopened.Get(key)
	if err != nil {
		t.Fatalf("Get after reopening: %s", err)
	}
	if !bytes.Equal(returnedValue, value) {
		t.Fatalf("Get after reopening: got %x, want %x", returnedValue, value)
	}
}
