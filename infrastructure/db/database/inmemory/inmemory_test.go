package inmemory

import (
	"bytes"
	"testing"

	"github.com/tos-network/tosdag/infrastructure/db/database"
)

var testBucket = database.MakeBucket([]byte("test"))

func TestPutGetDelete(t *testing.T) {
	db := New()
	defer db.Close()

	key := testBucket.Key([]byte("key"))
	value := []byte("value")

	has, err := db.Has(key)
	if err != nil {
		t.Fatalf("Has: %s", err)
	}
	if has {
		t.Fatalf("Has reported a key that was never put")
	}

	err = db.Put(key, value)
	if err != nil {
		t.Fatalf("Put: %s", err)
	}

	returnedValue, err := db.Get(key)
	if err != nil {
		t.Fatalf("Get: %s", err)
	}
	if !bytes.Equal(returnedValue, value) {
		t.Fatalf("Get: got %x, want %x", returnedValue, value)
	}

	err = db.Delete(key)
	if err != nil {
		t.Fatalf("Delete: %s", err)
	}

	_, err = db.Get(key)
	if !database.IsNotFoundError(err) {
		t.Fatalf("Get after Delete: got %+v, want not-found", err)
	}
}

func TestGetReturnsCopies(t *testing.T) {
	db := New()
	defer db.Close()

	key := testBucket.Key([]byte("key"))
	value := []byte("value")
	err := db.Put(key, value)
	if err != nil {
		t.Fatalf("Put: %s", err)
	}

	returnedValue, err := db.Get(key)
	if err != nil {
		t.Fatalf("Get: %s", err)
	}
	returnedValue[0] ^= 0xff

	returnedValueAgain, err := db.Get(key)
	if err != nil {
		t.Fatalf("Get: %s", err)
	}
	if !bytes.Equal(returnedValueAgain, value) {
		t.Fatalf("mutating a returned value changed the stored value")
	}
}

func TestTransactionCommit(t *testing.T) {
	db := New()
	defer db.Close()

	key := testBucket.Key([]byte("key"))
	value := []byte("value")

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("Begin: %s", err)
	}
	defer tx.RollbackUnlessClosed()

	err = tx.Put(key, value)
	if err != nil {
		t.Fatalf("Put: %s", err)
	}

	// The write must not be visible before the commit.
	has, err := db.Has(key)
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

	returnedValue, err := db.Get(key)
	if err != nil {
		t.Fatalf("Get after Commit: %s", err)
	}
	if !bytes.Equal(returnedValue, value) {
		t.Fatalf("Get after Commit: got %x, want %x", returnedValue, value)
	}
}

func TestTransactionRollback(t *testing.T) {
	db := New()
	defer db.Close()

	key := testBucket.Key([]byte("key"))

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("Begin: %s", err)
	}

	err = tx.Put(key, []byte("value"))
	if err != nil {
		t.Fatalf("Put: %s", err)
	}

	err = tx.Rollback()
	if err != nil {
		t.Fatalf("Rollback: %s", err)
	}

	has, err := db.Has(key)
	if err != nil {
		t.Fatalf("Has: %s", err)
	}
	if has {
		t.Fatalf("rolled-back write is visible in the database")
	}

	err = tx.Commit()
	if err == nil {
		t.Fatalf("Commit after Rollback unexpectedly succeeded")
	}
}

func TestTransactionSnapshotReads(t *testing.T) {
	db := New()
	defer db.Close()

	key := testBucket.Key([]byte("key"))
	before := []byte("before")
	after := []byte("after")

	err := db.Put(key, before)
	if err != nil {
		t.Fatalf("Put: %s", err)
	}

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("Begin: %s", err)
	}
	defer tx.RollbackUnlessClosed()

	err = db.Put(key, after)
	if err != nil {
		t.Fatalf("Put: %s", err)
	}

	// Reads are served from the snapshot taken at Begin.
	returnedValue, err := tx.Get(key)
	if err != nil {
		t.Fatalf("Get: %s", err)
	}
	if !bytes.Equal(returnedValue, before) {
		t.Fatalf("Get inside transaction: got %x, want snapshot value %x", returnedValue, before)
	}
}

func TestAccessAfterClose(t *testing.T) {
	db := New()

	key := testBucket.Key([]byte("key"))
	err := db.Put(key, []byte("value"))
	if err != nil {
		t.Fatalf("Put: %s", err)
	}

	err = db.Close()
	if err != nil {
		t.Fatalf("Close: %s", err)
	}

	if err := db.Put(key, []byte("value")); err == nil {
		t.Errorf("Put on a closed database unexpectedly succeeded")
	}
	if _, err := db.Get(key); err == nil {
		t.Errorf("Get on a closed database unexpectedly succeeded")
	}
	if _, err := db.Begin(); err == nil {
		t.Errorf("Begin on a closed database unexpectedly succeeded")
	}
}
