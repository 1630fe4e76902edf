package storage

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gscnet/blockcore/config"
)

// testDB runs the shared test suite against a DB implementation.
func testDB(t *testing.T, db DB) {
	t.Helper()

	t.Run("PutAndGet", func(t *testing.T) {
		if err := db.Put([]byte("b/1"), []byte("block one")); err != nil {
			t.Fatalf("Put() error: %v", err)
		}
		val, err := db.Get([]byte("b/1"))
		if err != nil {
			t.Fatalf("Get() error: %v", err)
		}
		if !bytes.Equal(val, []byte("block one")) {
			t.Errorf("Get() = %q, want %q", val, "block one")
		}
	})

	t.Run("GetNonexistent", func(t *testing.T) {
		_, err := db.Get([]byte("nonexistent"))
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Get() for missing key error = %v, want ErrNotFound", err)
		}
	})

	t.Run("Has", func(t *testing.T) {
		db.Put([]byte("exists"), []byte("yes"))

		ok, err := db.Has([]byte("exists"))
		if err != nil || !ok {
			t.Errorf("Has(exists) = %v, %v", ok, err)
		}
		ok, err = db.Has([]byte("missing"))
		if err != nil || ok {
			t.Errorf("Has(missing) = %v, %v", ok, err)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		db.Put([]byte("ow"), []byte("first"))
		db.Put([]byte("ow"), []byte("second"))

		val, err := db.Get([]byte("ow"))
		if err != nil {
			t.Fatalf("Get() error: %v", err)
		}
		if !bytes.Equal(val, []byte("second")) {
			t.Errorf("Get() after overwrite = %q, want %q", val, "second")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db.Put([]byte("del"), []byte("value"))
		if err := db.Delete([]byte("del")); err != nil {
			t.Fatalf("Delete() error: %v", err)
		}
		if _, err := db.Get([]byte("del")); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get() after Delete() error = %v, want ErrNotFound", err)
		}
		// Deleting a nonexistent key should not error.
		if err := db.Delete([]byte("never-existed")); err != nil {
			t.Errorf("Delete() nonexistent key error: %v", err)
		}
	})

	t.Run("ValueIsCopied", func(t *testing.T) {
		v := []byte("original")
		db.Put([]byte("copy"), v)
		v[0] = 'X'
		got, _ := db.Get([]byte("copy"))
		if !bytes.Equal(got, []byte("original")) {
			t.Errorf("stored value aliased caller slice: %q", got)
		}
	})

	t.Run("BinaryData", func(t *testing.T) {
		key := []byte{0x00, 0x01, 0xFF}
		value := make([]byte, 256)
		for i := range value {
			value[i] = byte(i)
		}
		if err := db.Put(key, value); err != nil {
			t.Fatalf("Put() binary error: %v", err)
		}
		got, err := db.Get(key)
		if err != nil {
			t.Fatalf("Get() binary error: %v", err)
		}
		if !bytes.Equal(got, value) {
			t.Error("binary roundtrip failed")
		}
	})

	t.Run("ForEachOrdered", func(t *testing.T) {
		db.Put([]byte("n/3"), []byte("c"))
		db.Put([]byte("n/1"), []byte("a"))
		db.Put([]byte("n/2"), []byte("b"))
		db.Put([]byte("other/x"), []byte("z"))

		var got []string
		err := db.ForEach([]byte("n/"), func(key, value []byte) error {
			got = append(got, string(key)+"="+string(value))
			return nil
		})
		if err != nil {
			t.Fatalf("ForEach() error: %v", err)
		}
		want := []string{"n/1=a", "n/2=b", "n/3=c"}
		if len(got) != len(want) {
			t.Fatalf("ForEach(n/) = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("ForEach(n/)[%d] = %s, want %s", i, got[i], want[i])
			}
		}
	})

	t.Run("ForEachStopEarly", func(t *testing.T) {
		stop := errors.New("stop")
		var count int
		err := db.ForEach([]byte("n/"), func(key, value []byte) error {
			count++
			return stop
		})
		if !errors.Is(err, stop) {
			t.Errorf("ForEach() error = %v, want stop", err)
		}
		if count != 1 {
			t.Errorf("callback ran %d times, want 1", count)
		}
	})

	t.Run("Batch", func(t *testing.T) {
		batcher, ok := db.(Batcher)
		if !ok {
			t.Skip("db does not support batches")
		}
		db.Put([]byte("batch/old"), []byte("x"))

		b := batcher.NewBatch()
		b.Put([]byte("batch/a"), []byte("1"))
		b.Put([]byte("batch/b"), []byte("2"))
		b.Delete([]byte("batch/old"))

		if ok, _ := db.Has([]byte("batch/a")); ok {
			t.Error("batch write visible before Commit")
		}
		if err := b.Commit(); err != nil {
			t.Fatalf("Commit() error: %v", err)
		}
		for _, k := range []string{"batch/a", "batch/b"} {
			if ok, _ := db.Has([]byte(k)); !ok {
				t.Errorf("%s missing after Commit", k)
			}
		}
		if ok, _ := db.Has([]byte("batch/old")); ok {
			t.Error("batch delete not applied")
		}
		b.Discard()
		if ok, _ := db.Has([]byte("batch/a")); !ok {
			t.Error("Discard after Commit dropped committed writes")
		}
	})

	t.Run("BatchDiscard", func(t *testing.T) {
		batcher, ok := db.(Batcher)
		if !ok {
			t.Skip("db does not support batches")
		}
		b := batcher.NewBatch()
		if err := b.Put([]byte("discard/a"), []byte("1")); err != nil {
			t.Fatalf("Put() error: %v", err)
		}
		b.Discard()

		if ok, _ := db.Has([]byte("discard/a")); ok {
			t.Error("discarded write is visible")
		}
	})
}

func TestMemoryDB(t *testing.T) {
	db := NewMemory()
	defer db.Close()
	testDB(t, db)
}

func TestBadgerDB(t *testing.T) {
	db, err := NewBadger(t.TempDir())
	if err != nil {
		t.Fatalf("NewBadger() error: %v", err)
	}
	defer db.Close()
	testDB(t, db)
}

func TestBadgerDB_Persistence(t *testing.T) {
	dir := t.TempDir()

	db1, err := NewBadger(dir)
	if err != nil {
		t.Fatalf("NewBadger() error: %v", err)
	}
	db1.Put([]byte("persist"), []byte("data"))
	db1.Close()

	db2, err := NewBadger(dir)
	if err != nil {
		t.Fatalf("NewBadger() reopen error: %v", err)
	}
	defer db2.Close()

	val, err := db2.Get([]byte("persist"))
	if err != nil {
		t.Fatalf("Get() after reopen error: %v", err)
	}
	if !bytes.Equal(val, []byte("data")) {
		t.Errorf("persisted value = %q, want %q", val, "data")
	}
}

func TestBadgerDB_Locked(t *testing.T) {
	dir := t.TempDir()
	db1, err := NewBadger(dir)
	if err != nil {
		t.Fatalf("NewBadger() error: %v", err)
	}
	defer db1.Close()

	if _, err := NewBadger(dir); err == nil {
		t.Error("opening a locked store should fail")
	}
}

func TestOpen(t *testing.T) {
	mem, err := Open(config.StoreConfig{Backend: config.StoreMemory}, "")
	if err != nil {
		t.Fatalf("Open(memory) error: %v", err)
	}
	if _, ok := mem.(*MemoryDB); !ok {
		t.Errorf("Open(memory) = %T, want *MemoryDB", mem)
	}

	bdb, err := Open(config.StoreConfig{Backend: config.StoreBadger}, t.TempDir())
	if err != nil {
		t.Fatalf("Open(badger) error: %v", err)
	}
	defer bdb.Close()
	if _, ok := bdb.(*BadgerDB); !ok {
		t.Errorf("Open(badger) = %T, want *BadgerDB", bdb)
	}

	if _, err := Open(config.StoreConfig{Backend: "leveldb"}, ""); err == nil {
		t.Error("unknown backend should fail")
	}
}
