package chain

import (
	"errors"
	"testing"

	"github.com/gscnet/blockcore/internal/storage"
	"github.com/gscnet/blockcore/pkg/block"
	"github.com/gscnet/blockcore/pkg/crypto"
	"github.com/gscnet/blockcore/pkg/types"
)

func testBlock(t *testing.T, number int64, parent types.Hash) *block.Block {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	blk := block.New(1700000000000+number, parent, number, key.Address(),
		[][]byte{[]byte("tx-a"), []byte("tx-b"), {byte(number)}})
	blk.FinalizeMerkleRoot()
	if err := blk.Sign(key.Serialize()); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return blk
}

func TestBlockStore_PutGet(t *testing.T) {
	bs := NewBlockStore(storage.NewMemory())
	blk := testBlock(t, 1, types.Hash{})

	if err := bs.Put(blk); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := bs.Get(blk.ID())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.IdentityHash() != blk.IdentityHash() {
		t.Errorf("identity hash = %s, want %s", got.IdentityHash(), blk.IdentityHash())
	}
	if got.State() != block.StateSigned {
		t.Errorf("state = %s, want signed", got.State())
	}
	ok, err := got.ValidateSignature()
	if err != nil || !ok {
		t.Errorf("ValidateSignature = %v, %v", ok, err)
	}

	has, err := bs.Has(blk.ID())
	if err != nil || !has {
		t.Errorf("Has = %v, %v", has, err)
	}
}

func TestBlockStore_GetMissing(t *testing.T) {
	bs := NewBlockStore(storage.NewMemory())
	if _, err := bs.Get(types.Hash{0x01}); !errors.Is(err, ErrBlockNotFound) {
		t.Errorf("Get missing error = %v, want ErrBlockNotFound", err)
	}
	if _, err := bs.GetByNumber(5); !errors.Is(err, ErrBlockNotFound) {
		t.Errorf("GetByNumber missing error = %v, want ErrBlockNotFound", err)
	}
}

func TestBlockStore_PutUnfinalized(t *testing.T) {
	bs := NewBlockStore(storage.NewMemory())
	blk := block.New(1, types.Hash{}, 1, types.Address{}, [][]byte{[]byte("x")})
	if err := bs.Put(blk); !errors.Is(err, block.ErrRootNotFinalized) {
		t.Errorf("Put unfinalized error = %v, want ErrRootNotFinalized", err)
	}
}

func TestBlockStore_NumberIndexAndTip(t *testing.T) {
	bs := NewBlockStore(storage.NewMemory())

	if _, _, ok, err := bs.Tip(); err != nil || ok {
		t.Fatalf("empty store Tip ok=%v err=%v", ok, err)
	}

	b1 := testBlock(t, 1, types.Hash{})
	b2 := testBlock(t, 2, b1.ID())
	b3 := testBlock(t, 3, b2.ID())
	for _, b := range []*block.Block{b1, b3, b2} {
		if err := bs.Put(b); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	got, err := bs.GetByNumber(2)
	if err != nil {
		t.Fatalf("GetByNumber: %v", err)
	}
	if got.ID() != b2.ID() {
		t.Errorf("GetByNumber(2) id = %s, want %s", got.ID(), b2.ID())
	}
	if got.Header().ParentHash != b1.ID() {
		t.Error("parent link not preserved")
	}

	id, number, ok, err := bs.Tip()
	if err != nil || !ok {
		t.Fatalf("Tip ok=%v err=%v", ok, err)
	}
	if id != b3.ID() || number != 3 {
		t.Errorf("Tip = %s/%d, want %s/3", id, number, b3.ID())
	}

	numbers, err := bs.Numbers()
	if err != nil {
		t.Fatalf("Numbers: %v", err)
	}
	want := []int64{1, 2, 3}
	if len(numbers) != len(want) {
		t.Fatalf("Numbers = %v, want %v", numbers, want)
	}
	for i := range want {
		if numbers[i] != want[i] {
			t.Errorf("Numbers[%d] = %d, want %d", i, numbers[i], want[i])
		}
	}
}

func TestBlockStore_CorruptRecord(t *testing.T) {
	db := storage.NewMemory()
	bs := NewBlockStore(db)
	blk := testBlock(t, 4, types.Hash{})
	if err := bs.Put(blk); err != nil {
		t.Fatalf("Put: %v", err)
	}

	key := blockKey(blk.ID())
	record, err := db.Get(key)
	if err != nil {
		t.Fatalf("raw Get: %v", err)
	}

	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{"flipped payload byte", func(r []byte) []byte { r[len(r)-1] ^= 0x01; return r }},
		{"flipped checksum byte", func(r []byte) []byte { r[0] ^= 0x80; return r }},
		{"truncated", func(r []byte) []byte { return r[:10] }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cp := append([]byte(nil), record...)
			db.Put(key, tt.mutate(cp))
			if _, err := bs.Get(blk.ID()); !errors.Is(err, ErrCorruptRecord) {
				t.Errorf("Get error = %v, want ErrCorruptRecord", err)
			}
		})
	}
}

func TestBlockStore_Badger(t *testing.T) {
	dir := t.TempDir()
	db, err := storage.NewBadger(dir)
	if err != nil {
		t.Fatalf("NewBadger: %v", err)
	}
	bs := NewBlockStore(storage.NewPrefixDB(db, []byte("testnet/")))
	blk := testBlock(t, 9, types.Hash{0x42})
	if err := bs.Put(blk); err != nil {
		t.Fatalf("Put: %v", err)
	}
	db.Close()

	db, err = storage.NewBadger(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	bs = NewBlockStore(storage.NewPrefixDB(db, []byte("testnet/")))
	got, err := bs.GetByNumber(9)
	if err != nil {
		t.Fatalf("GetByNumber after reopen: %v", err)
	}
	if got.ID() != blk.ID() {
		t.Errorf("id = %s, want %s", got.ID(), blk.ID())
	}
}

// failingDB hands out batches that fail on the n-th Put.
type failingDB struct {
	storage.DB
	failAt    int
	discarded int
}

func (f *failingDB) NewBatch() storage.Batch {
	return &failingBatch{db: f}
}

type failingBatch struct {
	db   *failingDB
	puts int
}

func (b *failingBatch) Put(key, value []byte) error {
	b.puts++
	if b.puts == b.db.failAt {
		return errors.New("disk full")
	}
	return nil
}

func (b *failingBatch) Delete(key []byte) error { return nil }
func (b *failingBatch) Commit() error           { return nil }
func (b *failingBatch) Discard()                { b.db.discarded++ }

func TestBlockStore_PutDiscardsBatch(t *testing.T) {
	for _, failAt := range []int{0, 1, 2, 3} {
		db := &failingDB{DB: storage.NewMemory(), failAt: failAt}
		bs := NewBlockStore(db)

		err := bs.Put(testBlock(t, 1, types.Hash{}))
		if failAt == 0 && err != nil {
			t.Errorf("Put: %v", err)
		}
		if failAt > 0 && err == nil {
			t.Errorf("failAt=%d: Put should fail", failAt)
		}
		if db.discarded != 1 {
			t.Errorf("failAt=%d: batch discarded %d times, want 1", failAt, db.discarded)
		}
	}
}
