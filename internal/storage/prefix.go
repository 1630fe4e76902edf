package storage

// PrefixDB wraps a DB and prepends a fixed prefix to all keys.
// The block store uses it to keep each network's data apart inside one
// underlying database.
type PrefixDB struct {
	inner  DB
	prefix []byte
}

// NewPrefixDB creates a new PrefixDB wrapping inner with the given prefix.
func NewPrefixDB(inner DB, prefix []byte) *PrefixDB {
	return &PrefixDB{inner: inner, prefix: cloneBytes(prefix)}
}

// prefixed returns key with the prefix prepended.
func (p *PrefixDB) prefixed(key []byte) []byte {
	out := make([]byte, len(p.prefix)+len(key))
	copy(out, p.prefix)
	copy(out[len(p.prefix):], key)
	return out
}

// Get retrieves a value by key.
func (p *PrefixDB) Get(key []byte) ([]byte, error) {
	return p.inner.Get(p.prefixed(key))
}

// Put stores a key-value pair.
func (p *PrefixDB) Put(key, value []byte) error {
	return p.inner.Put(p.prefixed(key), value)
}

// Delete removes a key.
func (p *PrefixDB) Delete(key []byte) error {
	return p.inner.Delete(p.prefixed(key))
}

// Has checks if a key exists.
func (p *PrefixDB) Has(key []byte) (bool, error) {
	return p.inner.Has(p.prefixed(key))
}

// ForEach iterates over keys with the given prefix inside the namespace.
// The callback receives keys with the namespace prefix stripped.
func (p *PrefixDB) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	return p.inner.ForEach(p.prefixed(prefix), func(key, value []byte) error {
		return fn(key[len(p.prefix):], value)
	})
}

// DeleteAll removes every key in the namespace.
func (p *PrefixDB) DeleteAll() error {
	// Collect all keys first to avoid modifying during iteration.
	var keys [][]byte
	err := p.inner.ForEach(p.prefix, func(key, _ []byte) error {
		keys = append(keys, cloneBytes(key))
		return nil
	})
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := p.inner.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// Close is a no-op; the inner DB manages its own lifecycle.
func (p *PrefixDB) Close() error {
	return nil
}

// NewBatch returns a batch that prefixes every key. It is atomic when the
// inner DB supports batches and applied write by write otherwise.
func (p *PrefixDB) NewBatch() Batch {
	if batcher, ok := p.inner.(Batcher); ok {
		return &prefixBatch{inner: batcher.NewBatch(), db: p}
	}
	return &sequentialBatch{db: p}
}

type prefixBatch struct {
	inner Batch
	db    *PrefixDB
}

func (pb *prefixBatch) Put(key, value []byte) error {
	return pb.inner.Put(pb.db.prefixed(key), value)
}

func (pb *prefixBatch) Delete(key []byte) error {
	return pb.inner.Delete(pb.db.prefixed(key))
}

func (pb *prefixBatch) Commit() error {
	return pb.inner.Commit()
}

func (pb *prefixBatch) Discard() {
	pb.inner.Discard()
}

// sequentialBatch buffers writes and replays them one by one on Commit.
type sequentialBatch struct {
	db  DB
	ops []batchOp
}

func (sb *sequentialBatch) Put(key, value []byte) error {
	v := cloneBytes(value)
	if v == nil {
		v = []byte{}
	}
	sb.ops = append(sb.ops, batchOp{key: string(key), value: v})
	return nil
}

func (sb *sequentialBatch) Delete(key []byte) error {
	sb.ops = append(sb.ops, batchOp{key: string(key)})
	return nil
}

func (sb *sequentialBatch) Commit() error {
	for _, op := range sb.ops {
		var err error
		if op.value == nil {
			err = sb.db.Delete([]byte(op.key))
		} else {
			err = sb.db.Put([]byte(op.key), op.value)
		}
		if err != nil {
			return err
		}
	}
	sb.ops = nil
	return nil
}

func (sb *sequentialBatch) Discard() {
	sb.ops = nil
}
