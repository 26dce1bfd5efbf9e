package store

import (
	"errors"
	"fmt"
	"sort"

	dbm "github.com/tendermint/tm-db"
)

var (
	errKeyEmpty = errors.New("key cannot be empty")
	errValueNil = errors.New("value cannot be nil")
)

/*
The store is the only place application state lives. There are two layers:

  - DB:  the committed key/value database (tm-db).
  - Tx:  a branch over a DB or over another Tx. A Tx buffers writes and
         deletions, sees its own writes first (read-your-writes) and falls back
         to its parent for everything else. Nothing reaches the parent until
         Write is called; Discard drops the buffer.

The application keeps one Tx per block and branches a fresh Tx from it for
every transaction, so a failed transaction leaves no trace and a committed
block is flushed to disk with a single batch.
*/

// Reader is the read side of a key/value store.
type Reader interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	// Iterate calls fn for every key in [start, end) in ascending order until
	// fn returns false. A nil start or end leaves that side unbounded. The
	// key and value passed to fn must not be retained after it returns.
	Iterate(start, end []byte, fn func(key, value []byte) bool) error
}

// KVStore is a readable and writable key/value store.
type KVStore interface {
	Reader
	Set(key, value []byte) error
	Delete(key []byte) error
}

type parent interface {
	Reader
	apply(writes map[string]entry) error
}

type entry struct {
	value   []byte
	deleted bool
}

//-----------------------------------------------------------------------------
// DB

// DB is the committed state, backed by a tm-db database.
type DB struct {
	db dbm.DB
}

var _ Reader = (*DB)(nil)

// NewDB wraps db.
func NewDB(db dbm.DB) *DB {
	return &DB{db: db}
}

// Get implements Reader.
func (s *DB) Get(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, errKeyEmpty
	}
	return s.db.Get(key)
}

// Has implements Reader.
func (s *DB) Has(key []byte) (bool, error) {
	if len(key) == 0 {
		return false, errKeyEmpty
	}
	return s.db.Has(key)
}

// Iterate implements Reader.
func (s *DB) Iterate(start, end []byte, fn func(key, value []byte) bool) error {
	iter, err := s.db.Iterator(start, end)
	if err != nil {
		return err
	}
	defer iter.Close()

	for ; iter.Valid(); iter.Next() {
		if !fn(iter.Key(), iter.Value()) {
			break
		}
	}
	return iter.Error()
}

// Branch opens a transaction on top of the committed state.
func (s *DB) Branch() *Tx {
	return newTx(s)
}

// Close closes the underlying database.
func (s *DB) Close() error {
	return s.db.Close()
}

func (s *DB) apply(writes map[string]entry) error {
	batch := s.db.NewBatch()
	defer batch.Close()

	for _, k := range sortedKeys(writes, nil, nil) {
		e := writes[k]
		var err error
		if e.deleted {
			err = batch.Delete([]byte(k))
		} else {
			err = batch.Set([]byte(k), e.value)
		}
		if err != nil {
			return fmt.Errorf("batch %X: %w", k, err)
		}
	}
	return batch.WriteSync()
}

//-----------------------------------------------------------------------------
// Tx

// Tx is a branch of buffered writes over a parent store. It is not safe for
// concurrent use.
type Tx struct {
	parent parent
	writes map[string]entry
}

var _ KVStore = (*Tx)(nil)

func newTx(p parent) *Tx {
	return &Tx{
		parent: p,
		writes: make(map[string]entry),
	}
}

// Branch opens a nested transaction whose writes land in tx on Write.
func (tx *Tx) Branch() *Tx {
	return newTx(tx)
}

// Get implements Reader.
func (tx *Tx) Get(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, errKeyEmpty
	}
	if e, ok := tx.writes[string(key)]; ok {
		if e.deleted {
			return nil, nil
		}
		return e.value, nil
	}
	return tx.parent.Get(key)
}

// Has implements Reader.
func (tx *Tx) Has(key []byte) (bool, error) {
	v, err := tx.Get(key)
	if err != nil {
		return false, err
	}
	return v != nil, nil
}

// Set implements KVStore. The value is copied.
func (tx *Tx) Set(key, value []byte) error {
	if len(key) == 0 {
		return errKeyEmpty
	}
	if value == nil {
		return errValueNil
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	tx.writes[string(key)] = entry{value: cp}
	return nil
}

// Delete implements KVStore.
func (tx *Tx) Delete(key []byte) error {
	if len(key) == 0 {
		return errKeyEmpty
	}
	tx.writes[string(key)] = entry{deleted: true}
	return nil
}

// Iterate implements Reader. Buffered writes shadow the parent's values and
// buffered deletions hide the parent's keys.
func (tx *Tx) Iterate(start, end []byte, fn func(key, value []byte) bool) error {
	keys := sortedKeys(tx.writes, start, end)
	i := 0
	stopped := false

	// emitBuffered yields the remaining buffered keys, only those below bound
	// when bounded is set.
	emitBuffered := func(bound string, bounded bool) bool {
		for i < len(keys) && (!bounded || keys[i] < bound) {
			k := keys[i]
			i++
			e := tx.writes[k]
			if e.deleted {
				continue
			}
			if !fn([]byte(k), e.value) {
				return false
			}
		}
		return true
	}

	err := tx.parent.Iterate(start, end, func(key, value []byte) bool {
		k := string(key)
		if !emitBuffered(k, true) {
			stopped = true
			return false
		}
		if e, ok := tx.writes[k]; ok {
			i++ // keys[i] == k
			if e.deleted {
				return true
			}
			value = e.value
		}
		if !fn(key, value) {
			stopped = true
			return false
		}
		return true
	})
	if err != nil || stopped {
		return err
	}
	emitBuffered("", false)
	return nil
}

// Write flushes the buffered writes into the parent and resets tx.
func (tx *Tx) Write() error {
	if len(tx.writes) == 0 {
		return nil
	}
	if err := tx.parent.apply(tx.writes); err != nil {
		return err
	}
	tx.writes = make(map[string]entry)
	return nil
}

// Discard drops the buffered writes.
func (tx *Tx) Discard() {
	tx.writes = make(map[string]entry)
}

// Change is one buffered write.
type Change struct {
	Key     []byte
	Value   []byte
	Deleted bool
}

// Bytes encodes the change unambiguously, for hashing.
func (c Change) Bytes() []byte {
	if c.Deleted {
		return mustEncode(string(c.Key), int64(1))
	}
	return mustEncode(string(c.Key), int64(0), string(c.Value))
}

// Changes returns the buffered writes in key order.
func (tx *Tx) Changes() []Change {
	keys := sortedKeys(tx.writes, nil, nil)
	changes := make([]Change, 0, len(keys))
	for _, k := range keys {
		e := tx.writes[k]
		changes = append(changes, Change{Key: []byte(k), Value: e.value, Deleted: e.deleted})
	}
	return changes
}

func (tx *Tx) apply(writes map[string]entry) error {
	for k, e := range writes {
		tx.writes[k] = e
	}
	return nil
}

// sortedKeys returns the keys of writes that fall in [start, end).
func sortedKeys(writes map[string]entry, start, end []byte) []string {
	keys := make([]string, 0, len(writes))
	for k := range writes {
		if start != nil && k < string(start) {
			continue
		}
		if end != nil && k >= string(end) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
