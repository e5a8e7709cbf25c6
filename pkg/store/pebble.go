// Package store is the entity store substrate: an ordered key-value space
// addressed by rendered key paths, with point lookup, prefix range scans,
// atomic multi-key writes and TTL-based expiry, backed by Pebble.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/pebble"

	"chatdb/pkg/logger"
)

// ErrNotFound is returned when a key has no live value (absent or expired).
var ErrNotFound = errors.New("store: not found")

// Reserved namespaces for expiry bookkeeping. '!' sorts before every key
// byte used by entity paths, so entity prefix scans never collide with it.
const (
	expPrefix    = "!exp:"
	ttlIdxPrefix = "!ttlidx:"
)

// Store wraps a Pebble database. All writes that span multiple key paths
// for one logical item go through a single batch commit so a partial write
// is never observable.
type Store struct {
	db   *pebble.DB
	path string

	// now is the store clock; overridable in tests so expiry is
	// deterministic. The same clock feeds write timestamps handed to the
	// entities layer.
	now func() time.Time

	// version is a monotonic write version, seeded from the clock at Open
	// so it keeps increasing across restarts.
	version atomic.Uint64
}

// Open opens (or creates) a Pebble database at the given path.
func Open(path string) (*Store, error) {
	logger.Info("opening_pebble_db", "path", path)
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return nil, err
	}
	s := &Store{db: db, path: path, now: time.Now}
	s.version.Store(uint64(time.Now().UTC().UnixNano()))
	logger.Info("pebble_opened", "path", path)
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return err
	}
	s.db = nil
	logger.Info("pebble_closed", "path", s.path)
	return nil
}

// Ready reports whether the store is opened.
func (s *Store) Ready() bool { return s != nil && s.db != nil }

// SetClock replaces the store clock. Intended for tests that need
// deterministic TTL behavior.
func (s *Store) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Now returns the store clock reading. Entities that must embed a creation
// timestamp in a key path (Document versions) source it here so version
// order stays consistent with write metadata.
func (s *Store) Now() time.Time { return s.now() }

// Get returns the value stored at key, or ErrNotFound when the key is
// absent or its TTL deadline has passed.
func (s *Store) Get(key string) ([]byte, error) {
	if s.db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	opGets.Inc()
	if s.expired(key) {
		return nil, ErrNotFound
	}
	v, closer, err := s.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		opErrors.Inc()
		logger.Error("get_key_failed", "key", key, "error", err)
		return nil, err
	}
	out := append([]byte(nil), v...)
	if closer != nil {
		_ = closer.Close()
	}
	return out, nil
}

// Put writes value under every given key in one atomic batch and returns
// the write version assigned to the batch.
func (s *Store) Put(value []byte, keys []string) (uint64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("pebble not opened; call store.Open first")
	}
	if len(keys) == 0 {
		return 0, fmt.Errorf("put requires at least one key path")
	}
	opPuts.Inc()
	b := s.db.NewBatch()
	defer b.Close()
	for _, k := range keys {
		if err := b.Set([]byte(k), value, nil); err != nil {
			return 0, err
		}
	}
	if err := b.Commit(pebble.Sync); err != nil {
		opErrors.Inc()
		logger.Error("put_failed", "key", keys[0], "paths", len(keys), "error", err)
		return 0, err
	}
	ver := s.version.Add(1)
	logger.Debug("put_ok", "key", keys[0], "paths", len(keys), "version", ver)
	return ver, nil
}

// PutWithTTL is Put plus a store-enforced deletion deadline of now+ttl.
// The deadline is fixed at write time; rewriting the item restarts it only
// because the rewrite is a new creation.
func (s *Store) PutWithTTL(value []byte, keys []string, ttl time.Duration) (uint64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("pebble not opened; call store.Open first")
	}
	if len(keys) == 0 {
		return 0, fmt.Errorf("put requires at least one key path")
	}
	if ttl <= 0 {
		return s.Put(value, keys)
	}
	opPuts.Inc()
	deadline := s.now().UTC().Add(ttl).UnixNano()
	dl := fmt.Sprintf("%020d", deadline)
	b := s.db.NewBatch()
	defer b.Close()
	for _, k := range keys {
		if err := b.Set([]byte(k), value, nil); err != nil {
			return 0, err
		}
		if err := b.Set([]byte(expPrefix+k), []byte(dl), nil); err != nil {
			return 0, err
		}
		if err := b.Set([]byte(ttlIdxPrefix+dl+":"+k), nil, nil); err != nil {
			return 0, err
		}
	}
	if err := b.Commit(pebble.Sync); err != nil {
		opErrors.Inc()
		logger.Error("put_ttl_failed", "key", keys[0], "error", err)
		return 0, err
	}
	ver := s.version.Add(1)
	logger.Debug("put_ttl_ok", "key", keys[0], "deadline_ns", deadline, "version", ver)
	return ver, nil
}

// Mutation is one key change inside an atomic commit. Value is ignored
// when Delete is set.
type Mutation struct {
	Key    string
	Value  []byte
	Delete bool
}

// Commit applies a set of mutations as one batch. Used where a logical
// write spans items with different values (a message append that also
// advances its chat's sequence cursor, a visibility change that re-keys an
// alternate path). Deletes also drop expiry bookkeeping.
func (s *Store) Commit(muts []Mutation) error {
	if s.db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	if len(muts) == 0 {
		return nil
	}
	opPuts.Inc()
	b := s.db.NewBatch()
	defer b.Close()
	for _, m := range muts {
		if m.Delete {
			if err := b.Delete([]byte(m.Key), nil); err != nil {
				return err
			}
			if err := b.Delete([]byte(expPrefix+m.Key), nil); err != nil {
				return err
			}
			continue
		}
		if err := b.Set([]byte(m.Key), m.Value, nil); err != nil {
			return err
		}
	}
	if err := b.Commit(pebble.Sync); err != nil {
		opErrors.Inc()
		logger.Error("commit_failed", "key", muts[0].Key, "mutations", len(muts), "error", err)
		return err
	}
	s.version.Add(1)
	return nil
}

// NextVersion reserves and returns the next write version. Callers that
// must embed the version inside the value they are about to commit reserve
// it up front.
func (s *Store) NextVersion() uint64 { return s.version.Add(1) }

// Delete removes the given keys (and any expiry bookkeeping) atomically.
func (s *Store) Delete(keys []string) error {
	if s.db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	opDeletes.Inc()
	b := s.db.NewBatch()
	defer b.Close()
	for _, k := range keys {
		if err := b.Delete([]byte(k), nil); err != nil {
			return err
		}
		if err := b.Delete([]byte(expPrefix+k), nil); err != nil {
			return err
		}
	}
	if err := b.Commit(pebble.Sync); err != nil {
		opErrors.Inc()
		logger.Error("delete_failed", "key", keys[0], "error", err)
		return err
	}
	return nil
}

// ScanPrefix returns the values of all live keys starting with prefix, in
// key order. An optional limit caps the result count.
func (s *Store) ScanPrefix(prefix string, limit ...int) ([][]byte, error) {
	if s.db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	opScans.Inc()
	max := -1
	if len(limit) > 0 {
		max = limit[0]
	}
	pfx := []byte(prefix)
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out [][]byte
	for iter.SeekGE(pfx); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), pfx) {
			break
		}
		if s.expired(string(iter.Key())) {
			continue
		}
		out = append(out, append([]byte(nil), iter.Value()...))
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out, iter.Error()
}

// ScanPrefixKeys returns the live keys starting with prefix, in key order.
func (s *Store) ScanPrefixKeys(prefix string) ([]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	pfx := []byte(prefix)
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []string
	for iter.SeekGE(pfx); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), pfx) {
			break
		}
		k := string(iter.Key())
		if s.expired(k) {
			continue
		}
		out = append(out, k)
	}
	return out, iter.Error()
}

// PurgeExpired deletes every key whose TTL deadline is at or before the
// store clock, including expiry bookkeeping. Reads already treat expired
// keys as absent; the purge just reclaims the space. Returns the number of
// entity keys removed.
func (s *Store) PurgeExpired() (int, error) {
	if s.db == nil {
		return 0, fmt.Errorf("pebble not opened; call store.Open first")
	}
	cutoff := fmt.Sprintf("%020d", s.now().UTC().UnixNano())
	pfx := []byte(ttlIdxPrefix)
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return 0, err
	}
	defer iter.Close()
	b := s.db.NewBatch()
	defer b.Close()
	var removed int
	for iter.SeekGE(pfx); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), pfx) {
			break
		}
		// index key shape: !ttlidx:<deadline20>:<entity key>
		rest := string(iter.Key()[len(ttlIdxPrefix):])
		if len(rest) < 21 {
			continue
		}
		deadline, key := rest[:20], rest[21:]
		if deadline > cutoff {
			break
		}
		if err := b.Delete([]byte(key), nil); err != nil {
			return removed, err
		}
		if err := b.Delete([]byte(expPrefix+key), nil); err != nil {
			return removed, err
		}
		if err := b.Delete(iter.Key(), nil); err != nil {
			return removed, err
		}
		removed++
	}
	if err := iter.Error(); err != nil {
		return removed, err
	}
	if err := b.Commit(pebble.Sync); err != nil {
		opErrors.Inc()
		return removed, err
	}
	if removed > 0 {
		logger.Info("ttl_purge_done", "removed", removed)
		ttlPurged.Add(float64(removed))
	}
	return removed, nil
}

// expired reports whether key carries a TTL deadline that has passed.
func (s *Store) expired(key string) bool {
	v, closer, err := s.db.Get([]byte(expPrefix + key))
	if err != nil {
		return false
	}
	deadline := string(v)
	if closer != nil {
		_ = closer.Close()
	}
	nowKey := fmt.Sprintf("%020d", s.now().UTC().UnixNano())
	return deadline <= nowKey
}
