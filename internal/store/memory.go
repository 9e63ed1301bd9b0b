// internal/store/memory.go
package store

import (
	"encoding/json"
	"errors"
	"sync"
)

// MemoryStore is an in-process Store used by tests and local development.
// Update takes a snapshot of the touched namespaces and restores it when the
// transaction function fails, giving the same all-or-nothing semantics as
// the database driver.
type MemoryStore struct {
	mu       sync.Mutex
	data     map[string]map[string][]byte
	counters map[string]uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:     make(map[string]map[string][]byte),
		counters: make(map[string]uint64),
	}
}

type memoryTx struct {
	s        *MemoryStore
	readOnly bool
}

var errReadOnlyTx = errors.New("store: write inside read-only transaction")

func (t *memoryTx) Get(ns, key string, out interface{}) (bool, error) {
	bucket, ok := t.s.data[ns]
	if !ok {
		return false, nil
	}
	raw, ok := bucket[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, out)
}

func (t *memoryTx) Put(ns, key string, value interface{}) error {
	if t.readOnly {
		return errReadOnlyTx
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	bucket, ok := t.s.data[ns]
	if !ok {
		bucket = make(map[string][]byte)
		t.s.data[ns] = bucket
	}
	bucket[key] = raw
	return nil
}

func (t *memoryTx) Delete(ns, key string) error {
	if t.readOnly {
		return errReadOnlyTx
	}
	if bucket, ok := t.s.data[ns]; ok {
		delete(bucket, key)
	}
	return nil
}

func (t *memoryTx) NextID(counter string) (uint64, error) {
	if t.readOnly {
		return 0, errReadOnlyTx
	}
	t.s.counters[counter]++
	return t.s.counters[counter], nil
}

func (s *MemoryStore) View(fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&memoryTx{s: s, readOnly: true})
}

func (s *MemoryStore) Update(fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapData := make(map[string]map[string][]byte, len(s.data))
	for ns, bucket := range s.data {
		cp := make(map[string][]byte, len(bucket))
		for k, v := range bucket {
			cp[k] = v
		}
		snapData[ns] = cp
	}
	snapCounters := make(map[string]uint64, len(s.counters))
	for k, v := range s.counters {
		snapCounters[k] = v
	}

	if err := fn(&memoryTx{s: s}); err != nil {
		s.data = snapData
		s.counters = snapCounters
		return err
	}
	return nil
}
