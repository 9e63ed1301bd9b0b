// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/google/uuid"
)

// AccountID identifies a marketplace participant. Accounts are issued by the
// host's identity layer; the ledger never creates them.
type AccountID = uuid.UUID

// Typed ids for ledger records. Each id is allocated from a monotonic store
// counter and never reused; the decimal string encoding is the persistence
// key for the record.
type (
	AssetID   uint64
	HolderID  uint64
	RequestID uint64
	GrantID   uint64
)

func (id AssetID) Key() string   { return strconv.FormatUint(uint64(id), 10) }
func (id HolderID) Key() string  { return strconv.FormatUint(uint64(id), 10) }
func (id RequestID) Key() string { return strconv.FormatUint(uint64(id), 10) }
func (id GrantID) Key() string   { return strconv.FormatUint(uint64(id), 10) }

// IDSet is a sorted, duplicate-free set of ids used by the ownership and
// workflow indexes. Kept as a slice so it serializes to a stable JSON form.
type IDSet struct {
	IDs []uint64 `json:"ids"`
}

func (s *IDSet) search(id uint64) (int, bool) {
	i := sort.Search(len(s.IDs), func(i int) bool { return s.IDs[i] >= id })
	return i, i < len(s.IDs) && s.IDs[i] == id
}

func (s *IDSet) Contains(id uint64) bool {
	_, ok := s.search(id)
	return ok
}

// Add inserts id keeping the slice sorted; reports whether it was absent.
func (s *IDSet) Add(id uint64) bool {
	i, ok := s.search(id)
	if ok {
		return false
	}
	s.IDs = append(s.IDs, 0)
	copy(s.IDs[i+1:], s.IDs[i:])
	s.IDs[i] = id
	return true
}

// Remove deletes id; reports whether it was present.
func (s *IDSet) Remove(id uint64) bool {
	i, ok := s.search(id)
	if !ok {
		return false
	}
	s.IDs = append(s.IDs[:i], s.IDs[i+1:]...)
	return true
}

func (s *IDSet) Len() int { return len(s.IDs) }

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}
