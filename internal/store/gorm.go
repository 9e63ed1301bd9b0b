// internal/store/gorm.go
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KVRecord is one serialized ledger record. The (namespace, key) pair is the
// primary key; values are the JSON form produced at the Tx boundary.
type KVRecord struct {
	Namespace string    `gorm:"primaryKey;size:64"`
	Key       string    `gorm:"primaryKey;size:128;column:record_key"`
	Value     string    `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time `gorm:""`
}

func (KVRecord) TableName() string { return "kv_records" }

// KVCounter backs NextID. Incremented with a single upsert statement so the
// allocation is atomic at the database, not read-increment-write in Go.
type KVCounter struct {
	Name  string `gorm:"primaryKey;size:64"`
	Value int64  `gorm:"not null"`
}

func (KVCounter) TableName() string { return "kv_counters" }

// Migrate creates the store tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&KVRecord{}, &KVCounter{})
}

// GormStore is the PostgreSQL driver for Store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

type gormTx struct {
	tx       *gorm.DB
	readOnly bool
}

func (t *gormTx) Get(ns, key string, out interface{}) (bool, error) {
	var rec KVRecord
	err := t.tx.Where("namespace = ? AND record_key = ?", ns, key).First(&rec).Error
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store get %s/%s: %w", ns, key, err)
	}
	return true, json.Unmarshal([]byte(rec.Value), out)
}

func (t *gormTx) Put(ns, key string, value interface{}) error {
	if t.readOnly {
		return errReadOnlyTx
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	rec := KVRecord{Namespace: ns, Key: key, Value: string(raw)}
	err = t.tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "record_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("store put %s/%s: %w", ns, key, err)
	}
	return nil
}

func (t *gormTx) Delete(ns, key string) error {
	if t.readOnly {
		return errReadOnlyTx
	}
	err := t.tx.Where("namespace = ? AND record_key = ?", ns, key).Delete(&KVRecord{}).Error
	if err != nil {
		return fmt.Errorf("store delete %s/%s: %w", ns, key, err)
	}
	return nil
}

func (t *gormTx) NextID(counter string) (uint64, error) {
	if t.readOnly {
		return 0, errReadOnlyTx
	}
	var value int64
	err := t.tx.Raw(
		`INSERT INTO kv_counters (name, value) VALUES (?, 1)
		 ON CONFLICT (name) DO UPDATE SET value = kv_counters.value + 1
		 RETURNING value`, counter,
	).Scan(&value).Error
	if err != nil {
		return 0, fmt.Errorf("store counter %s: %w", counter, err)
	}
	return uint64(value), nil
}

func (s *GormStore) View(fn func(Tx) error) error {
	return fn(&gormTx{tx: s.db, readOnly: true})
}

func (s *GormStore) Update(fn func(Tx) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{tx: tx})
	})
}
