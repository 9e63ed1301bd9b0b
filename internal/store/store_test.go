// internal/store/store_test.go
package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type MemoryStoreTestSuite struct {
	suite.Suite
	store *MemoryStore
}

func (suite *MemoryStoreTestSuite) SetupTest() {
	suite.store = NewMemoryStore()
}

func (suite *MemoryStoreTestSuite) TestPutGetDelete() {
	type record struct {
		Name string `json:"name"`
	}

	err := suite.store.Update(func(tx Tx) error {
		return tx.Put(NSAssets, "1", &record{Name: "poster"})
	})
	assert.NoError(suite.T(), err)

	var out record
	err = suite.store.View(func(tx Tx) error {
		found, err := tx.Get(NSAssets, "1", &out)
		assert.True(suite.T(), found)
		return err
	})
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "poster", out.Name)

	err = suite.store.Update(func(tx Tx) error {
		return tx.Delete(NSAssets, "1")
	})
	assert.NoError(suite.T(), err)

	suite.store.View(func(tx Tx) error {
		found, err := tx.Get(NSAssets, "1", &out)
		assert.False(suite.T(), found)
		return err
	})
}

func (suite *MemoryStoreTestSuite) TestNextIDMonotonic() {
	var ids []uint64
	err := suite.store.Update(func(tx Tx) error {
		for i := 0; i < 5; i++ {
			id, err := tx.NextID(CounterAssets)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), []uint64{1, 2, 3, 4, 5}, ids)

	// Counters are independent per name.
	suite.store.Update(func(tx Tx) error {
		id, err := tx.NextID(CounterHolders)
		assert.Equal(suite.T(), uint64(1), id)
		return err
	})
}

func (suite *MemoryStoreTestSuite) TestUpdateRollsBackOnError() {
	boom := errors.New("boom")

	suite.store.Update(func(tx Tx) error {
		return tx.Put(NSHolders, "1", map[string]uint64{"amount": 10})
	})

	err := suite.store.Update(func(tx Tx) error {
		if err := tx.Put(NSHolders, "1", map[string]uint64{"amount": 3}); err != nil {
			return err
		}
		if err := tx.Put(NSHolders, "2", map[string]uint64{"amount": 7}); err != nil {
			return err
		}
		if _, err := tx.NextID(CounterHolders); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(suite.T(), err, boom)

	suite.store.View(func(tx Tx) error {
		var out map[string]uint64
		found, _ := tx.Get(NSHolders, "1", &out)
		assert.True(suite.T(), found)
		assert.Equal(suite.T(), uint64(10), out["amount"])

		found, _ = tx.Get(NSHolders, "2", &out)
		assert.False(suite.T(), found)
		return nil
	})

	// The aborted NextID must not have consumed the value.
	suite.store.Update(func(tx Tx) error {
		id, err := tx.NextID(CounterHolders)
		assert.Equal(suite.T(), uint64(1), id)
		return err
	})
}

func (suite *MemoryStoreTestSuite) TestViewRejectsWrites() {
	err := suite.store.View(func(tx Tx) error {
		return tx.Put(NSAssets, "1", "nope")
	})
	assert.Error(suite.T(), err)

	err = suite.store.View(func(tx Tx) error {
		_, err := tx.NextID(CounterAssets)
		return err
	})
	assert.Error(suite.T(), err)
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreTestSuite))
}
