// internal/models/models_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDSet(t *testing.T) {
	var set IDSet

	assert.True(t, set.Add(5))
	assert.True(t, set.Add(1))
	assert.True(t, set.Add(9))
	assert.False(t, set.Add(5), "duplicate insert")

	assert.Equal(t, []uint64{1, 5, 9}, set.IDs, "kept sorted")
	assert.True(t, set.Contains(5))
	assert.False(t, set.Contains(2))

	assert.True(t, set.Remove(5))
	assert.False(t, set.Remove(5))
	assert.Equal(t, []uint64{1, 9}, set.IDs)
	assert.Equal(t, 2, set.Len())
}

func TestMetadataHash(t *testing.T) {
	base := AssetMetadata{
		Name:          "poster",
		ContentURI:    "https://cdn.example.com/content/poster",
		Checksum:      "c31d9f3e",
		UnitPrice:     50,
		CommissionBps: 1000,
	}

	assert.Equal(t, base.Hash(), base.Hash())
	assert.Len(t, base.Hash(), 64)

	// Identity fields change the hash.
	renamed := base
	renamed.Name = "single"
	assert.NotEqual(t, base.Hash(), renamed.Hash())

	recommissioned := base
	recommissioned.CommissionBps = 2000
	assert.NotEqual(t, base.Hash(), recommissioned.Hash())

	// Price and tags do not.
	repriced := base
	repriced.UnitPrice = 999
	repriced.Tags = []string{"music"}
	assert.Equal(t, base.Hash(), repriced.Hash())
}
