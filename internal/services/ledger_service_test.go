// internal/services/ledger_service_test.go
package services

import (
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/relicense/ledger-backend/internal/models"
	"github.com/relicense/ledger-backend/internal/store"
)

func newTestEventService() *EventService {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewEventService(nil, logger)
}

func testMetadata(name string) models.AssetMetadata {
	return models.AssetMetadata{
		Name:          name,
		ContentURI:    "https://cdn.example.com/content/" + name,
		Checksum:      "c31d9f3e",
		UnitPrice:     50,
		CommissionBps: 1000,
	}
}

type LedgerServiceTestSuite struct {
	suite.Suite
	store    *store.MemoryStore
	ledger   *LedgerService
	producer models.AccountID
	other    models.AccountID
}

func (suite *LedgerServiceTestSuite) SetupTest() {
	suite.store = store.NewMemoryStore()
	suite.ledger = NewLedgerService(suite.store, newTestEventService())
	suite.producer = uuid.New()
	suite.other = uuid.New()
}

func (suite *LedgerServiceTestSuite) TestMintCreatesAssetAndHolder() {
	result, err := suite.ledger.Mint(suite.producer, &MintRequest{
		Metadata: testMetadata("poster"),
		Amount:   100,
	})
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.AssetID(1), result.AssetID)
	assert.Equal(suite.T(), models.HolderID(1), result.HolderID)
	assert.NotEmpty(suite.T(), result.Hash)

	holder, err := suite.ledger.GetHolder(result.HolderID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), uint64(100), holder.Amount)
	assert.Equal(suite.T(), uint64(100), holder.Remaining)

	supply, err := suite.ledger.TotalSupply(result.AssetID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), uint64(100), supply)
}

func (suite *LedgerServiceTestSuite) TestMintZeroAmountRejected() {
	_, err := suite.ledger.Mint(suite.producer, &MintRequest{
		Metadata: testMetadata("poster"),
		Amount:   0,
	})
	assert.ErrorIs(suite.T(), err, models.ErrNotEnoughAmount)
}

func (suite *LedgerServiceTestSuite) TestMintSameMetadataCoalesces() {
	first, err := suite.ledger.Mint(suite.producer, &MintRequest{
		Metadata: testMetadata("poster"),
		Amount:   60,
	})
	assert.NoError(suite.T(), err)

	second, err := suite.ledger.Mint(suite.producer, &MintRequest{
		Metadata: testMetadata("poster"),
		Amount:   40,
	})
	assert.NoError(suite.T(), err)

	// Same asset, same holder line, grown in place.
	assert.Equal(suite.T(), first.AssetID, second.AssetID)
	assert.Equal(suite.T(), first.HolderID, second.HolderID)

	holder, _ := suite.ledger.GetHolder(first.HolderID)
	assert.Equal(suite.T(), uint64(100), holder.Amount)

	supply, _ := suite.ledger.TotalSupply(first.AssetID)
	assert.Equal(suite.T(), uint64(100), supply)
}

func (suite *LedgerServiceTestSuite) TestMintSameMetadataDifferentAccounts() {
	first, err := suite.ledger.Mint(suite.producer, &MintRequest{
		Metadata: testMetadata("poster"),
		Amount:   60,
	})
	assert.NoError(suite.T(), err)

	second, err := suite.ledger.Mint(suite.other, &MintRequest{
		Metadata: testMetadata("poster"),
		Amount:   40,
	})
	assert.NoError(suite.T(), err)

	// One asset, but each account has its own line.
	assert.Equal(suite.T(), first.AssetID, second.AssetID)
	assert.NotEqual(suite.T(), first.HolderID, second.HolderID)

	supply, _ := suite.ledger.TotalSupply(first.AssetID)
	assert.Equal(suite.T(), uint64(100), supply)
}

func (suite *LedgerServiceTestSuite) TestMintDistinctMetadataDistinctAssets() {
	first, _ := suite.ledger.Mint(suite.producer, &MintRequest{
		Metadata: testMetadata("poster"),
		Amount:   10,
	})
	second, _ := suite.ledger.Mint(suite.producer, &MintRequest{
		Metadata: testMetadata("single"),
		Amount:   10,
	})
	assert.NotEqual(suite.T(), first.AssetID, second.AssetID)
	assert.NotEqual(suite.T(), first.HolderID, second.HolderID)
}

func (suite *LedgerServiceTestSuite) TestFirstWriterWinsOnUnitPrice() {
	metadata := testMetadata("poster")
	first, _ := suite.ledger.Mint(suite.producer, &MintRequest{Metadata: metadata, Amount: 10})

	// A later mint with a different price but identical identity fields
	// binds to the stored metadata.
	repriced := metadata
	repriced.UnitPrice = 999
	second, err := suite.ledger.Mint(suite.other, &MintRequest{Metadata: repriced, Amount: 5})
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), first.AssetID, second.AssetID)

	stored, _ := suite.ledger.GetAsset(first.AssetID)
	assert.Equal(suite.T(), uint64(50), stored.UnitPrice)
}

func (suite *LedgerServiceTestSuite) TestMintToRecipient() {
	result, err := suite.ledger.Mint(suite.producer, &MintRequest{
		Metadata:  testMetadata("poster"),
		Amount:    30,
		Recipient: &suite.other,
	})
	assert.NoError(suite.T(), err)

	holders, _ := suite.ledger.ListHolders(suite.other)
	assert.Len(suite.T(), holders, 1)
	assert.Equal(suite.T(), result.HolderID, holders[0].HolderID)

	holders, _ = suite.ledger.ListHolders(suite.producer)
	assert.Empty(suite.T(), holders)
}

func (suite *LedgerServiceTestSuite) TestListHolders() {
	suite.ledger.Mint(suite.producer, &MintRequest{Metadata: testMetadata("poster"), Amount: 10})
	suite.ledger.Mint(suite.producer, &MintRequest{Metadata: testMetadata("single"), Amount: 20})

	holders, err := suite.ledger.ListHolders(suite.producer)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), holders, 2)

	holders, err = suite.ledger.ListHolders(suite.other)
	assert.NoError(suite.T(), err)
	assert.Empty(suite.T(), holders)
}

func (suite *LedgerServiceTestSuite) TestLookupsReportNotFound() {
	_, err := suite.ledger.GetAsset(42)
	assert.ErrorIs(suite.T(), err, models.ErrAssetNotFound)

	_, err = suite.ledger.GetHolder(42)
	assert.ErrorIs(suite.T(), err, models.ErrHolderNotFound)

	_, err = suite.ledger.TotalSupply(42)
	assert.ErrorIs(suite.T(), err, models.ErrAssetNotFound)
}

func TestLedgerServiceSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}
