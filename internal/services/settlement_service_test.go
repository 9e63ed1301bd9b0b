// internal/services/settlement_service_test.go
package services

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/relicense/ledger-backend/internal/models"
	"github.com/relicense/ledger-backend/internal/store"
)

const testPriceWindowMs = 130000

type SettlementServiceTestSuite struct {
	suite.Suite
	store      *store.MemoryStore
	ledger     *LedgerService
	requests   *RequestService
	settlement *SettlementService
	treasury   *LocalTreasury
	oracleKey  ed25519.PrivateKey
	now        time.Time

	producer  models.AccountID
	publisher models.AccountID
	buyer     models.AccountID
	holderID  models.HolderID
	grantID   models.GrantID
}

func (suite *SettlementServiceTestSuite) SetupTest() {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	suite.Require().NoError(err)
	suite.oracleKey = priv
	suite.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	oracle, err := NewOracleService(pub, testPriceWindowMs)
	suite.Require().NoError(err)
	oracle.WithClock(func() time.Time { return suite.now })

	suite.store = store.NewMemoryStore()
	events := newTestEventService()
	suite.treasury = NewLocalTreasury()
	suite.ledger = NewLedgerService(suite.store, events)
	suite.requests = NewRequestService(suite.store, events)
	suite.settlement = NewSettlementService(suite.store, oracle, suite.treasury, events, 100)

	suite.producer = uuid.New()
	suite.publisher = uuid.New()
	suite.buyer = uuid.New()

	result, err := suite.ledger.Mint(suite.producer, &MintRequest{
		Metadata: testMetadata("poster"), // unit price 50, commission 10%
		Amount:   100,
	})
	suite.Require().NoError(err)
	suite.holderID = result.HolderID

	requestID, err := suite.requests.PublishRequest(suite.publisher, &PublishRequestInput{
		HolderID: suite.holderID,
		Producer: suite.producer,
		Amount:   10,
	})
	suite.Require().NoError(err)
	suite.grantID, err = suite.requests.Approve(suite.producer, requestID)
	suite.Require().NoError(err)
}

func (suite *SettlementServiceTestSuite) attestation(ratio uint64, at time.Time) PriceAttestation {
	ts := at.UnixMilli()
	sig := ed25519.Sign(suite.oracleKey, SignedPriceMessage(ratio, ts))
	return PriceAttestation{
		Ratio:       ratio,
		TimestampMs: ts,
		Signature:   hex.EncodeToString(sig),
	}
}

func (suite *SettlementServiceTestSuite) TestBuyMovesUnitsAndFunds() {
	result, err := suite.settlement.Buy(suite.buyer, &BuyRequest{
		GrantID:     suite.grantID,
		Amount:      4,
		Funds:       1000,
		Attestation: suite.attestation(100, suite.now),
	})
	assert.NoError(suite.T(), err)

	// gross = 50 * 100 * 4 / 100 = 200
	// fee = 200 * 100 / 10000 = 2
	// producer = 198 * 1000 / 10000 = 19, reseller = 179
	assert.Equal(suite.T(), uint64(200), result.Split.Gross)
	assert.Equal(suite.T(), uint64(2), result.Split.PlatformFee)
	assert.Equal(suite.T(), uint64(19), result.Split.ProducerShare)
	assert.Equal(suite.T(), uint64(179), result.Split.ResellerShare)
	assert.Equal(suite.T(), uint64(200), result.Split.Total)

	assert.Equal(suite.T(), uint64(19), suite.treasury.Balance(suite.producer))
	assert.Equal(suite.T(), uint64(179), suite.treasury.Balance(suite.publisher))
	assert.Equal(suite.T(), uint64(2), suite.treasury.PlatformBalance())

	// Units left the source line permanently; the reservation stands for
	// the rest of the grant.
	holder, _ := suite.ledger.GetHolder(suite.holderID)
	assert.Equal(suite.T(), uint64(96), holder.Amount)
	assert.Equal(suite.T(), uint64(90), holder.Remaining)

	grant, _ := suite.requests.GetGrant(suite.grantID)
	assert.Equal(suite.T(), uint64(6), grant.Amount)

	bought, _ := suite.ledger.GetHolder(result.HolderID)
	assert.Equal(suite.T(), uint64(4), bought.Amount)
	assert.Equal(suite.T(), uint64(4), bought.Remaining)

	// Minted supply is unchanged by purchases.
	supply, _ := suite.ledger.TotalSupply(bought.AssetID)
	assert.Equal(suite.T(), uint64(100), supply)
}

func (suite *SettlementServiceTestSuite) TestBuyWithShippingAndTax() {
	result, err := suite.settlement.Buy(suite.buyer, &BuyRequest{
		GrantID:     suite.grantID,
		Amount:      4,
		Funds:       208,
		Shipping:    5,
		Tax:         3,
		Attestation: suite.attestation(100, suite.now),
	})
	assert.NoError(suite.T(), err)

	assert.Equal(suite.T(), uint64(208), result.Split.Total)
	assert.Equal(suite.T(), uint64(27), result.Split.ProducerShare) // 19 + 5 + 3
	assert.Equal(suite.T(), uint64(27), suite.treasury.Balance(suite.producer))

	// One unit short must fail before any transfer.
	_, err = suite.settlement.Buy(suite.buyer, &BuyRequest{
		GrantID:     suite.grantID,
		Amount:      4,
		Funds:       207,
		Shipping:    5,
		Tax:         3,
		Attestation: suite.attestation(100, suite.now),
	})
	assert.ErrorIs(suite.T(), err, models.ErrInsufficientFunds)
}

func (suite *SettlementServiceTestSuite) TestBuyCoalescesRepeatPurchases() {
	first, err := suite.settlement.Buy(suite.buyer, &BuyRequest{
		GrantID:     suite.grantID,
		Amount:      3,
		Funds:       1000,
		Attestation: suite.attestation(100, suite.now),
	})
	suite.Require().NoError(err)

	second, err := suite.settlement.Buy(suite.buyer, &BuyRequest{
		GrantID:     suite.grantID,
		Amount:      7,
		Funds:       1000,
		Attestation: suite.attestation(100, suite.now),
	})
	suite.Require().NoError(err)
	assert.Equal(suite.T(), first.HolderID, second.HolderID)

	bought, _ := suite.ledger.GetHolder(first.HolderID)
	assert.Equal(suite.T(), uint64(10), bought.Amount)

	// The grant is drained and leaves the account indexes.
	grant, err := suite.requests.GetGrant(suite.grantID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), uint64(0), grant.Amount)

	reselling, _ := suite.requests.GrantsForPublisher(suite.publisher)
	assert.Empty(suite.T(), reselling)

	_, err = suite.settlement.Buy(suite.buyer, &BuyRequest{
		GrantID:     suite.grantID,
		Amount:      1,
		Funds:       1000,
		Attestation: suite.attestation(100, suite.now),
	})
	assert.ErrorIs(suite.T(), err, models.ErrNotEnoughAmount)
}

func (suite *SettlementServiceTestSuite) TestBuyExceedingGrantRejected() {
	_, err := suite.settlement.Buy(suite.buyer, &BuyRequest{
		GrantID:     suite.grantID,
		Amount:      11,
		Funds:       10000,
		Attestation: suite.attestation(100, suite.now),
	})
	assert.ErrorIs(suite.T(), err, models.ErrNotEnoughAmount)

	_, err = suite.settlement.Buy(suite.buyer, &BuyRequest{
		GrantID:     42,
		Amount:      1,
		Funds:       10000,
		Attestation: suite.attestation(100, suite.now),
	})
	assert.ErrorIs(suite.T(), err, models.ErrGrantNotFound)
}

func (suite *SettlementServiceTestSuite) TestBuyRejectsBadAttestations() {
	// Stale timestamp.
	stale := suite.attestation(100, suite.now.Add(-(testPriceWindowMs+1)*time.Millisecond))
	_, err := suite.settlement.Buy(suite.buyer, &BuyRequest{
		GrantID: suite.grantID, Amount: 1, Funds: 1000, Attestation: stale,
	})
	assert.ErrorIs(suite.T(), err, models.ErrInvalidTimestamp)

	// Future timestamp.
	future := suite.attestation(100, suite.now.Add(time.Second))
	_, err = suite.settlement.Buy(suite.buyer, &BuyRequest{
		GrantID: suite.grantID, Amount: 1, Funds: 1000, Attestation: future,
	})
	assert.ErrorIs(suite.T(), err, models.ErrInvalidTimestamp)

	// Signature over a different ratio.
	tampered := suite.attestation(100, suite.now)
	tampered.Ratio = 1
	_, err = suite.settlement.Buy(suite.buyer, &BuyRequest{
		GrantID: suite.grantID, Amount: 1, Funds: 1000, Attestation: tampered,
	})
	assert.ErrorIs(suite.T(), err, models.ErrInvalidSignature)

	// Garbage signature encoding.
	garbage := suite.attestation(100, suite.now)
	garbage.Signature = "zz"
	_, err = suite.settlement.Buy(suite.buyer, &BuyRequest{
		GrantID: suite.grantID, Amount: 1, Funds: 1000, Attestation: garbage,
	})
	assert.ErrorIs(suite.T(), err, models.ErrInvalidOracleMessage)

	// Nothing reserved, nothing moved.
	assert.Equal(suite.T(), uint64(0), suite.treasury.PlatformBalance())
	grant, _ := suite.requests.GetGrant(suite.grantID)
	assert.Equal(suite.T(), uint64(10), grant.Amount)
}

func (suite *SettlementServiceTestSuite) TestBuyRollsBackOnTransferFailure() {
	suite.treasury.FailAfter = 1 // second transfer fails

	_, err := suite.settlement.Buy(suite.buyer, &BuyRequest{
		GrantID:     suite.grantID,
		Amount:      4,
		Funds:       1000,
		Attestation: suite.attestation(100, suite.now),
	})
	assert.ErrorIs(suite.T(), err, models.ErrTransferFailed)

	// Ledger state is untouched.
	grant, _ := suite.requests.GetGrant(suite.grantID)
	assert.Equal(suite.T(), uint64(10), grant.Amount)

	holder, _ := suite.ledger.GetHolder(suite.holderID)
	assert.Equal(suite.T(), uint64(100), holder.Amount)

	holders, _ := suite.ledger.ListHolders(suite.buyer)
	assert.Empty(suite.T(), holders)
}

func (suite *SettlementServiceTestSuite) TestDirectPay() {
	recipient := uuid.New()
	split, err := suite.settlement.DirectPay(suite.buyer, &DirectPayRequest{
		Recipient: recipient,
		Amount:    10000,
		Shipping:  20,
		Tax:       5,
		Funds:     10025,
	})
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), uint64(100), split.PlatformFee)
	assert.Equal(suite.T(), uint64(9925), split.ProducerShare) // 9900 + 20 + 5
	assert.Equal(suite.T(), uint64(10025), split.Total)
	assert.Equal(suite.T(), uint64(9925), suite.treasury.Balance(recipient))
	assert.Equal(suite.T(), uint64(100), suite.treasury.PlatformBalance())

	_, err = suite.settlement.DirectPay(suite.buyer, &DirectPayRequest{
		Recipient: recipient,
		Amount:    100,
		Funds:     99,
	})
	assert.ErrorIs(suite.T(), err, models.ErrInsufficientFunds)

	_, err = suite.settlement.DirectPay(suite.buyer, &DirectPayRequest{
		Recipient: recipient,
		Amount:    0,
		Funds:     10,
	})
	assert.ErrorIs(suite.T(), err, models.ErrNotEnoughAmount)
}

func TestSettlementServiceSuite(t *testing.T) {
	suite.Run(t, new(SettlementServiceTestSuite))
}

func TestComputeSplitIsExact(t *testing.T) {
	// The three shares must always reassemble the total exactly.
	cases := []struct {
		unitPrice, ratio, amount uint64
		feeBps, commissionBps    uint16
		shipping, tax            uint64
	}{
		{50, 100, 4, 100, 1000, 0, 0},
		{50, 100, 4, 100, 1000, 5, 3},
		{1, 1, 1, 10000, 10000, 0, 0},
		{999, 37, 13, 250, 3333, 17, 29},
		{123456, 205, 7, 1, 9999, 0, 1},
		{1, 99, 1, 0, 0, 0, 0},
	}

	for _, c := range cases {
		split := ComputeSplit(c.unitPrice, c.ratio, c.amount, c.feeBps, c.commissionBps, c.shipping, c.tax)
		assert.Equal(t, split.Total, split.PlatformFee+split.ProducerShare+split.ResellerShare,
			"split must be exact for %+v", c)
		assert.Equal(t, c.unitPrice*c.ratio*c.amount/RatioScale, split.Gross)
		assert.Equal(t, split.Gross+c.shipping+c.tax, split.Total)
	}
}
