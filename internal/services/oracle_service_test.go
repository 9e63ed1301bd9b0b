// internal/services/oracle_service_test.go
package services

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/relicense/ledger-backend/internal/models"
)

func TestOracleVerify(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	assert.NoError(t, err)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	oracle, err := NewOracleService(pub, 130000)
	assert.NoError(t, err)
	oracle.WithClock(func() time.Time { return now })

	sign := func(ratio uint64, ts int64) PriceAttestation {
		sig := ed25519.Sign(priv, SignedPriceMessage(ratio, ts))
		return PriceAttestation{Ratio: ratio, TimestampMs: ts, Signature: hex.EncodeToString(sig)}
	}

	att := sign(100, now.UnixMilli())
	assert.NoError(t, oracle.Verify(&att))

	// A 0x prefix on the signature is accepted.
	prefixed := att
	prefixed.Signature = "0x" + att.Signature
	assert.NoError(t, oracle.Verify(&prefixed))

	// Exactly at the window edge is still fresh.
	edge := sign(100, now.UnixMilli()-130000)
	assert.NoError(t, oracle.Verify(&edge))

	stale := sign(100, now.UnixMilli()-130001)
	assert.ErrorIs(t, oracle.Verify(&stale), models.ErrInvalidTimestamp)

	future := sign(100, now.UnixMilli()+1)
	assert.ErrorIs(t, oracle.Verify(&future), models.ErrInvalidTimestamp)

	forged := sign(100, now.UnixMilli())
	forged.Ratio = 200
	assert.ErrorIs(t, oracle.Verify(&forged), models.ErrInvalidSignature)

	malformed := sign(100, now.UnixMilli())
	malformed.Signature = "not-hex"
	assert.ErrorIs(t, oracle.Verify(&malformed), models.ErrInvalidOracleMessage)

	short := sign(100, now.UnixMilli())
	short.Signature = "abcd"
	assert.ErrorIs(t, oracle.Verify(&short), models.ErrInvalidOracleMessage)
}

func TestNewOracleServiceRejectsBadKey(t *testing.T) {
	_, err := NewOracleService([]byte{1, 2, 3}, 130000)
	assert.Error(t, err)
}
