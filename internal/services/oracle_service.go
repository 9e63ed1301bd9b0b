// internal/services/oracle_service.go
package services

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/relicense/ledger-backend/internal/config"
	"github.com/relicense/ledger-backend/internal/models"
)

// PriceAttestation is a signed statement from the price oracle carrying the
// fiat-to-settlement conversion ratio for one purchase. The signature covers
// the exact wire message "<ratio>,<timestamp_ms>".
type PriceAttestation struct {
	Ratio       uint64 `json:"ratio" validate:"required,min=1"`
	TimestampMs int64  `json:"timestamp_ms" validate:"required"`
	Signature   string `json:"signature" validate:"required"`
}

// OracleService verifies price attestations against the configured oracle
// public key and freshness window.
type OracleService struct {
	publicKey ed25519.PublicKey
	windowMs  int64
	now       func() time.Time
}

func NewOracleService(publicKey []byte, windowMs int64) (*OracleService, error) {
	if len(publicKey) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("oracle public key must be %d bytes, got %d", ed25519.PublicKeySize, len(publicKey))
	}
	return &OracleService{
		publicKey: ed25519.PublicKey(publicKey),
		windowMs:  windowMs,
		now:       time.Now,
	}, nil
}

func NewOracleServiceFromConfig(cfg config.LedgerConfig) (*OracleService, error) {
	key, err := cfg.OracleKeyBytes()
	if err != nil {
		return nil, err
	}
	return NewOracleService(key, cfg.PriceWindowMs)
}

// WithClock overrides the freshness clock. Used by tests.
func (s *OracleService) WithClock(now func() time.Time) *OracleService {
	s.now = now
	return s
}

// Verify checks the attestation's signature and freshness. The timestamp may
// not be older than the window, and may not lie in the future.
func (s *OracleService) Verify(att *PriceAttestation) error {
	sig, err := hex.DecodeString(strings.TrimPrefix(att.Signature, "0x"))
	if err != nil || len(sig) != ed25519.SignatureSize {
		return models.ErrInvalidOracleMessage
	}

	message := SignedPriceMessage(att.Ratio, att.TimestampMs)
	if !ed25519.Verify(s.publicKey, message, sig) {
		return models.ErrInvalidSignature
	}

	nowMs := s.now().UnixMilli()
	if att.TimestampMs > nowMs || nowMs-att.TimestampMs > s.windowMs {
		return models.ErrInvalidTimestamp
	}

	return nil
}

// SignedPriceMessage is the byte string the oracle signs: the decimal ratio
// and millisecond timestamp joined by a comma.
func SignedPriceMessage(ratio uint64, timestampMs int64) []byte {
	return []byte(strconv.FormatUint(ratio, 10) + "," + strconv.FormatInt(timestampMs, 10))
}
