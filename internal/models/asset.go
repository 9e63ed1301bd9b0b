// internal/models/asset.go
package models

import (
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// AssetMetadata is the immutable descriptor of a minted asset. Identity is
// the blake2b hash of name, content locator, checksum and commission, so two
// mints with identical metadata bind to the same asset id. UnitPrice is part
// of the record but deliberately outside the identity hash.
type AssetMetadata struct {
	Name          string   `json:"name"`
	ContentURI    string   `json:"content_uri"`
	Checksum      string   `json:"checksum"`
	Tags          []string `json:"tags,omitempty"`
	UnitPrice     uint64   `json:"unit_price"`
	CommissionBps uint16   `json:"commission_bps"`
}

// Hash returns the hex-encoded content hash identifying this metadata.
func (m *AssetMetadata) Hash() string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(m.Name))
	h.Write([]byte(m.ContentURI))
	h.Write([]byte(m.Checksum))
	var bps [2]byte
	binary.BigEndian.PutUint16(bps[:], m.CommissionBps)
	h.Write(bps[:])
	return hex.EncodeToString(h.Sum(nil))
}

// Holder is one ledger line: units of a single asset held by whichever
// account's ownership index references the line.
//
// Amount is the total number of units the line still backs. Remaining is the
// unreserved part of Amount: it drops when a request is approved (reserving
// capacity for the grant), returns on disapproval, and is the balance every
// capacity check at approval time runs against. Amount itself only drops
// when a purchase permanently consumes units, so at all times
//
//	Amount == Remaining + sum(outstanding grant amounts against this line)
type Holder struct {
	AssetID   AssetID `json:"asset_id"`
	Amount    uint64  `json:"amount"`
	Remaining uint64  `json:"remaining"`
}

// LicenseRequest is a publisher's non-binding proposal to resell units
// sourced from a producer-owned holder line. No capacity is reserved while
// the request is pending.
type LicenseRequest struct {
	HolderID  HolderID  `json:"holder_id"`
	Amount    uint64    `json:"amount"`
	Producer  AccountID `json:"producer"`
	Publisher AccountID `json:"publisher"`
}

// LicenseGrant is the binding commitment created from an approved request:
// Amount units are purchasable by the public through the reseller. The
// reserved units live here until bought or returned by disapproval.
type LicenseGrant struct {
	HolderID HolderID  `json:"holder_id"`
	AssetID  AssetID   `json:"asset_id"`
	Amount   uint64    `json:"amount"`
	Owner    AccountID `json:"owner"`
	Reseller AccountID `json:"reseller"`
}
