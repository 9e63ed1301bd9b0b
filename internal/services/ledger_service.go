// internal/services/ledger_service.go
package services

import (
	"fmt"

	"github.com/relicense/ledger-backend/internal/models"
	"github.com/relicense/ledger-backend/internal/store"
)

// LedgerService owns asset metadata and holder lines: minting, supply
// tracking and the per-account ownership index.
type LedgerService struct {
	store  store.Store
	events *EventService
}

type MintRequest struct {
	Metadata models.AssetMetadata `json:"metadata" validate:"required"`
	Amount   uint64               `json:"amount" validate:"required,min=1"`
	// Recipient receives the minted units; defaults to the caller.
	Recipient *models.AccountID `json:"recipient,omitempty"`
}

type MintResult struct {
	AssetID  models.AssetID  `json:"asset_id"`
	HolderID models.HolderID `json:"holder_id"`
	Hash     string          `json:"hash"`
}

// HolderView pairs a holder line with its id for listings.
type HolderView struct {
	HolderID models.HolderID `json:"holder_id"`
	models.Holder
}

func NewLedgerService(s store.Store, events *EventService) *LedgerService {
	return &LedgerService{store: s, events: events}
}

// Mint creates amount units of the asset described by metadata and credits
// them to the recipient (the caller unless one is named). Metadata identity
// is its content hash: minting the same metadata again grows the existing
// asset's supply instead of registering a duplicate, and if the recipient
// already holds a line for that asset the units coalesce into it rather than
// opening a second line. Any account may mint.
func (s *LedgerService) Mint(caller models.AccountID, req *MintRequest) (*MintResult, error) {
	if req.Amount == 0 {
		return nil, models.ErrNotEnoughAmount
	}

	recipient := caller
	if req.Recipient != nil {
		recipient = *req.Recipient
	}

	hash := req.Metadata.Hash()
	result := &MintResult{Hash: hash}

	err := s.store.Update(func(tx store.Tx) error {
		assetID, err := s.resolveAsset(tx, hash, &req.Metadata)
		if err != nil {
			return err
		}
		result.AssetID = assetID

		var owned models.IDSet
		if _, err := tx.Get(store.NSOwnership, recipient.String(), &owned); err != nil {
			return err
		}

		holderID, holder, err := findHolderForAsset(tx, &owned, assetID)
		if err != nil {
			return err
		}
		if holder == nil {
			id, err := tx.NextID(store.CounterHolders)
			if err != nil {
				return err
			}
			holderID = models.HolderID(id)
			holder = &models.Holder{AssetID: assetID}
			owned.Add(uint64(holderID))
			if err := tx.Put(store.NSOwnership, recipient.String(), &owned); err != nil {
				return err
			}
		}
		holder.Amount += req.Amount
		holder.Remaining += req.Amount
		if err := tx.Put(store.NSHolders, holderID.Key(), holder); err != nil {
			return err
		}
		result.HolderID = holderID

		var supply uint64
		if _, err := tx.Get(store.NSTotalSupply, assetID.Key(), &supply); err != nil {
			return err
		}
		supply += req.Amount
		return tx.Put(store.NSTotalSupply, assetID.Key(), &supply)
	})
	if err != nil {
		return nil, err
	}

	s.events.Emit(models.EventMint, &caller,
		models.JSONB{"hash": hash},
		int64(result.AssetID), int64(result.HolderID), int64(req.Amount))
	return result, nil
}

// resolveAsset returns the id bound to hash, registering the metadata on
// first sight. First writer wins: later mints with the same hash reuse the
// stored metadata even if their unit price differs.
func (s *LedgerService) resolveAsset(tx store.Tx, hash string, metadata *models.AssetMetadata) (models.AssetID, error) {
	var existing uint64
	found, err := tx.Get(store.NSAssetIDByHash, hash, &existing)
	if err != nil {
		return 0, err
	}
	if found {
		return models.AssetID(existing), nil
	}

	id, err := tx.NextID(store.CounterAssets)
	if err != nil {
		return 0, err
	}
	assetID := models.AssetID(id)
	if err := tx.Put(store.NSAssets, assetID.Key(), metadata); err != nil {
		return 0, err
	}
	if err := tx.Put(store.NSAssetIDByHash, hash, uint64(assetID)); err != nil {
		return 0, err
	}
	return assetID, nil
}

func findHolderForAsset(tx store.Tx, owned *models.IDSet, assetID models.AssetID) (models.HolderID, *models.Holder, error) {
	for _, id := range owned.IDs {
		var holder models.Holder
		found, err := tx.Get(store.NSHolders, models.HolderID(id).Key(), &holder)
		if err != nil {
			return 0, nil, err
		}
		if !found {
			return 0, nil, fmt.Errorf("ownership index references missing holder %d", id)
		}
		if holder.AssetID == assetID {
			return models.HolderID(id), &holder, nil
		}
	}
	return 0, nil, nil
}

func (s *LedgerService) GetAsset(id models.AssetID) (*models.AssetMetadata, error) {
	var metadata models.AssetMetadata
	err := s.store.View(func(tx store.Tx) error {
		found, err := tx.Get(store.NSAssets, id.Key(), &metadata)
		if err != nil {
			return err
		}
		if !found {
			return models.ErrAssetNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &metadata, nil
}

func (s *LedgerService) GetHolder(id models.HolderID) (*models.Holder, error) {
	var holder models.Holder
	err := s.store.View(func(tx store.Tx) error {
		found, err := tx.Get(store.NSHolders, id.Key(), &holder)
		if err != nil {
			return err
		}
		if !found {
			return models.ErrHolderNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &holder, nil
}

// TotalSupply reports the cumulative minted units of an asset. Purchases move
// units between holders and never change it.
func (s *LedgerService) TotalSupply(id models.AssetID) (uint64, error) {
	var supply uint64
	err := s.store.View(func(tx store.Tx) error {
		found, err := tx.Get(store.NSAssets, id.Key(), &models.AssetMetadata{})
		if err != nil {
			return err
		}
		if !found {
			return models.ErrAssetNotFound
		}
		_, err = tx.Get(store.NSTotalSupply, id.Key(), &supply)
		return err
	})
	return supply, err
}

// ListHolders returns every holder line of an account.
func (s *LedgerService) ListHolders(account models.AccountID) ([]HolderView, error) {
	var views []HolderView
	err := s.store.View(func(tx store.Tx) error {
		var owned models.IDSet
		if _, err := tx.Get(store.NSOwnership, account.String(), &owned); err != nil {
			return err
		}
		views = make([]HolderView, 0, owned.Len())
		for _, id := range owned.IDs {
			var holder models.Holder
			found, err := tx.Get(store.NSHolders, models.HolderID(id).Key(), &holder)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("ownership index references missing holder %d", id)
			}
			views = append(views, HolderView{HolderID: models.HolderID(id), Holder: holder})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

// ownsHolder reports whether account's ownership index references holderID.
func ownsHolder(tx store.Tx, account models.AccountID, holderID models.HolderID) (bool, error) {
	var owned models.IDSet
	if _, err := tx.Get(store.NSOwnership, account.String(), &owned); err != nil {
		return false, err
	}
	return owned.Contains(uint64(holderID)), nil
}
