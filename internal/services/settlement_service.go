// internal/services/settlement_service.go
package services

import (
	"github.com/relicense/ledger-backend/internal/models"
	"github.com/relicense/ledger-backend/internal/store"
)

// RatioScale is the fixed-point denominator of oracle price ratios: a ratio
// of 100 means one fiat unit converts to one settlement unit.
const RatioScale = 100

// feeDenominator converts basis points to a fraction.
const feeDenominator = 10000

// SettlementService executes purchases against grants: verifies the price
// attestation, splits the payment between producer, reseller and platform,
// moves the funds and transfers the bought units to the buyer.
type SettlementService struct {
	store    store.Store
	oracle   *OracleService
	treasury Treasury
	events   *EventService
	feeBps   uint16
}

type BuyRequest struct {
	GrantID     models.GrantID   `json:"grant_id" validate:"required"`
	Amount      uint64           `json:"amount" validate:"required,min=1"`
	Funds       uint64           `json:"funds" validate:"required"`
	Shipping    uint64           `json:"shipping"`
	Tax         uint64           `json:"tax"`
	Attestation PriceAttestation `json:"attestation" validate:"required"`
}

type BuyResult struct {
	HolderID models.HolderID `json:"holder_id"`
	Split    Split           `json:"split"`
}

// Split is the exact decomposition of one purchase. PlatformFee,
// ProducerShare and ResellerShare always sum to Total; remainders from the
// integer divisions land in ResellerShare.
type Split struct {
	Gross         uint64 `json:"gross"`
	PlatformFee   uint64 `json:"platform_fee"`
	ProducerShare uint64 `json:"producer_share"`
	ResellerShare uint64 `json:"reseller_share"`
	Total         uint64 `json:"total"`
}

type DirectPayRequest struct {
	Recipient models.AccountID `json:"recipient" validate:"required"`
	Amount    uint64           `json:"amount" validate:"required,min=1"`
	Shipping  uint64           `json:"shipping"`
	Tax       uint64           `json:"tax"`
	Funds     uint64           `json:"funds" validate:"required"`
}

func NewSettlementService(s store.Store, oracle *OracleService, treasury Treasury, events *EventService, feeBps uint16) *SettlementService {
	return &SettlementService{
		store:    s,
		oracle:   oracle,
		treasury: treasury,
		events:   events,
		feeBps:   feeBps,
	}
}

// ComputeSplit prices amount units at unitPrice converted through the oracle
// ratio, then carves the gross into platform fee (feeBps of gross), producer
// share (commissionBps of the remainder) and reseller share (everything
// left). Shipping and tax ride on top and go to the producer, who fulfils
// the order.
func ComputeSplit(unitPrice, ratio, amount uint64, feeBps, commissionBps uint16, shipping, tax uint64) Split {
	gross := unitPrice * ratio * amount / RatioScale
	fee := gross * uint64(feeBps) / feeDenominator
	producerNet := (gross - fee) * uint64(commissionBps) / feeDenominator
	resellerShare := gross - fee - producerNet

	return Split{
		Gross:         gross,
		PlatformFee:   fee,
		ProducerShare: producerNet + shipping + tax,
		ResellerShare: resellerShare,
		Total:         gross + shipping + tax,
	}
}

// Buy purchases units from a grant. The attestation must verify before any
// state is read; the transfers run inside the store transaction so a failed
// transfer rolls the ledger back with it.
func (s *SettlementService) Buy(buyer models.AccountID, req *BuyRequest) (*BuyResult, error) {
	if err := s.oracle.Verify(&req.Attestation); err != nil {
		return nil, err
	}
	if req.Amount == 0 {
		return nil, models.ErrNotEnoughAmount
	}

	result := &BuyResult{}
	var grant models.LicenseGrant
	err := s.store.Update(func(tx store.Tx) error {
		found, err := tx.Get(store.NSGrants, req.GrantID.Key(), &grant)
		if err != nil {
			return err
		}
		if !found {
			return models.ErrGrantNotFound
		}
		if req.Amount > grant.Amount {
			return models.ErrNotEnoughAmount
		}

		var metadata models.AssetMetadata
		found, err = tx.Get(store.NSAssets, grant.AssetID.Key(), &metadata)
		if err != nil {
			return err
		}
		if !found {
			return models.ErrAssetNotFound
		}

		var holder models.Holder
		found, err = tx.Get(store.NSHolders, grant.HolderID.Key(), &holder)
		if err != nil {
			return err
		}
		if !found {
			return models.ErrHolderNotFound
		}

		split := ComputeSplit(metadata.UnitPrice, req.Attestation.Ratio, req.Amount,
			s.feeBps, metadata.CommissionBps, req.Shipping, req.Tax)
		if req.Funds < split.Total {
			return models.ErrInsufficientFunds
		}
		result.Split = split

		if err := s.treasury.Transfer(grant.Owner, split.ProducerShare); err != nil {
			return err
		}
		if err := s.treasury.Transfer(grant.Reseller, split.ResellerShare); err != nil {
			return err
		}
		if err := s.treasury.TransferToPlatform(split.PlatformFee); err != nil {
			return err
		}

		// The bought units leave the source line permanently. Remaining is
		// untouched: these units were reserved at approval.
		grant.Amount -= req.Amount
		holder.Amount -= req.Amount
		if err := tx.Put(store.NSHolders, grant.HolderID.Key(), &holder); err != nil {
			return err
		}
		if err := tx.Put(store.NSGrants, req.GrantID.Key(), &grant); err != nil {
			return err
		}
		if grant.Amount == 0 {
			if err := indexRemove(tx, store.NSGrantsByProd, grant.Owner, uint64(req.GrantID)); err != nil {
				return err
			}
			if err := indexRemove(tx, store.NSGrantsByPub, grant.Reseller, uint64(req.GrantID)); err != nil {
				return err
			}
		}

		holderID, err := creditBuyer(tx, buyer, grant.AssetID, req.Amount)
		if err != nil {
			return err
		}
		result.HolderID = holderID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Emit(models.EventBuy, &buyer,
		models.JSONB{
			"producer": grant.Owner.String(),
			"reseller": grant.Reseller.String(),
		},
		int64(req.GrantID), int64(req.Amount),
		int64(result.Split.ProducerShare), int64(result.Split.ResellerShare), int64(result.Split.PlatformFee))
	return result, nil
}

// creditBuyer lands bought units in the buyer's line for the asset, opening
// one if none exists. Purchased units arrive unreserved.
func creditBuyer(tx store.Tx, buyer models.AccountID, assetID models.AssetID, amount uint64) (models.HolderID, error) {
	var owned models.IDSet
	if _, err := tx.Get(store.NSOwnership, buyer.String(), &owned); err != nil {
		return 0, err
	}

	holderID, holder, err := findHolderForAsset(tx, &owned, assetID)
	if err != nil {
		return 0, err
	}
	if holder == nil {
		id, err := tx.NextID(store.CounterHolders)
		if err != nil {
			return 0, err
		}
		holderID = models.HolderID(id)
		holder = &models.Holder{AssetID: assetID}
		owned.Add(uint64(holderID))
		if err := tx.Put(store.NSOwnership, buyer.String(), &owned); err != nil {
			return 0, err
		}
	}
	holder.Amount += amount
	holder.Remaining += amount
	return holderID, tx.Put(store.NSHolders, holderID.Key(), holder)
}

// DirectPay moves funds from the caller to a recipient outside any grant,
// with the platform taking its usual cut of the gross. Shipping and tax pass
// through untouched.
func (s *SettlementService) DirectPay(caller models.AccountID, req *DirectPayRequest) (*Split, error) {
	if req.Amount == 0 {
		return nil, models.ErrNotEnoughAmount
	}

	fee := req.Amount * uint64(s.feeBps) / feeDenominator
	net := req.Amount - fee + req.Shipping + req.Tax
	total := req.Amount + req.Shipping + req.Tax
	if req.Funds < total {
		return nil, models.ErrInsufficientFunds
	}

	if err := s.treasury.Transfer(req.Recipient, net); err != nil {
		return nil, err
	}
	if err := s.treasury.TransferToPlatform(fee); err != nil {
		return nil, err
	}

	split := &Split{
		Gross:         req.Amount,
		PlatformFee:   fee,
		ProducerShare: net,
		Total:         total,
	}
	s.events.Emit(models.EventPayment, &caller,
		models.JSONB{"recipient": req.Recipient.String()},
		int64(net), int64(fee))
	return split, nil
}
