// internal/services/request_service.go
package services

import (
	"fmt"

	"github.com/relicense/ledger-backend/internal/models"
	"github.com/relicense/ledger-backend/internal/store"
)

// RequestService runs the publish workflow: a publisher proposes to resell
// units from a producer's holder line, the producer approves into a binding
// grant or the publisher cancels, and the producer can later pull reserved
// units back by disapproving the grant.
type RequestService struct {
	store  store.Store
	events *EventService
}

type PublishRequestInput struct {
	HolderID models.HolderID  `json:"holder_id" validate:"required"`
	Producer models.AccountID `json:"producer" validate:"required"`
	Amount   uint64           `json:"amount" validate:"required,min=1"`
}

type RequestView struct {
	RequestID models.RequestID `json:"request_id"`
	models.LicenseRequest
}

type GrantView struct {
	GrantID models.GrantID `json:"grant_id"`
	models.LicenseGrant
}

func NewRequestService(s store.Store, events *EventService) *RequestService {
	return &RequestService{store: s, events: events}
}

// PublishRequest files a proposal by publisher against the producer's holder
// line. Nothing is reserved yet: the amount is only checked against the
// line's total so obviously impossible proposals are rejected early, and the
// real capacity check happens at approval.
func (s *RequestService) PublishRequest(publisher models.AccountID, in *PublishRequestInput) (models.RequestID, error) {
	if in.Amount == 0 {
		return 0, models.ErrNotEnoughAmount
	}

	var requestID models.RequestID
	err := s.store.Update(func(tx store.Tx) error {
		var holder models.Holder
		found, err := tx.Get(store.NSHolders, in.HolderID.Key(), &holder)
		if err != nil {
			return err
		}
		if !found {
			return models.ErrHolderNotFound
		}

		owns, err := ownsHolder(tx, in.Producer, in.HolderID)
		if err != nil {
			return err
		}
		if !owns {
			return models.ErrNotOwner
		}

		if in.Amount > holder.Amount {
			return models.ErrNotEnoughAmount
		}

		id, err := tx.NextID(store.CounterRequests)
		if err != nil {
			return err
		}
		requestID = models.RequestID(id)

		request := &models.LicenseRequest{
			HolderID:  in.HolderID,
			Amount:    in.Amount,
			Producer:  in.Producer,
			Publisher: publisher,
		}
		if err := tx.Put(store.NSRequests, requestID.Key(), request); err != nil {
			return err
		}
		if err := indexAdd(tx, store.NSPendingByProd, in.Producer, uint64(requestID)); err != nil {
			return err
		}
		return indexAdd(tx, store.NSPendingByPub, publisher, uint64(requestID))
	})
	if err != nil {
		return 0, err
	}

	s.events.Emit(models.EventPublishRequest, &publisher,
		models.JSONB{"producer": in.Producer.String()},
		int64(requestID), int64(in.HolderID), int64(in.Amount))
	return requestID, nil
}

// Approve converts a pending request into a grant, reserving the requested
// units out of the holder line's unreserved balance. Only the producer named
// on the request may approve, and they must still own the line. The request
// record is consumed.
func (s *RequestService) Approve(caller models.AccountID, requestID models.RequestID) (models.GrantID, error) {
	var (
		grantID models.GrantID
		request models.LicenseRequest
	)
	err := s.store.Update(func(tx store.Tx) error {
		found, err := tx.Get(store.NSRequests, requestID.Key(), &request)
		if err != nil {
			return err
		}
		if !found {
			return models.ErrRequestNotFound
		}
		if caller != request.Producer {
			return models.ErrNotRequestOwner
		}

		owns, err := ownsHolder(tx, caller, request.HolderID)
		if err != nil {
			return err
		}
		if !owns {
			return models.ErrNotOwner
		}

		var holder models.Holder
		found, err = tx.Get(store.NSHolders, request.HolderID.Key(), &holder)
		if err != nil {
			return err
		}
		if !found {
			return models.ErrHolderNotFound
		}
		if request.Amount > holder.Remaining {
			return models.ErrNotEnoughAmount
		}

		holder.Remaining -= request.Amount
		if err := tx.Put(store.NSHolders, request.HolderID.Key(), &holder); err != nil {
			return err
		}

		id, err := tx.NextID(store.CounterGrants)
		if err != nil {
			return err
		}
		grantID = models.GrantID(id)

		grant := &models.LicenseGrant{
			HolderID: request.HolderID,
			AssetID:  holder.AssetID,
			Amount:   request.Amount,
			Owner:    request.Producer,
			Reseller: request.Publisher,
		}
		if err := tx.Put(store.NSGrants, grantID.Key(), grant); err != nil {
			return err
		}
		if err := indexAdd(tx, store.NSGrantsByProd, request.Producer, uint64(grantID)); err != nil {
			return err
		}
		if err := indexAdd(tx, store.NSGrantsByPub, request.Publisher, uint64(grantID)); err != nil {
			return err
		}

		return deleteRequest(tx, requestID, &request)
	})
	if err != nil {
		return 0, err
	}

	s.events.Emit(models.EventApprovedPublish, &caller,
		models.JSONB{"reseller": request.Publisher.String()},
		int64(requestID), int64(grantID), int64(request.Amount))
	return grantID, nil
}

// Disapprove returns amount reserved units from a grant to the underlying
// holder line. Only the grant's owner may disapprove, and an owner reselling
// to themselves cannot use it to shortcut the workflow. A fully drained grant
// keeps its record for audit but leaves the account indexes.
func (s *RequestService) Disapprove(caller models.AccountID, grantID models.GrantID, amount uint64) error {
	if amount == 0 {
		return models.ErrNotEnoughAmount
	}

	var grant models.LicenseGrant
	err := s.store.Update(func(tx store.Tx) error {
		found, err := tx.Get(store.NSGrants, grantID.Key(), &grant)
		if err != nil {
			return err
		}
		if !found {
			return models.ErrGrantNotFound
		}
		if caller != grant.Owner {
			return models.ErrNotGrantOwner
		}
		if grant.Owner == grant.Reseller {
			return models.ErrAccessDenied
		}
		if amount > grant.Amount {
			return models.ErrNotEnoughAmount
		}

		var holder models.Holder
		found, err = tx.Get(store.NSHolders, grant.HolderID.Key(), &holder)
		if err != nil {
			return err
		}
		if !found {
			return models.ErrHolderNotFound
		}

		grant.Amount -= amount
		holder.Remaining += amount

		if err := tx.Put(store.NSHolders, grant.HolderID.Key(), &holder); err != nil {
			return err
		}
		if err := tx.Put(store.NSGrants, grantID.Key(), &grant); err != nil {
			return err
		}

		if grant.Amount == 0 {
			if err := indexRemove(tx, store.NSGrantsByProd, grant.Owner, uint64(grantID)); err != nil {
				return err
			}
			return indexRemove(tx, store.NSGrantsByPub, grant.Reseller, uint64(grantID))
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.events.Emit(models.EventDisapprovedPublish, &caller,
		models.JSONB{"reseller": grant.Reseller.String()},
		int64(grantID), int64(amount))
	return nil
}

// CancelRequest withdraws a pending request. Only the publisher that filed it
// may cancel; a consumed or already-cancelled request reports not found.
func (s *RequestService) CancelRequest(caller models.AccountID, requestID models.RequestID) error {
	err := s.store.Update(func(tx store.Tx) error {
		var request models.LicenseRequest
		found, err := tx.Get(store.NSRequests, requestID.Key(), &request)
		if err != nil {
			return err
		}
		if !found {
			return models.ErrRequestNotFound
		}
		if caller != request.Publisher {
			return models.ErrAccessDenied
		}
		return deleteRequest(tx, requestID, &request)
	})
	if err != nil {
		return err
	}

	s.events.Emit(models.EventCancelRequest, &caller, nil, int64(requestID))
	return nil
}

// PendingForProducer lists requests waiting on an account's approval.
func (s *RequestService) PendingForProducer(account models.AccountID) ([]RequestView, error) {
	return s.listRequests(store.NSPendingByProd, account)
}

// PendingForPublisher lists an account's own outstanding requests.
func (s *RequestService) PendingForPublisher(account models.AccountID) ([]RequestView, error) {
	return s.listRequests(store.NSPendingByPub, account)
}

// GrantsForProducer lists live grants backed by an account's holder lines.
func (s *RequestService) GrantsForProducer(account models.AccountID) ([]GrantView, error) {
	return s.listGrants(store.NSGrantsByProd, account)
}

// GrantsForPublisher lists live grants an account resells.
func (s *RequestService) GrantsForPublisher(account models.AccountID) ([]GrantView, error) {
	return s.listGrants(store.NSGrantsByPub, account)
}

func (s *RequestService) GetGrant(id models.GrantID) (*models.LicenseGrant, error) {
	var grant models.LicenseGrant
	err := s.store.View(func(tx store.Tx) error {
		found, err := tx.Get(store.NSGrants, id.Key(), &grant)
		if err != nil {
			return err
		}
		if !found {
			return models.ErrGrantNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &grant, nil
}

func (s *RequestService) listRequests(ns string, account models.AccountID) ([]RequestView, error) {
	var views []RequestView
	err := s.store.View(func(tx store.Tx) error {
		var index models.IDSet
		if _, err := tx.Get(ns, account.String(), &index); err != nil {
			return err
		}
		views = make([]RequestView, 0, index.Len())
		for _, id := range index.IDs {
			var request models.LicenseRequest
			found, err := tx.Get(store.NSRequests, models.RequestID(id).Key(), &request)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("request index references missing request %d", id)
			}
			views = append(views, RequestView{RequestID: models.RequestID(id), LicenseRequest: request})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

func (s *RequestService) listGrants(ns string, account models.AccountID) ([]GrantView, error) {
	var views []GrantView
	err := s.store.View(func(tx store.Tx) error {
		var index models.IDSet
		if _, err := tx.Get(ns, account.String(), &index); err != nil {
			return err
		}
		views = make([]GrantView, 0, index.Len())
		for _, id := range index.IDs {
			var grant models.LicenseGrant
			found, err := tx.Get(store.NSGrants, models.GrantID(id).Key(), &grant)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("grant index references missing grant %d", id)
			}
			views = append(views, GrantView{GrantID: models.GrantID(id), LicenseGrant: grant})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

func deleteRequest(tx store.Tx, id models.RequestID, request *models.LicenseRequest) error {
	if err := tx.Delete(store.NSRequests, id.Key()); err != nil {
		return err
	}
	if err := indexRemove(tx, store.NSPendingByProd, request.Producer, uint64(id)); err != nil {
		return err
	}
	return indexRemove(tx, store.NSPendingByPub, request.Publisher, uint64(id))
}

func indexAdd(tx store.Tx, ns string, account models.AccountID, id uint64) error {
	var index models.IDSet
	if _, err := tx.Get(ns, account.String(), &index); err != nil {
		return err
	}
	index.Add(id)
	return tx.Put(ns, account.String(), &index)
}

func indexRemove(tx store.Tx, ns string, account models.AccountID, id uint64) error {
	var index models.IDSet
	found, err := tx.Get(ns, account.String(), &index)
	if err != nil {
		return err
	}
	if !found || !index.Remove(id) {
		return nil
	}
	return tx.Put(ns, account.String(), &index)
}
