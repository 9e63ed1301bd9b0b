// internal/models/errors.go
package models

import "errors"

// Ledger error taxonomy. Every entry-point precondition failure maps to one
// of these sentinels so hosts can distinguish failure causes with errors.Is;
// handlers translate them to stable HTTP codes.
var (
	// not-found class
	ErrAssetNotFound   = errors.New("asset metadata not found")
	ErrHolderNotFound  = errors.New("holder not found")
	ErrRequestNotFound = errors.New("license request not found")
	ErrGrantNotFound   = errors.New("license grant not found")

	// authorization class
	ErrNotOwner        = errors.New("caller does not own the holder line")
	ErrNotRequestOwner = errors.New("caller is not the request's producer")
	ErrNotGrantOwner   = errors.New("caller is not the grant's owner")
	ErrAccessDenied    = errors.New("access denied")

	// capacity class
	ErrNotEnoughAmount   = errors.New("not enough amount")
	ErrInsufficientFunds = errors.New("insufficient funds")

	// oracle class
	ErrInvalidSignature     = errors.New("invalid price oracle signature")
	ErrInvalidTimestamp     = errors.New("stale price oracle message")
	ErrInvalidOracleMessage = errors.New("malformed price oracle message")

	// transfer class
	ErrTransferFailed = errors.New("fund transfer failed")
)
