// internal/services/stripe_treasury.go
package services

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/transfer"

	"github.com/relicense/ledger-backend/internal/config"
	"github.com/relicense/ledger-backend/internal/models"
)

// StripeTreasury settles purchase splits through Stripe Connect transfers.
// Account ids double as connected-account references via the metadata the
// host sets up when onboarding sellers.
type StripeTreasury struct {
	config   *config.Config
	currency string
}

func NewStripeTreasury(cfg *config.Config) *StripeTreasury {
	// Initialize Stripe
	stripe.Key = cfg.Payment.StripeSecretKey

	return &StripeTreasury{
		config:   cfg,
		currency: "usd",
	}
}

func (t *StripeTreasury) Transfer(to models.AccountID, amount uint64) error {
	if amount == 0 {
		return nil
	}

	params := &stripe.TransferParams{
		Amount:      stripe.Int64(int64(amount)),
		Currency:    stripe.String(t.currency),
		Destination: stripe.String(to.String()),
	}
	params.AddMetadata("account_id", to.String())

	if _, err := transfer.New(params); err != nil {
		logrus.WithFields(logrus.Fields{
			"account": to.String(),
			"amount":  amount,
		}).WithError(err).Error("stripe transfer failed")
		return fmt.Errorf("%w: %v", models.ErrTransferFailed, err)
	}

	return nil
}

func (t *StripeTreasury) TransferToPlatform(amount uint64) error {
	// Platform fees stay on the platform Stripe account; nothing to move.
	if amount == 0 || t.config.Payment.PlatformAccountID == "" {
		return nil
	}

	params := &stripe.TransferParams{
		Amount:      stripe.Int64(int64(amount)),
		Currency:    stripe.String(t.currency),
		Destination: stripe.String(t.config.Payment.PlatformAccountID),
	}

	if _, err := transfer.New(params); err != nil {
		logrus.WithField("amount", amount).WithError(err).Error("stripe platform transfer failed")
		return fmt.Errorf("%w: %v", models.ErrTransferFailed, err)
	}

	return nil
}
