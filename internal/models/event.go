// internal/models/event.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// DomainEvent is the persisted form of a ledger event, written after a
// successful entry-point call so hosts can consume the purchase/workflow
// stream without tailing logs.
type DomainEvent struct {
	ID        uuid.UUID     `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Kind      string        `json:"kind" gorm:"size:40;not null;index"`
	Account   *uuid.UUID    `json:"account,omitempty" gorm:"type:uuid;index"`
	Attrs     JSONB         `json:"attrs" gorm:"type:jsonb"`
	Amounts   pq.Int64Array `json:"amounts,omitempty" gorm:"type:bigint[]"`
	CreatedAt time.Time     `json:"created_at" gorm:"index"`
}

// Event kinds, one per entry point with observable effects.
const (
	EventMint               = "mint"
	EventPublishRequest     = "publish_request"
	EventApprovedPublish    = "approved_publish"
	EventDisapprovedPublish = "disapproved_publish"
	EventCancelRequest      = "cancel_request"
	EventBuy                = "buy"
	EventPayment            = "payment"
)
