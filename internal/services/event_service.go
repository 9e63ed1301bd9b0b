// internal/services/event_service.go
package services

import (
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/relicense/ledger-backend/internal/models"
)

// EventService emits domain events after successful ledger calls: a
// structured log line always, a DomainEvent row when a database is attached.
// Persistence failures are logged and swallowed so an event write can never
// fail a committed ledger call.
type EventService struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewEventService(db *gorm.DB, logger *logrus.Logger) *EventService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &EventService{db: db, logger: logger}
}

// Emit records one event. Attrs carries kind-specific fields; amounts carries
// the numeric trail (ids, unit counts, splits) in a queryable array column.
func (s *EventService) Emit(kind string, account *models.AccountID, attrs models.JSONB, amounts ...int64) {
	entry := s.logger.WithField("event", kind)
	if account != nil {
		entry = entry.WithField("account", account.String())
	}
	for k, v := range attrs {
		entry = entry.WithField(k, v)
	}
	entry.Info("ledger event")

	if s.db == nil {
		return
	}

	event := &models.DomainEvent{
		Kind:    kind,
		Account: account,
		Attrs:   attrs,
		Amounts: pq.Int64Array(amounts),
	}
	if err := s.db.Create(event).Error; err != nil {
		s.logger.WithError(err).WithField("event", kind).Warn("failed to persist domain event")
	}
}

// List returns the most recent events of a kind, newest first. An empty kind
// matches all kinds.
func (s *EventService) List(kind string, limit int) ([]models.DomainEvent, error) {
	if s.db == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := s.db.Order("created_at DESC").Limit(limit)
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}

	var events []models.DomainEvent
	if err := query.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
