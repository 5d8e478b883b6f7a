package repository

import (
	"context"
	"fmt"
	"time"

	"parity-app/internal/domain/billing"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Events is the log of webhook events whose side effects were applied.
type Events struct {
	db *gorm.DB
}

func NewEvents(db *gorm.DB) *Events {
	return &Events{db: db}
}

func (r *Events) Seen(ctx context.Context, provider, eventID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&billing.WebhookEvent{}).
		Where("id = ? AND provider = ?", eventID, provider).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check webhook event: %w", err)
	}
	return n > 0, nil
}

// Record marks an event processed. Recording the same event twice is a no-op.
func (r *Events) Record(ctx context.Context, provider, eventID, eventType string, payload []byte) error {
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	e := billing.WebhookEvent{
		ID:          eventID,
		Provider:    provider,
		Type:        eventType,
		Payload:     datatypes.JSON(payload),
		ProcessedAt: time.Now().UTC(),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&e).Error
	if err != nil {
		return fmt.Errorf("record webhook event: %w", err)
	}
	return nil
}
