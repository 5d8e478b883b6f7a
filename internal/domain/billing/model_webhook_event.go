package billing

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ProviderStripe = "stripe"
	ProviderClerk  = "clerk"
)

// WebhookEvent records a provider event whose side effects were applied.
type WebhookEvent struct {
	ID          string         `gorm:"primaryKey"`
	Provider    string         `gorm:"primaryKey;size:20"`
	Type        string         `gorm:"not null;index"`
	Payload     datatypes.JSON `gorm:"not null"`
	ProcessedAt time.Time      `gorm:"not null"`
}
