package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ulixes/xad-sub000/utils"
	"gorm.io/gorm"
)

// PaymentStatus represents the status of a payment
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
)

// Valid checks if the status is valid
func (s PaymentStatus) Valid() bool {
	return s == PaymentStatusCompleted
}

// Scan implements the sql.Scanner interface for PaymentStatus
func (s *PaymentStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = PaymentStatus(v)
	case []byte:
		*s = PaymentStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into PaymentStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for PaymentStatus
func (s PaymentStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid PaymentStatus: %s", s)
	}
	return string(s), nil
}

// Payment is the on-chain deposit that funded a campaign. TxHash is unique and
// serves as the natural idempotency key for webhook re-delivery.
type Payment struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:uk_payments_uuid" json:"uuid"`
	CampaignID  uint          `gorm:"not null;index:idx_payments_campaign_id" json:"campaign_id"`
	BrandID     uint          `gorm:"not null;index:idx_payments_brand_id" json:"brand_id"`
	FromAddress string        `gorm:"type:varchar(64);not null" json:"from_address"`
	ToAddress   string        `gorm:"type:varchar(64);not null" json:"to_address"`
	AmountMinor uint64        `gorm:"not null" json:"amount_minor"`
	Currency    string        `gorm:"type:varchar(16);not null" json:"currency"`
	TxHash      string        `gorm:"type:varchar(80);not null;uniqueIndex:uk_payments_tx_hash" json:"tx_hash"`
	BlockNumber uint64        `gorm:"not null" json:"block_number"`
	Status      PaymentStatus `gorm:"type:varchar(16);not null;default:'completed'" json:"status"`
	PaidAt      time.Time     `gorm:"not null" json:"paid_at"`
	CreatedAt   time.Time     `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`

	Campaign *Campaign `gorm:"foreignKey:CampaignID;references:ID" json:"campaign,omitempty"`
	Brand    *Brand    `gorm:"foreignKey:BrandID;references:ID" json:"brand,omitempty"`
}

// TableName returns the table name for the model
func (Payment) TableName() string {
	return "payments"
}

// BeforeCreate is called before creating a new record
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == uuid.Nil {
		p.UUID = uuid.New()
	}
	p.FromAddress = strings.ToLower(p.FromAddress)
	p.ToAddress = strings.ToLower(p.ToAddress)
	p.TxHash = strings.ToLower(p.TxHash)
	if p.Status == "" {
		p.Status = PaymentStatusCompleted
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = utils.UTCNow()
	}
	return nil
}

// PaymentFilter represents filter criteria for payments
type PaymentFilter struct {
	ID            *uint      `json:"id,omitempty"`
	CampaignID    *uint      `json:"campaign_id,omitempty"`
	BrandID       *uint      `json:"brand_id,omitempty"`
	TxHash        *string    `json:"tx_hash,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}
