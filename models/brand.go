package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ulixes/xad-sub000/utils"
	"gorm.io/gorm"
)

// Brand represents an advertiser account that funds campaigns from registered wallets
type Brand struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UUID         uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uk_brands_uuid" json:"uuid"`
	Name         string     `gorm:"type:varchar(255);not null" json:"name"`
	ContactEmail string     `gorm:"type:varchar(255)" json:"contact_email"`
	IsActive     *bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`

	// Relations
	Wallets   []BrandWallet `gorm:"foreignKey:BrandID" json:"wallets,omitempty"`
	Campaigns []Campaign    `gorm:"foreignKey:BrandID" json:"campaigns,omitempty"`
}

// TableName returns the table name for the model
func (Brand) TableName() string {
	return "brands"
}

// BeforeCreate is called before creating a new record
func (b *Brand) BeforeCreate(tx *gorm.DB) error {
	if b.UUID == uuid.Nil {
		b.UUID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (b *Brand) BeforeUpdate(tx *gorm.DB) error {
	b.UpdatedAt = utils.UTCNowPtr()
	return nil
}

// BrandWallet is a wallet address registered to a brand. Addresses are stored
// lower-cased so lookups stay case-insensitive.
type BrandWallet struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BrandID   uint      `gorm:"not null;index:idx_brand_wallets_brand_id" json:"brand_id"`
	Address   string    `gorm:"type:varchar(64);not null;uniqueIndex:uk_brand_wallets_address" json:"address"`
	Chain     string    `gorm:"type:varchar(32);not null;default:'base'" json:"chain"`
	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`

	Brand *Brand `gorm:"foreignKey:BrandID;references:ID" json:"brand,omitempty"`
}

// TableName returns the table name for the model
func (BrandWallet) TableName() string {
	return "brand_wallets"
}

// BeforeCreate normalizes the wallet address before persisting
func (w *BrandWallet) BeforeCreate(tx *gorm.DB) error {
	w.Address = strings.ToLower(w.Address)
	if w.CreatedAt.IsZero() {
		w.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BrandFilter represents filter criteria for brands
type BrandFilter struct {
	ID            *uint      `json:"id,omitempty"`
	UUID          *uuid.UUID `json:"uuid,omitempty"`
	Name          *string    `json:"name,omitempty"`
	IsActive      *bool      `json:"is_active,omitempty"`
	WalletAddress *string    `json:"wallet_address,omitempty"`
}
