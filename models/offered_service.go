// Package models contains domain entities and business models for the marketplace
package models

import (
	"time"
)

// OfferedService is one service advertised by a provider account. Rows are
// owned by the provider and removed with it.
type OfferedService struct {
	ID         uint     `gorm:"primaryKey" json:"id"`
	ProviderID uint     `gorm:"not null;index:idx_offered_services_provider_id" json:"provider_id"`
	Provider   *Account `gorm:"foreignKey:ProviderID;references:ID" json:"-"`

	Name string `gorm:"size:100;not null" json:"name"`

	// Price is stored with two decimal places (e.g., 150.00)
	Price       float64 `gorm:"type:numeric(10,2);not null" json:"price"`
	Description *string `gorm:"type:text" json:"description,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (OfferedService) TableName() string {
	return "offered_services"
}

// OfferedServiceFilter represents filter criteria for offered-service queries
type OfferedServiceFilter struct {
	ID         *uint
	ProviderID *uint
	Name       *string
}
