// Package models contains domain entities and business models for the marketplace
package models

import (
	"time"

	"github.com/google/uuid"
)

// Account is the shared identity row for every registered user. The account
// kind is fixed at registration and decides which of the kind-specific
// columns are populated: CPF for individuals, CNPJ and LegalName for
// companies, CNPJ and Specialty for service providers.
type Account struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	UUID          uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:uk_accounts_uuid" json:"uuid"`
	AccountTypeID uint        `gorm:"not null;index:idx_accounts_account_type_id;uniqueIndex:uk_accounts_cnpj_kind" json:"account_type_id"`
	AccountType   AccountType `gorm:"foreignKey:AccountTypeID;references:ID" json:"account_type,omitempty"`

	// Individual fields
	CPF *string `gorm:"size:11;uniqueIndex:uk_accounts_cpf" json:"cpf,omitempty"`

	// Company fields
	LegalName *string `gorm:"size:120" json:"legal_name,omitempty"`

	// Shared by companies and providers; uniqueness is scoped per kind, so
	// the index spans the pair rather than the document alone
	CNPJ *string `gorm:"size:14;uniqueIndex:uk_accounts_cnpj_kind" json:"cnpj,omitempty"`

	// Provider fields
	Specialty *string `gorm:"size:80" json:"specialty,omitempty"`

	// Common fields (required for all kinds)
	FirstName    string  `gorm:"size:255;not null" json:"first_name"`
	LastName     *string `gorm:"size:255" json:"last_name,omitempty"`
	Phone        *string `gorm:"size:20" json:"phone,omitempty"`
	// Email uniqueness across kinds is enforced procedurally at
	// registration and profile-edit time, not by the schema
	Email        string  `gorm:"size:255;not null;index:idx_accounts_email" json:"email"`
	PasswordHash string  `gorm:"size:255;not null" json:"-"` // Never serialize password hash
	ProfilePhoto string  `gorm:"size:255;not null;default:'default.jpg'" json:"profile_photo"`

	// Status and preferences
	IsActive          *bool `gorm:"default:true;index:idx_accounts_is_active" json:"is_active"`
	IsAdmin           *bool `gorm:"default:false" json:"is_admin"`
	HideSensitiveData *bool `gorm:"default:false" json:"hide_sensitive_data"`
	IsExcluded        *bool `gorm:"default:false" json:"-"` // soft-delete marker

	// Lockout bookkeeping. LockedUntil in the future is the sole authority
	// for "is locked"; the counter alone never blocks a login.
	FailedAttempts int        `gorm:"not null;default:0" json:"-"`
	LastFailureAt  *time.Time `json:"-"`
	LockedUntil    *time.Time `json:"-"`

	// Timestamps
	CreatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_accounts_created_at" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`

	// Relations
	OfferedServices []OfferedService `gorm:"foreignKey:ProviderID;constraint:OnDelete:CASCADE" json:"offered_services,omitempty"`
	Sessions        []AccountSession `gorm:"foreignKey:AccountID" json:"-"`
	AuditLogs       []AuditLog       `gorm:"foreignKey:AccountID" json:"-"`
}

func (Account) TableName() string {
	return "accounts"
}

// AccountFilter represents filter criteria for account queries
type AccountFilter struct {
	ID              *uint
	UUID            *uuid.UUID
	AccountTypeID   *uint
	AccountTypeName *string
	Email           *string
	CPF             *string
	CNPJ            *string
	Phone           *string
	IsActive        *bool
	IsAdmin         *bool
	IsExcluded      *bool
	CreatedAfter    *time.Time
	CreatedBefore   *time.Time

	// Search matches names, emails, and documents case-insensitively
	Search *string
}

func (a *Account) IsIndividual() bool {
	return a.AccountType.TypeName == AccountTypeIndividual
}

func (a *Account) IsCompany() bool {
	return a.AccountType.TypeName == AccountTypeCompany
}

func (a *Account) IsProvider() bool {
	return a.AccountType.TypeName == AccountTypeProvider
}

// RequiresCNPJ reports whether this kind carries a 14-digit document.
func (a *Account) RequiresCNPJ() bool {
	return a.IsCompany() || a.IsProvider()
}

// DisplayName is the name shown in listings: the legal name for companies
// and providers when present, otherwise first plus last name.
func (a *Account) DisplayName() string {
	if a.RequiresCNPJ() && a.LegalName != nil && *a.LegalName != "" {
		return *a.LegalName
	}
	if a.LastName != nil && *a.LastName != "" {
		return a.FirstName + " " + *a.LastName
	}
	return a.FirstName
}
