package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/servicosdigitais/plataforma/utils"
	"gorm.io/gorm"
)

// Ticket statuses
const (
	TicketStatusOpen     = "open"
	TicketStatusAnswered = "answered"
	TicketStatusClosed   = "closed"
)

// Ticket priorities
const (
	TicketPriorityLow    = "low"
	TicketPriorityNormal = "normal"
	TicketPriorityHigh   = "high"
)

// Ticket categories
const (
	TicketCategoryQuestion   = "question"
	TicketCategoryComplaint  = "complaint"
	TicketCategorySuggestion = "suggestion"
	TicketCategoryOther      = "other"
)

// Ticket is one message of a support conversation. Replies share the
// CorrelationID of the opening ticket; Attachments holds stored file paths.
type Ticket struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID          uuid.UUID `gorm:"type:uuid;uniqueIndex;not null;default:gen_random_uuid()" json:"uuid"`
	CorrelationID uuid.UUID `gorm:"type:uuid;index;not null" json:"correlation_id"`
	AccountID     uint      `gorm:"not null;index" json:"account_id"`

	Category string `gorm:"type:varchar(20);not null;default:'question'" json:"category"`
	Subject  string `gorm:"type:varchar(255);not null" json:"subject"`
	Message  string `gorm:"type:text;not null" json:"message"`
	Priority string `gorm:"type:varchar(10);not null;default:'normal'" json:"priority"`
	Status   string `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`

	Attachments pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"attachments"`

	// Set on admin replies
	RepliedByAdmin *bool      `gorm:"default:false;index" json:"replied_by_admin,omitempty"`
	RespondedAt    *time.Time `json:"responded_at,omitempty"`
	ResponderID    *uint      `gorm:"index" json:"responder_id,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	// Relations
	Account   *Account `gorm:"foreignKey:AccountID;references:ID;constraint:OnDelete:CASCADE" json:"account,omitempty"`
	Responder *Account `gorm:"foreignKey:ResponderID;references:ID" json:"-"`
}

func (Ticket) TableName() string { return "tickets" }

// BeforeCreate ensures UUID and CorrelationID are set
func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.UUID == uuid.Nil {
		t.UUID = uuid.New()
	}
	if t.CorrelationID == uuid.Nil {
		t.CorrelationID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = utils.UTCNow()
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = utils.UTCNow()
	}
	return nil
}

// TicketFilter represents filter criteria for ticket queries
type TicketFilter struct {
	ID             *uint      `json:"id,omitempty"`
	UUID           *uuid.UUID `json:"uuid,omitempty"`
	CorrelationID  *uuid.UUID `json:"correlation_id,omitempty"`
	AccountID      *uint      `json:"account_id,omitempty"`
	Subject        *string    `json:"subject,omitempty"`
	Status         *string    `json:"status,omitempty"`
	Priority       *string    `json:"priority,omitempty"`
	CreatedAfter   *time.Time `json:"created_after,omitempty"`
	CreatedBefore  *time.Time `json:"created_before,omitempty"`
	RepliedByAdmin *bool      `json:"replied_by_admin,omitempty"`
}
