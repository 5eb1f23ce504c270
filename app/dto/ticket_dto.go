// Package dto contains Data Transfer Objects for API request and response structures
package dto

// TicketDTO represents one support ticket message
type TicketDTO struct {
	UUID           string   `json:"uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	CorrelationID  string   `json:"correlation_id" example:"6ba7b810-9dad-11d1-80b4-00c04fd430c8"`
	AccountID      uint     `json:"account_id" example:"123"`
	Category       string   `json:"category" example:"question"`
	Subject        string   `json:"subject" example:"Dúvida sobre aprovação de cadastro"`
	Message        string   `json:"message"`
	Priority       string   `json:"priority" example:"normal"`
	Status         string   `json:"status" example:"open"`
	Attachments    []string `json:"attachments"`
	RepliedByAdmin bool     `json:"replied_by_admin" example:"false"`
	RespondedAt    *string  `json:"responded_at,omitempty" example:"2024-01-16T09:00:00Z"`
	CreatedAt      string   `json:"created_at" example:"2024-01-15T10:30:00Z"`

	// Populated only in back-office listings
	RequesterName  string `json:"requester_name,omitempty" example:"Maria Silva"`
	RequesterEmail string `json:"requester_email,omitempty" example:"maria@example.com.br"`
}

// CreateTicketRequest opens a new support conversation
type CreateTicketRequest struct {
	Category    string   `json:"category" validate:"omitempty,oneof=question complaint suggestion other" example:"question"`
	Subject     string   `json:"subject" validate:"required,max=255" example:"Dúvida sobre aprovação de cadastro"`
	Message     string   `json:"message" validate:"required,max=10000"`
	Priority    string   `json:"priority" validate:"omitempty,oneof=low normal high" example:"normal"`
	Attachments []string `json:"attachments" validate:"omitempty,max=10,dive,max=500"`
}

// ReplyTicketRequest appends a message to an existing conversation
type ReplyTicketRequest struct {
	Message     string   `json:"message" validate:"required,max=10000"`
	Attachments []string `json:"attachments" validate:"omitempty,max=10,dive,max=500"`
}

// AdminTicketFilter narrows back-office ticket listings
type AdminTicketFilter struct {
	Status    *string `json:"status,omitempty" validate:"omitempty,oneof=open answered closed"`
	Priority  *string `json:"priority,omitempty" validate:"omitempty,oneof=low normal high"`
	AccountID *uint   `json:"account_id,omitempty"`
}

// TicketListResponse is a paginated ticket listing
type TicketListResponse struct {
	Tickets  []TicketDTO `json:"tickets"`
	Total    int64       `json:"total" example:"12"`
	Page     int         `json:"page" example:"1"`
	PageSize int         `json:"page_size" example:"20"`
}
