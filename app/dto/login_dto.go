// Package dto contains Data Transfer Objects for API request and response structures
package dto

// LoginRequest represents the request payload for login. The identifier may
// be an email address, a CPF, or a CNPJ, with or without punctuation.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required,min=1,max=255" example:"maria@example.com.br or 529.982.247-25"`
	Password   string `json:"password" validate:"required,min=1,max=100" example:"SecurePass123!"`
	Remember   bool   `json:"remember" example:"false"`
}

// LoginResponse represents a successful authentication
type LoginResponse struct {
	Account AccountDTO `json:"account"`
	Session SessionDTO `json:"session"`
}

// RefreshRequest represents the request to rotate session tokens
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// LoginRejectionData carries the machine-readable detail of a refused login
type LoginRejectionData struct {
	Reason            string `json:"reason" example:"INVALID_CREDENTIALS"`
	RemainingAttempts *int   `json:"remaining_attempts,omitempty" example:"3"`
	MinutesRemaining  *int   `json:"minutes_remaining,omitempty" example:"15"`
}
