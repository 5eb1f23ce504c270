// Package dto contains Data Transfer Objects for API request and response structures
package dto

// AccountDTO represents account information returned by the API. Kind-specific
// fields are nil for the kinds that do not carry them.
type AccountDTO struct {
	ID           uint    `json:"id" example:"123"`
	UUID         string  `json:"uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Email        string  `json:"email" example:"maria@example.com.br"`
	FirstName    string  `json:"first_name" example:"Maria"`
	LastName     *string `json:"last_name,omitempty" example:"Silva"`
	Phone        *string `json:"phone,omitempty" example:"+5511998765432"`
	AccountType  string  `json:"account_type" example:"individual"`
	ProfilePhoto string  `json:"profile_photo" example:"default.jpg"`
	CPF          *string `json:"cpf,omitempty" example:"52998224725"`
	LegalName    *string `json:"legal_name,omitempty" example:"Construtora Horizonte Ltda"`
	CNPJ         *string `json:"cnpj,omitempty" example:"11222333000181"`
	Specialty    *string `json:"specialty,omitempty" example:"Eletricista"`
	IsActive     *bool   `json:"is_active" example:"true"`
	IsAdmin      *bool   `json:"is_admin" example:"false"`
	CreatedAt    string  `json:"created_at" example:"2024-01-15T10:30:00Z"`
}

// SessionDTO represents the tokens of an established session
type SessionDTO struct {
	SessionToken string  `json:"access_token"`
	RefreshToken *string `json:"refresh_token,omitempty"`
	ExpiresIn    int     `json:"expires_in" example:"86400"`
	TokenType    string  `json:"token_type" example:"Bearer"`
	CreatedAt    string  `json:"created_at" example:"2024-01-15T10:30:00Z"`
}
