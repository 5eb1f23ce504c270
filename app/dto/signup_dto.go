// Package dto contains Data Transfer Objects for API request and response structures
package dto

// SignupRequest represents the registration payload. Kind decides which of
// the document and name fields are required.
type SignupRequest struct {
	Kind            string `json:"kind" validate:"required,oneof=individual company provider" example:"individual"`
	FirstName       string `json:"first_name" validate:"omitempty,max=255,alpha_space" example:"Maria"`
	LastName        string `json:"last_name" validate:"omitempty,max=255,alpha_space" example:"Silva"`
	CPF             string `json:"cpf" validate:"omitempty,cpf" example:"529.982.247-25"`
	LegalName       string `json:"legal_name" validate:"omitempty,max=120" example:"Construtora Horizonte Ltda"`
	CNPJ            string `json:"cnpj" validate:"omitempty,cnpj" example:"11.222.333/0001-81"`
	Specialty       string `json:"specialty" validate:"omitempty,max=80" example:"Eletricista"`
	Email           string `json:"email" validate:"required,email,max=255" example:"maria@example.com.br"`
	Phone           string `json:"phone" validate:"omitempty,max=20" example:"+5511998765432"`
	Password        string `json:"password" validate:"required,password_strength" example:"SecurePass123!"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password" example:"SecurePass123!"`
}

// SignupResponse represents the outcome of a successful registration.
// PendingApproval is true for providers awaiting back-office activation.
type SignupResponse struct {
	Account         AccountDTO `json:"account"`
	PendingApproval bool       `json:"pending_approval" example:"false"`
}
