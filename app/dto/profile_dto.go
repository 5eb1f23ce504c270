// Package dto contains Data Transfer Objects for API request and response structures
package dto

// UpdateProfileRequest carries the editable profile fields. Nil means leave
// the field unchanged.
type UpdateProfileRequest struct {
	Email     *string `json:"email,omitempty" validate:"omitempty,email,max=255" example:"maria@example.com.br"`
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=255,alpha_space" example:"Maria"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=255,alpha_space" example:"Silva"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=20" example:"+5511998765432"`
	LegalName *string `json:"legal_name,omitempty" validate:"omitempty,max=120" example:"Construtora Horizonte Ltda"`
	Specialty *string `json:"specialty,omitempty" validate:"omitempty,max=80" example:"Eletricista"`
}

// ChangePasswordRequest represents the password change payload
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required" example:"OldPass123!"`
	NewPassword     string `json:"new_password" validate:"required,password_strength" example:"NewPass456!"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword" example:"NewPass456!"`
}

// HideSensitiveDataRequest toggles masking of documents in public listings
type HideSensitiveDataRequest struct {
	Hide bool `json:"hide" example:"true"`
}
