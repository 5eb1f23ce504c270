// Package dto contains Data Transfer Objects for API request and response structures
package dto

// AdminAccountFilter narrows back-office account listings
type AdminAccountFilter struct {
	Kind     *string `json:"kind,omitempty" validate:"omitempty,oneof=individual company provider"`
	IsActive *bool   `json:"is_active,omitempty"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Search   *string `json:"search,omitempty" validate:"omitempty,max=255"`
}

// AdminAccountListResponse is a paginated account listing for the back office
type AdminAccountListResponse struct {
	Accounts []AccountDTO `json:"accounts"`
	Total    int64        `json:"total" example:"340"`
	Page     int          `json:"page" example:"1"`
	PageSize int          `json:"page_size" example:"20"`
}

// SetActiveStatusRequest enables or disables an account
type SetActiveStatusRequest struct {
	Active bool `json:"active" example:"true"`
}

// SetAdminStatusRequest grants or revokes back-office access
type SetAdminStatusRequest struct {
	Admin bool `json:"admin" example:"true"`
}
