// Package dto contains Data Transfer Objects for API request and response structures
package dto

// OfferedServiceDTO represents one service in a provider's listing
type OfferedServiceDTO struct {
	ID          uint    `json:"id" example:"42"`
	ProviderID  uint    `json:"provider_id" example:"7"`
	Name        string  `json:"name" example:"Instalação elétrica residencial"`
	Price       float64 `json:"price" example:"250.00"`
	Description string  `json:"description,omitempty" example:"Instalação completa com material incluso"`
}

// ProviderDTO represents one provider in the public directory. CNPJ is
// omitted when the provider hides sensitive data.
type ProviderDTO struct {
	UUID         string              `json:"uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	LegalName    string              `json:"legal_name" example:"Eletro Silva ME"`
	Specialty    string              `json:"specialty" example:"Eletricista"`
	Email        string              `json:"email" example:"contato@eletrosilva.com.br"`
	Phone        *string             `json:"phone,omitempty" example:"+5511998765432"`
	CNPJ         *string             `json:"cnpj,omitempty" example:"11222333000181"`
	ProfilePhoto string              `json:"profile_photo" example:"default.jpg"`
	Services     []OfferedServiceDTO `json:"services"`
}

// ProviderDirectoryResponse is the paginated public directory
type ProviderDirectoryResponse struct {
	Providers []ProviderDTO `json:"providers"`
	Total     int64         `json:"total" example:"57"`
	Page      int           `json:"page" example:"1"`
	PageSize  int           `json:"page_size" example:"20"`
}

// CreateServiceRequest adds a service to the provider's listing
type CreateServiceRequest struct {
	Name        string  `json:"name" validate:"required,max=100" example:"Instalação elétrica residencial"`
	Price       float64 `json:"price" validate:"required,gt=0" example:"250.00"`
	Description string  `json:"description" validate:"required,max=500" example:"Instalação completa com material incluso"`
}

// UpdateServiceRequest edits a service. Nil means leave the field unchanged.
type UpdateServiceRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,max=100"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gt=0"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=500"`
}
