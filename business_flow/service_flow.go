// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/servicosdigitais/plataforma/app/dto"
	"github.com/servicosdigitais/plataforma/models"
	"github.com/servicosdigitais/plataforma/repository"
	"github.com/servicosdigitais/plataforma/utils"
	"gorm.io/gorm"
)

const (
	maxServiceNameLen        = 100
	maxServiceDescriptionLen = 500
)

// ServiceFlow defines the provider directory and offered-service management
type ServiceFlow interface {
	ListProviders(ctx context.Context, page, pageSize int) (*dto.ProviderDirectoryResponse, error)
	GetProvider(ctx context.Context, providerUUID string) (*dto.ProviderDTO, error)
	ListOwnServices(ctx context.Context, providerID uint) ([]dto.OfferedServiceDTO, error)
	CreateService(ctx context.Context, providerID uint, req *dto.CreateServiceRequest) (*dto.OfferedServiceDTO, error)
	UpdateService(ctx context.Context, providerID, serviceID uint, req *dto.UpdateServiceRequest) (*dto.OfferedServiceDTO, error)
	DeleteService(ctx context.Context, providerID, serviceID uint) error
}

// ServiceFlowImpl implements ServiceFlow
type ServiceFlowImpl struct {
	accountRepo repository.AccountRepository
	serviceRepo repository.OfferedServiceRepository
	db          *gorm.DB
	clock       Clock
}

// NewServiceFlow creates a new service flow
func NewServiceFlow(
	accountRepo repository.AccountRepository,
	serviceRepo repository.OfferedServiceRepository,
	db *gorm.DB,
	clock Clock,
) ServiceFlow {
	if clock == nil {
		clock = SystemClock()
	}
	return &ServiceFlowImpl{
		accountRepo: accountRepo,
		serviceRepo: serviceRepo,
		db:          db,
		clock:       clock,
	}
}

// ListProviders returns the public directory of approved providers with
// their offered services. Only active providers appear.
func (f *ServiceFlowImpl) ListProviders(ctx context.Context, page, pageSize int) (*dto.ProviderDirectoryResponse, error) {
	if page < 1 {
		return nil, ErrInvalidPage
	}
	if pageSize < 1 || pageSize > 100 {
		return nil, ErrInvalidPageSize
	}

	offset := (page - 1) * pageSize
	providers, err := f.accountRepo.ListActiveByKind(ctx, models.AccountTypeProvider, pageSize, offset)
	if err != nil {
		return nil, NewBusinessError("DIRECTORY_LIST_FAILED", "failed to list providers", err)
	}

	total, err := f.accountRepo.Count(ctx, models.AccountFilter{
		AccountTypeName: utils.ToPtr(models.AccountTypeProvider),
		IsActive:        utils.ToPtr(true),
		IsExcluded:      utils.ToPtr(false),
	})
	if err != nil {
		return nil, NewBusinessError("DIRECTORY_COUNT_FAILED", "failed to count providers", err)
	}

	entries := make([]dto.ProviderDTO, 0, len(providers))
	for _, provider := range providers {
		entry, err := f.toProviderDTO(ctx, provider)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}

	return &dto.ProviderDirectoryResponse{
		Providers: entries,
		Total:     total,
		Page:      page,
		PageSize:  pageSize,
	}, nil
}

// GetProvider returns one approved provider's public listing
func (f *ServiceFlowImpl) GetProvider(ctx context.Context, providerUUID string) (*dto.ProviderDTO, error) {
	account, err := f.accountRepo.ByUUID(ctx, providerUUID)
	if err != nil {
		return nil, NewBusinessError("PROVIDER_LOOKUP_FAILED", "failed to load provider", err)
	}
	if account == nil || !account.IsProvider() || !utils.IsTrue(account.IsActive) || utils.IsTrue(account.IsExcluded) {
		return nil, ErrAccountNotFound
	}
	return f.toProviderDTO(ctx, account)
}

// ListOwnServices returns the provider's own offered services
func (f *ServiceFlowImpl) ListOwnServices(ctx context.Context, providerID uint) ([]dto.OfferedServiceDTO, error) {
	if _, err := f.requireProvider(ctx, providerID); err != nil {
		return nil, err
	}

	services, err := f.serviceRepo.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, NewBusinessError("SERVICE_LIST_FAILED", "failed to list services", err)
	}

	out := make([]dto.OfferedServiceDTO, 0, len(services))
	for _, svc := range services {
		out = append(out, toOfferedServiceDTO(svc))
	}
	return out, nil
}

// CreateService adds a service to the provider's listing
func (f *ServiceFlowImpl) CreateService(ctx context.Context, providerID uint, req *dto.CreateServiceRequest) (*dto.OfferedServiceDTO, error) {
	if _, err := f.requireProvider(ctx, providerID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" || utf8.RuneCountInString(name) > maxServiceNameLen {
		return nil, ErrInvalidServiceName
	}
	if !validServicePrice(req.Price) {
		return nil, ErrInvalidServicePrice
	}
	description := strings.TrimSpace(req.Description)
	if description == "" || utf8.RuneCountInString(description) > maxServiceDescriptionLen {
		return nil, ErrInvalidServiceDescription
	}

	now := f.clock.Now()
	service := &models.OfferedService{
		ProviderID:  providerID,
		Name:        name,
		Price:       req.Price,
		Description: utils.ToPtr(description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := f.serviceRepo.Save(ctx, service); err != nil {
		return nil, NewBusinessError("SERVICE_CREATE_FAILED", "failed to create service", err)
	}

	created := toOfferedServiceDTO(service)
	return &created, nil
}

// UpdateService edits one of the provider's own services
func (f *ServiceFlowImpl) UpdateService(ctx context.Context, providerID, serviceID uint, req *dto.UpdateServiceRequest) (*dto.OfferedServiceDTO, error) {
	service, err := f.requireOwnedService(ctx, providerID, serviceID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" || utf8.RuneCountInString(name) > maxServiceNameLen {
			return nil, ErrInvalidServiceName
		}
		service.Name = name
	}
	if req.Price != nil {
		if !validServicePrice(*req.Price) {
			return nil, ErrInvalidServicePrice
		}
		service.Price = *req.Price
	}
	if req.Description != nil {
		desc := strings.TrimSpace(*req.Description)
		if desc == "" || utf8.RuneCountInString(desc) > maxServiceDescriptionLen {
			return nil, ErrInvalidServiceDescription
		}
		service.Description = utils.ToPtr(desc)
	}
	service.UpdatedAt = f.clock.Now()

	if err := f.serviceRepo.Update(ctx, service); err != nil {
		return nil, NewBusinessError("SERVICE_UPDATE_FAILED", "failed to update service", err)
	}

	updated := toOfferedServiceDTO(service)
	return &updated, nil
}

// DeleteService removes one of the provider's own services
func (f *ServiceFlowImpl) DeleteService(ctx context.Context, providerID, serviceID uint) error {
	if _, err := f.requireOwnedService(ctx, providerID, serviceID); err != nil {
		return err
	}
	if err := f.serviceRepo.Delete(ctx, serviceID); err != nil {
		return NewBusinessError("SERVICE_DELETE_FAILED", "failed to delete service", err)
	}
	return nil
}

func (f *ServiceFlowImpl) requireProvider(ctx context.Context, accountID uint) (*models.Account, error) {
	account, err := f.accountRepo.ByID(ctx, accountID)
	if err != nil {
		return nil, NewBusinessError("ACCOUNT_LOOKUP_FAILED", "failed to load account", err)
	}
	if account == nil || utils.IsTrue(account.IsExcluded) {
		return nil, ErrAccountNotFound
	}
	if !account.IsProvider() {
		return nil, ErrNotAProvider
	}
	return account, nil
}

func (f *ServiceFlowImpl) requireOwnedService(ctx context.Context, providerID, serviceID uint) (*models.OfferedService, error) {
	if _, err := f.requireProvider(ctx, providerID); err != nil {
		return nil, err
	}

	service, err := f.serviceRepo.ByID(ctx, serviceID)
	if err != nil {
		return nil, NewBusinessError("SERVICE_LOOKUP_FAILED", "failed to load service", err)
	}
	if service == nil {
		return nil, ErrServiceNotFound
	}
	if service.ProviderID != providerID {
		return nil, ErrServiceAccessDenied
	}
	return service, nil
}

func (f *ServiceFlowImpl) toProviderDTO(ctx context.Context, account *models.Account) (*dto.ProviderDTO, error) {
	services, err := f.serviceRepo.ListByProvider(ctx, account.ID)
	if err != nil {
		return nil, NewBusinessError("SERVICE_LIST_FAILED", "failed to list provider services", err)
	}

	entry := dto.ProviderDTO{
		UUID:         account.UUID.String(),
		LegalName:    account.DisplayName(),
		Email:        account.Email,
		Phone:        account.Phone,
		ProfilePhoto: account.ProfilePhoto,
		Services:     make([]dto.OfferedServiceDTO, 0, len(services)),
	}
	if account.Specialty != nil {
		entry.Specialty = *account.Specialty
	}
	// Providers can mask their registration document in the public listing.
	if !utils.IsTrue(account.HideSensitiveData) {
		entry.CNPJ = account.CNPJ
	}
	for _, svc := range services {
		entry.Services = append(entry.Services, toOfferedServiceDTO(svc))
	}
	return &entry, nil
}

func toOfferedServiceDTO(service *models.OfferedService) dto.OfferedServiceDTO {
	d := dto.OfferedServiceDTO{
		ID:         service.ID,
		ProviderID: service.ProviderID,
		Name:       service.Name,
		Price:      service.Price,
	}
	if service.Description != nil {
		d.Description = *service.Description
	}
	return d
}

// validServicePrice accepts positive amounts with at most two decimal places.
func validServicePrice(price float64) bool {
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return false
	}
	cents := price * 100
	return math.Abs(cents-math.Round(cents)) < 1e-6
}
