// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/servicosdigitais/plataforma/app/dto"
	"github.com/servicosdigitais/plataforma/app/services"
	"github.com/servicosdigitais/plataforma/models"
	"github.com/servicosdigitais/plataforma/repository"
	"github.com/servicosdigitais/plataforma/utils"
	"gorm.io/gorm"
)

// SignupFlow defines the registration business flow
type SignupFlow interface {
	Signup(ctx context.Context, req *dto.SignupRequest, metadata *ClientMetadata) (*dto.SignupResponse, error)
}

// SignupFlowImpl implements the registration flow
type SignupFlowImpl struct {
	accountRepo     repository.AccountRepository
	accountTypeRepo repository.AccountTypeRepository
	auditRepo       repository.AuditLogRepository
	passwordService services.PasswordService
	db              *gorm.DB
	clock           Clock
}

// NewSignupFlow creates a new signup flow
func NewSignupFlow(
	accountRepo repository.AccountRepository,
	accountTypeRepo repository.AccountTypeRepository,
	auditRepo repository.AuditLogRepository,
	passwordService services.PasswordService,
	db *gorm.DB,
	clock Clock,
) SignupFlow {
	if clock == nil {
		clock = SystemClock()
	}
	return &SignupFlowImpl{
		accountRepo:     accountRepo,
		accountTypeRepo: accountTypeRepo,
		auditRepo:       auditRepo,
		passwordService: passwordService,
		db:              db,
		clock:           clock,
	}
}

// Signup registers a new account of any kind. Individuals and companies come
// out active; providers start inactive and wait for back-office approval.
func (f *SignupFlowImpl) Signup(ctx context.Context, req *dto.SignupRequest, metadata *ClientMetadata) (*dto.SignupResponse, error) {
	accountType, err := f.accountTypeRepo.ByTypeName(ctx, req.Kind)
	if err != nil {
		return nil, NewBusinessError("SIGNUP_TYPE_LOOKUP_FAILED", "failed to look up account kind", err)
	}
	if accountType == nil {
		return nil, ErrInvalidAccountKind
	}

	account, err := f.buildAccount(req, accountType)
	if err != nil {
		return nil, err
	}

	if err := f.checkUniqueness(ctx, req, accountType.TypeName); err != nil {
		return nil, err
	}

	if !utils.IsStrongPassword(req.Password) {
		return nil, ErrWeakPassword
	}
	if req.Password != req.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	hash, err := f.passwordService.Hash(req.Password)
	if err != nil {
		return nil, NewBusinessError("SIGNUP_HASH_FAILED", "failed to hash password", err)
	}
	account.PasswordHash = hash

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.accountRepo.Save(txCtx, account); err != nil {
			return fmt.Errorf("failed to save account: %w", err)
		}

		f.auditSignup(txCtx, account, metadata)
		return nil
	})
	if err != nil {
		return nil, NewBusinessError("SIGNUP_FAILED", "failed to register account", err)
	}

	account.AccountType = *accountType
	return &dto.SignupResponse{
		Account:         ToAccountDTO(*account),
		PendingApproval: !utils.IsTrue(account.IsActive),
	}, nil
}

// buildAccount validates the kind-specific fields and assembles the model.
func (f *SignupFlowImpl) buildAccount(req *dto.SignupRequest, accountType *models.AccountType) (*models.Account, error) {
	now := f.clock.Now()
	account := &models.Account{
		UUID:              uuid.New(),
		AccountTypeID:     accountType.ID,
		Email:             strings.ToLower(strings.TrimSpace(req.Email)),
		ProfilePhoto:      utils.DefaultProfilePhoto,
		IsActive:          utils.ToPtr(true),
		IsAdmin:           utils.ToPtr(false),
		HideSensitiveData: utils.ToPtr(false),
		IsExcluded:        utils.ToPtr(false),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		account.Phone = utils.ToPtr(phone)
	}

	switch accountType.TypeName {
	case models.AccountTypeIndividual:
		cpf := utils.StripNonDigits(req.CPF)
		if !utils.ValidateCPF(cpf) {
			return nil, ErrInvalidDocument
		}
		firstName := strings.TrimSpace(req.FirstName)
		if firstName == "" {
			return nil, ErrFirstNameRequired
		}
		account.CPF = utils.ToPtr(cpf)
		account.FirstName = firstName
		if last := strings.TrimSpace(req.LastName); last != "" {
			account.LastName = utils.ToPtr(last)
		}

	case models.AccountTypeCompany:
		cnpj := utils.StripNonDigits(req.CNPJ)
		if !utils.ValidateCNPJ(cnpj) {
			return nil, ErrInvalidDocument
		}
		legalName := strings.TrimSpace(req.LegalName)
		if legalName == "" {
			return nil, ErrLegalNameRequired
		}
		account.CNPJ = utils.ToPtr(cnpj)
		account.LegalName = utils.ToPtr(legalName)
		account.FirstName = legalName

	case models.AccountTypeProvider:
		cnpj := utils.StripNonDigits(req.CNPJ)
		if !utils.ValidateCNPJ(cnpj) {
			return nil, ErrInvalidDocument
		}
		specialty := strings.TrimSpace(req.Specialty)
		if specialty == "" {
			return nil, ErrSpecialtyRequired
		}
		legalName := strings.TrimSpace(req.LegalName)
		if legalName == "" {
			return nil, ErrLegalNameRequired
		}
		account.CNPJ = utils.ToPtr(cnpj)
		account.LegalName = utils.ToPtr(legalName)
		account.Specialty = utils.ToPtr(specialty)
		account.FirstName = legalName
		// Providers wait for an administrator to approve the listing.
		account.IsActive = utils.ToPtr(false)

	default:
		return nil, ErrInvalidAccountKind
	}

	return account, nil
}

// checkUniqueness enforces the registration uniqueness rules: email is unique
// across every kind, documents are unique within their kind.
func (f *SignupFlowImpl) checkUniqueness(ctx context.Context, req *dto.SignupRequest, kind string) error {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	existing, err := f.accountRepo.ByEmail(ctx, email)
	if err != nil {
		return NewBusinessError("SIGNUP_EMAIL_CHECK_FAILED", "failed to check email uniqueness", err)
	}
	if existing != nil {
		return ErrEmailAlreadyExists
	}

	switch kind {
	case models.AccountTypeIndividual:
		cpf := utils.StripNonDigits(req.CPF)
		existing, err := f.accountRepo.ByCPF(ctx, cpf)
		if err != nil {
			return NewBusinessError("SIGNUP_CPF_CHECK_FAILED", "failed to check CPF uniqueness", err)
		}
		if existing != nil {
			return ErrDocumentAlreadyExists
		}
	case models.AccountTypeCompany, models.AccountTypeProvider:
		cnpj := utils.StripNonDigits(req.CNPJ)
		existing, err := f.accountRepo.ByCNPJ(ctx, kind, cnpj)
		if err != nil {
			return NewBusinessError("SIGNUP_CNPJ_CHECK_FAILED", "failed to check CNPJ uniqueness", err)
		}
		if existing != nil {
			return ErrDocumentAlreadyExists
		}
	}

	return nil
}

func (f *SignupFlowImpl) auditSignup(ctx context.Context, account *models.Account, metadata *ClientMetadata) {
	log := &models.AuditLog{
		AccountID:   &account.ID,
		Action:      models.AuditActionSignupCompleted,
		Description: utils.ToPtr(fmt.Sprintf("account registered with email %s", account.Email)),
		Success:     utils.ToPtr(true),
		CreatedAt:   f.clock.Now(),
	}
	if metadata != nil {
		if metadata.IPAddress != "" {
			log.IPAddress = utils.ToPtr(metadata.IPAddress)
		}
		if metadata.UserAgent != "" {
			log.UserAgent = utils.ToPtr(metadata.UserAgent)
		}
		if metadata.RequestID != "" {
			log.RequestID = utils.ToPtr(metadata.RequestID)
		}
	}
	_ = f.auditRepo.Save(ctx, log)
}
