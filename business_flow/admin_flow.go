// Package businessflow contains the business logic for the application.
package businessflow

import (
	"bytes"
	"context"
	"fmt"

	"github.com/servicosdigitais/plataforma/app/dto"
	"github.com/servicosdigitais/plataforma/models"
	"github.com/servicosdigitais/plataforma/repository"
	"github.com/servicosdigitais/plataforma/utils"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// AdminFlow defines the back-office account management flow. Every operation
// requires the acting account to be an administrator.
type AdminFlow interface {
	ListAccounts(ctx context.Context, adminID uint, filter *dto.AdminAccountFilter, page, pageSize int) (*dto.AdminAccountListResponse, error)
	SetActiveStatus(ctx context.Context, adminID, targetID uint, active bool, metadata *ClientMetadata) error
	SetAdminStatus(ctx context.Context, adminID, targetID uint, admin bool, metadata *ClientMetadata) error
	SoftDeleteAccount(ctx context.Context, adminID, targetID uint, metadata *ClientMetadata) error
	HardDeleteAccount(ctx context.Context, adminID, targetID uint, metadata *ClientMetadata) error
	ExportAccountsXLSX(ctx context.Context, adminID uint, filter *dto.AdminAccountFilter) ([]byte, error)
}

// AdminFlowImpl implements AdminFlow
type AdminFlowImpl struct {
	accountRepo repository.AccountRepository
	sessionRepo repository.AccountSessionRepository
	serviceRepo repository.OfferedServiceRepository
	auditRepo   repository.AuditLogRepository
	db          *gorm.DB
	clock       Clock
}

// NewAdminFlow creates a new admin flow
func NewAdminFlow(
	accountRepo repository.AccountRepository,
	sessionRepo repository.AccountSessionRepository,
	serviceRepo repository.OfferedServiceRepository,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
	clock Clock,
) AdminFlow {
	if clock == nil {
		clock = SystemClock()
	}
	return &AdminFlowImpl{
		accountRepo: accountRepo,
		sessionRepo: sessionRepo,
		serviceRepo: serviceRepo,
		auditRepo:   auditRepo,
		db:          db,
		clock:       clock,
	}
}

// ListAccounts returns accounts for the back office, newest first
func (f *AdminFlowImpl) ListAccounts(ctx context.Context, adminID uint, filter *dto.AdminAccountFilter, page, pageSize int) (*dto.AdminAccountListResponse, error) {
	if err := f.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	if page < 1 {
		return nil, ErrInvalidPage
	}
	if pageSize < 1 || pageSize > 100 {
		return nil, ErrInvalidPageSize
	}

	modelFilter := toAccountFilter(filter)
	accounts, err := f.accountRepo.ByFilter(ctx, modelFilter, "created_at DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("ADMIN_LIST_FAILED", "failed to list accounts", err)
	}
	total, err := f.accountRepo.Count(ctx, modelFilter)
	if err != nil {
		return nil, NewBusinessError("ADMIN_COUNT_FAILED", "failed to count accounts", err)
	}

	out := make([]dto.AccountDTO, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, ToAccountDTO(*a))
	}

	return &dto.AdminAccountListResponse{
		Accounts: out,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// SetActiveStatus enables or disables an account. Activating a pending
// provider is how listings get approved.
func (f *AdminFlowImpl) SetActiveStatus(ctx context.Context, adminID, targetID uint, active bool, metadata *ClientMetadata) error {
	if err := f.requireAdmin(ctx, adminID); err != nil {
		return err
	}
	target, err := f.requireTarget(ctx, targetID)
	if err != nil {
		return err
	}

	action := models.AuditActionAccountActivated
	description := fmt.Sprintf("account %s activated by administrator", target.Email)
	if !active {
		action = models.AuditActionAccountDeactivated
		description = fmt.Sprintf("account %s deactivated by administrator", target.Email)
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.accountRepo.UpdateActiveStatus(txCtx, targetID, active); err != nil {
			return fmt.Errorf("failed to update active status: %w", err)
		}
		if !active {
			if err := f.sessionRepo.ExpireAllAccountSessions(txCtx, targetID); err != nil {
				return fmt.Errorf("failed to expire sessions: %w", err)
			}
		}
		f.audit(txCtx, adminID, &targetID, action, description, metadata)
		return nil
	})
	if err != nil {
		return NewBusinessError("ADMIN_STATUS_FAILED", "failed to change account status", err)
	}
	return nil
}

// SetAdminStatus grants or revokes back-office access
func (f *AdminFlowImpl) SetAdminStatus(ctx context.Context, adminID, targetID uint, admin bool, metadata *ClientMetadata) error {
	if err := f.requireAdmin(ctx, adminID); err != nil {
		return err
	}
	target, err := f.requireTarget(ctx, targetID)
	if err != nil {
		return err
	}

	action := models.AuditActionAdminGranted
	description := fmt.Sprintf("admin access granted to %s", target.Email)
	if !admin {
		action = models.AuditActionAdminRevoked
		description = fmt.Sprintf("admin access revoked from %s", target.Email)
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.accountRepo.UpdateAdminStatus(txCtx, targetID, admin); err != nil {
			return fmt.Errorf("failed to update admin status: %w", err)
		}
		f.audit(txCtx, adminID, &targetID, action, description, metadata)
		return nil
	})
	if err != nil {
		return NewBusinessError("ADMIN_STATUS_FAILED", "failed to change admin status", err)
	}
	return nil
}

// SoftDeleteAccount disables the account and marks it excluded. The row
// stays for audit history; the identity disappears from every listing.
func (f *AdminFlowImpl) SoftDeleteAccount(ctx context.Context, adminID, targetID uint, metadata *ClientMetadata) error {
	if err := f.requireAdmin(ctx, adminID); err != nil {
		return err
	}
	target, err := f.requireTarget(ctx, targetID)
	if err != nil {
		return err
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.accountRepo.MarkExcluded(txCtx, targetID); err != nil {
			return fmt.Errorf("failed to mark account excluded: %w", err)
		}
		if err := f.sessionRepo.ExpireAllAccountSessions(txCtx, targetID); err != nil {
			return fmt.Errorf("failed to expire sessions: %w", err)
		}
		f.audit(txCtx, adminID, &targetID, models.AuditActionAccountExcluded, fmt.Sprintf("account %s soft-deleted by administrator", target.Email), metadata)
		return nil
	})
	if err != nil {
		return NewBusinessError("ADMIN_DELETE_FAILED", "failed to soft-delete account", err)
	}
	return nil
}

// HardDeleteAccount removes the account row and its service listings.
// Administrator accounts are never hard-deleted.
func (f *AdminFlowImpl) HardDeleteAccount(ctx context.Context, adminID, targetID uint, metadata *ClientMetadata) error {
	if err := f.requireAdmin(ctx, adminID); err != nil {
		return err
	}
	target, err := f.requireTarget(ctx, targetID)
	if err != nil {
		return err
	}
	if utils.IsTrue(target.IsAdmin) {
		return ErrAdminNotDeletable
	}

	email := target.Email
	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.sessionRepo.ExpireAllAccountSessions(txCtx, targetID); err != nil {
			return fmt.Errorf("failed to expire sessions: %w", err)
		}
		if err := f.accountRepo.HardDelete(txCtx, targetID); err != nil {
			return fmt.Errorf("failed to delete account: %w", err)
		}
		// The target row is gone, so the audit entry hangs off the admin.
		f.audit(txCtx, adminID, nil, models.AuditActionAccountDeleted, fmt.Sprintf("account %s permanently deleted by administrator", email), metadata)
		return nil
	})
	if err != nil {
		return NewBusinessError("ADMIN_DELETE_FAILED", "failed to delete account", err)
	}
	return nil
}

// ExportAccountsXLSX renders the filtered account list as a spreadsheet for
// the back office.
func (f *AdminFlowImpl) ExportAccountsXLSX(ctx context.Context, adminID uint, filter *dto.AdminAccountFilter) ([]byte, error) {
	if err := f.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	accounts, err := f.accountRepo.ByFilter(ctx, toAccountFilter(filter), "created_at ASC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("ADMIN_EXPORT_FAILED", "failed to load accounts for export", err)
	}

	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	const sheet = "Accounts"
	index, err := file.NewSheet(sheet)
	if err != nil {
		return nil, NewBusinessError("ADMIN_EXPORT_FAILED", "failed to create sheet", err)
	}
	file.SetActiveSheet(index)
	_ = file.DeleteSheet("Sheet1")

	headers := []string{"ID", "Kind", "Name", "Email", "Document", "Phone", "Active", "Admin", "Registered At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = file.SetCellValue(sheet, cell, h)
	}

	for row, account := range accounts {
		document := ""
		if account.CPF != nil {
			document = *account.CPF
		} else if account.CNPJ != nil {
			document = *account.CNPJ
		}
		phone := ""
		if account.Phone != nil {
			phone = *account.Phone
		}
		values := []any{
			account.ID,
			account.AccountType.TypeName,
			account.DisplayName(),
			account.Email,
			document,
			phone,
			utils.IsTrue(account.IsActive),
			utils.IsTrue(account.IsAdmin),
			account.CreatedAt.Format(timeLayout),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = file.SetCellValue(sheet, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, NewBusinessError("ADMIN_EXPORT_FAILED", "failed to write spreadsheet", err)
	}
	return buf.Bytes(), nil
}

func (f *AdminFlowImpl) requireAdmin(ctx context.Context, accountID uint) error {
	account, err := f.accountRepo.ByID(ctx, accountID)
	if err != nil {
		return NewBusinessError("ACCOUNT_LOOKUP_FAILED", "failed to load account", err)
	}
	if account == nil {
		return ErrAccountNotFound
	}
	if !utils.IsTrue(account.IsAdmin) {
		return ErrNotAuthorized
	}
	return nil
}

func (f *AdminFlowImpl) requireTarget(ctx context.Context, targetID uint) (*models.Account, error) {
	target, err := f.accountRepo.ByID(ctx, targetID)
	if err != nil {
		return nil, NewBusinessError("ACCOUNT_LOOKUP_FAILED", "failed to load account", err)
	}
	if target == nil {
		return nil, ErrAccountNotFound
	}
	return target, nil
}

func (f *AdminFlowImpl) audit(ctx context.Context, adminID uint, targetID *uint, action, description string, metadata *ClientMetadata) {
	accountID := targetID
	if accountID == nil {
		accountID = &adminID
	}
	log := &models.AuditLog{
		AccountID:   accountID,
		Action:      action,
		Description: utils.ToPtr(description),
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

func toAccountFilter(filter *dto.AdminAccountFilter) models.AccountFilter {
	out := models.AccountFilter{}
	if filter == nil {
		return out
	}
	if filter.Kind != nil {
		out.AccountTypeName = filter.Kind
	}
	if filter.IsActive != nil {
		out.IsActive = filter.IsActive
	}
	if filter.Email != nil {
		out.Email = filter.Email
	}
	if filter.Search != nil {
		out.Search = filter.Search
	}
	return out
}
