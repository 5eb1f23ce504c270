// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/servicosdigitais/plataforma/models"
	"github.com/servicosdigitais/plataforma/utils"
	"gorm.io/gorm"
)

// AccountRepositoryImpl implements AccountRepository interface
type AccountRepositoryImpl struct {
	*BaseRepository[models.Account, models.AccountFilter]
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &AccountRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Account, models.AccountFilter](db),
	}
}

// ByEmail retrieves an account by email address, case-insensitively.
func (r *AccountRepositoryImpl) ByEmail(ctx context.Context, email string) (*models.Account, error) {
	db := r.getDB(ctx)

	var account models.Account
	err := db.Where("LOWER(email) = LOWER(?)", email).
		Preload("AccountType").
		Last(&account).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find account by email: %w", err)
	}

	return &account, nil
}

// ByUUID retrieves an account by its UUID
func (r *AccountRepositoryImpl) ByUUID(ctx context.Context, uuidStr string) (*models.Account, error) {
	parsed, err := utils.ParseUUID(uuidStr)
	if err != nil {
		return nil, err
	}

	accounts, err := r.ByFilter(ctx, models.AccountFilter{UUID: &parsed}, "", 1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find account by UUID: %w", err)
	}
	if len(accounts) == 0 {
		return nil, nil
	}
	return accounts[0], nil
}

// ByCPF retrieves an individual account by its 11-digit document
func (r *AccountRepositoryImpl) ByCPF(ctx context.Context, cpf string) (*models.Account, error) {
	kind := models.AccountTypeIndividual
	accounts, err := r.ByFilter(ctx, models.AccountFilter{CPF: &cpf, AccountTypeName: &kind}, "", 1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find account by CPF: %w", err)
	}
	if len(accounts) == 0 {
		return nil, nil
	}
	return accounts[0], nil
}

// ByCNPJ retrieves an account of the given kind (company or provider) by its
// 14-digit document. The document namespace is shared between the two kinds,
// so the kind is part of the lookup key.
func (r *AccountRepositoryImpl) ByCNPJ(ctx context.Context, kind string, cnpj string) (*models.Account, error) {
	accounts, err := r.ByFilter(ctx, models.AccountFilter{CNPJ: &cnpj, AccountTypeName: &kind}, "", 1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find account by CNPJ: %w", err)
	}
	if len(accounts) == 0 {
		return nil, nil
	}
	return accounts[0], nil
}

// FindByIDs retrieves accounts by a list of IDs
func (r *AccountRepositoryImpl) FindByIDs(ctx context.Context, ids []uint) ([]*models.Account, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	db := r.getDB(ctx)
	var accounts []*models.Account
	err := db.Where("id IN ?", ids).
		Preload("AccountType").
		Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find accounts by ids: %w", err)
	}
	return accounts, nil
}

// ListActiveByKind retrieves active, non-excluded accounts of one kind with pagination
func (r *AccountRepositoryImpl) ListActiveByKind(ctx context.Context, kind string, limit, offset int) ([]*models.Account, error) {
	db := r.getDB(ctx)

	var accounts []*models.Account
	err := db.Joins("JOIN account_types ON accounts.account_type_id = account_types.id").
		Where("account_types.type_name = ?", kind).
		Where("accounts.is_active = ?", true).
		Where("accounts.is_excluded IS NOT TRUE").
		Order("accounts.created_at DESC").
		Limit(limit).
		Offset(offset).
		Preload("AccountType").
		Find(&accounts).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list active accounts by kind: %w", err)
	}

	return accounts, nil
}

// Update persists the mutable profile fields of an existing account
func (r *AccountRepositoryImpl) Update(ctx context.Context, account *models.Account) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Model(&models.Account{}).
		Where("id = ?", account.ID).
		Updates(map[string]any{
			"first_name":          account.FirstName,
			"last_name":           account.LastName,
			"phone":               account.Phone,
			"email":               account.Email,
			"profile_photo":       account.ProfilePhoto,
			"hide_sensitive_data": account.HideSensitiveData,
			"legal_name":          account.LegalName,
			"specialty":           account.Specialty,
			"updated_at":          utils.UTCNow(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	return nil
}

// UpdatePassword replaces the stored password hash
func (r *AccountRepositoryImpl) UpdatePassword(ctx context.Context, accountID uint, passwordHash string) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Model(&models.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]any{
			"password_hash": passwordHash,
			"updated_at":    utils.UTCNow(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// UpdateActiveStatus flips the active flag
func (r *AccountRepositoryImpl) UpdateActiveStatus(ctx context.Context, accountID uint, isActive bool) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Model(&models.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]any{
			"is_active":  isActive,
			"updated_at": utils.UTCNow(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update active status: %w", err)
	}

	return nil
}

// UpdateAdminStatus flips the administrator flag
func (r *AccountRepositoryImpl) UpdateAdminStatus(ctx context.Context, accountID uint, isAdmin bool) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Model(&models.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]any{
			"is_admin":   isAdmin,
			"updated_at": utils.UTCNow(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update admin status: %w", err)
	}

	return nil
}

// UpdateLockoutState writes the three lockout fields in one statement so the
// counter, the last-failure timestamp and the expiry can never diverge.
func (r *AccountRepositoryImpl) UpdateLockoutState(ctx context.Context, accountID uint, failedAttempts int, lastFailureAt, lockedUntil *time.Time) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Model(&models.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]any{
			"failed_attempts": failedAttempts,
			"last_failure_at": lastFailureAt,
			"locked_until":    lockedUntil,
			"updated_at":      utils.UTCNow(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update lockout state: %w", err)
	}

	return nil
}

// MarkExcluded soft-deletes an account: it is deactivated and flagged so
// listings and logins skip it, but the row is preserved.
func (r *AccountRepositoryImpl) MarkExcluded(ctx context.Context, accountID uint) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Model(&models.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]any{
			"is_active":   false,
			"is_excluded": true,
			"updated_at":  utils.UTCNow(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark account excluded: %w", err)
	}

	return nil
}

// HardDelete removes the account row and its owned service listings.
func (r *AccountRepositoryImpl) HardDelete(ctx context.Context, accountID uint) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	if err = db.Where("provider_id = ?", accountID).Delete(&models.OfferedService{}).Error; err != nil {
		return fmt.Errorf("failed to delete offered services: %w", err)
	}

	if err = db.Delete(&models.Account{}, accountID).Error; err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	return nil
}

// applyFilter applies filter criteria to a GORM query
func (r *AccountRepositoryImpl) applyFilter(query *gorm.DB, filter models.AccountFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("accounts.id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("accounts.uuid = ?", *filter.UUID)
	}
	if filter.AccountTypeID != nil {
		query = query.Where("accounts.account_type_id = ?", *filter.AccountTypeID)
	}
	if filter.AccountTypeName != nil {
		query = query.Joins("JOIN account_types ON accounts.account_type_id = account_types.id").
			Where("account_types.type_name = ?", *filter.AccountTypeName)
	}
	if filter.Email != nil {
		query = query.Where("LOWER(accounts.email) = LOWER(?)", *filter.Email)
	}
	if filter.CPF != nil {
		query = query.Where("accounts.cpf = ?", *filter.CPF)
	}
	if filter.CNPJ != nil {
		query = query.Where("accounts.cnpj = ?", *filter.CNPJ)
	}
	if filter.Phone != nil {
		query = query.Where("accounts.phone = ?", *filter.Phone)
	}
	if filter.IsActive != nil {
		query = query.Where("accounts.is_active = ?", *filter.IsActive)
	}
	if filter.IsAdmin != nil {
		query = query.Where("accounts.is_admin = ?", *filter.IsAdmin)
	}
	if filter.IsExcluded != nil {
		if *filter.IsExcluded {
			query = query.Where("accounts.is_excluded = ?", true)
		} else {
			query = query.Where("accounts.is_excluded IS NOT TRUE")
		}
	}
	if filter.CreatedAfter != nil {
		query = query.Where("accounts.created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("accounts.created_at <= ?", *filter.CreatedBefore)
	}
	if filter.Search != nil && *filter.Search != "" {
		pattern := "%" + *filter.Search + "%"
		query = query.Where(
			"accounts.first_name ILIKE ? OR accounts.last_name ILIKE ? OR accounts.legal_name ILIKE ? OR accounts.email ILIKE ? OR accounts.cpf LIKE ? OR accounts.cnpj LIKE ?",
			pattern, pattern, pattern, pattern, pattern, pattern,
		)
	}
	return query
}

// ByFilter retrieves accounts based on filter criteria
func (r *AccountRepositoryImpl) ByFilter(ctx context.Context, filter models.AccountFilter, orderBy string, limit, offset int) ([]*models.Account, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Account{}), filter)

	if orderBy == "" {
		orderBy = "accounts.id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var accounts []*models.Account
	err := query.Preload("AccountType").Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find accounts by filter: %w", err)
	}

	return accounts, nil
}

// Count returns the number of accounts matching the filter
func (r *AccountRepositoryImpl) Count(ctx context.Context, filter models.AccountFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Account{}), filter)

	var count int64
	err := query.Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}

	return count, nil
}

// Exists checks if any account matching the filter exists
func (r *AccountRepositoryImpl) Exists(ctx context.Context, filter models.AccountFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}
