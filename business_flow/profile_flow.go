// Package businessflow contains the business logic for the application.
package businessflow

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // registered for decoding uploaded photos
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/servicosdigitais/plataforma/app/dto"
	"github.com/servicosdigitais/plataforma/app/services"
	"github.com/servicosdigitais/plataforma/models"
	"github.com/servicosdigitais/plataforma/repository"
	"github.com/servicosdigitais/plataforma/utils"
	"golang.org/x/image/draw"
	"gorm.io/gorm"
)

// ProfileFlow defines profile management operations for the logged-in account
type ProfileFlow interface {
	GetProfile(ctx context.Context, accountID uint) (*dto.AccountDTO, error)
	UpdateProfile(ctx context.Context, accountID uint, req *dto.UpdateProfileRequest, metadata *ClientMetadata) (*dto.AccountDTO, error)
	ChangePassword(ctx context.Context, accountID uint, req *dto.ChangePasswordRequest, metadata *ClientMetadata) error
	SetHideSensitiveData(ctx context.Context, accountID uint, hide bool) error
	UpdatePhoto(ctx context.Context, accountID uint, photo []byte, metadata *ClientMetadata) (*dto.AccountDTO, error)
}

// ProfileFlowImpl implements ProfileFlow
type ProfileFlowImpl struct {
	accountRepo     repository.AccountRepository
	auditRepo       repository.AuditLogRepository
	passwordService services.PasswordService
	uploadDir       string
	db              *gorm.DB
	clock           Clock
}

// NewProfileFlow creates a new profile flow. uploadDir is where resized
// profile photos are written.
func NewProfileFlow(
	accountRepo repository.AccountRepository,
	auditRepo repository.AuditLogRepository,
	passwordService services.PasswordService,
	uploadDir string,
	db *gorm.DB,
	clock Clock,
) ProfileFlow {
	if clock == nil {
		clock = SystemClock()
	}
	return &ProfileFlowImpl{
		accountRepo:     accountRepo,
		auditRepo:       auditRepo,
		passwordService: passwordService,
		uploadDir:       uploadDir,
		db:              db,
		clock:           clock,
	}
}

// GetProfile returns the account's own profile
func (f *ProfileFlowImpl) GetProfile(ctx context.Context, accountID uint) (*dto.AccountDTO, error) {
	account, err := f.loadAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	profile := ToAccountDTO(*account)
	return &profile, nil
}

// UpdateProfile applies the editable profile fields. Kind-specific fields on
// the wrong kind are ignored rather than rejected.
func (f *ProfileFlowImpl) UpdateProfile(ctx context.Context, accountID uint, req *dto.UpdateProfileRequest, metadata *ClientMetadata) (*dto.AccountDTO, error) {
	account, err := f.loadAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != account.Email {
			existing, err := f.accountRepo.ByEmail(ctx, email)
			if err != nil {
				return nil, NewBusinessError("PROFILE_EMAIL_CHECK_FAILED", "failed to check email uniqueness", err)
			}
			if existing != nil && existing.ID != account.ID {
				return nil, ErrEmailAlreadyExists
			}
			account.Email = email
		}
	}

	if req.FirstName != nil {
		if name := strings.TrimSpace(*req.FirstName); name != "" {
			account.FirstName = name
		}
	}
	if req.LastName != nil {
		account.LastName = utils.ToPtr(strings.TrimSpace(*req.LastName))
	}
	if req.Phone != nil {
		account.Phone = utils.ToPtr(strings.TrimSpace(*req.Phone))
	}

	if account.IsCompany() || account.IsProvider() {
		if req.LegalName != nil {
			legalName := strings.TrimSpace(*req.LegalName)
			if legalName == "" {
				return nil, ErrLegalNameRequired
			}
			account.LegalName = utils.ToPtr(legalName)
			account.FirstName = legalName
		}
	}
	if account.IsProvider() && req.Specialty != nil {
		specialty := strings.TrimSpace(*req.Specialty)
		if specialty == "" {
			return nil, ErrSpecialtyRequired
		}
		account.Specialty = utils.ToPtr(specialty)
	}

	account.UpdatedAt = f.clock.Now()

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.accountRepo.Update(txCtx, account); err != nil {
			return fmt.Errorf("failed to update account: %w", err)
		}
		f.audit(txCtx, account.ID, models.AuditActionProfileUpdated, "profile fields updated", metadata)
		return nil
	})
	if err != nil {
		return nil, NewBusinessError("PROFILE_UPDATE_FAILED", "failed to update profile", err)
	}

	profile := ToAccountDTO(*account)
	return &profile, nil
}

// ChangePassword verifies the current password before replacing it. Every
// change expires nothing by itself; session invalidation is the caller's
// decision.
func (f *ProfileFlowImpl) ChangePassword(ctx context.Context, accountID uint, req *dto.ChangePasswordRequest, metadata *ClientMetadata) error {
	account, err := f.loadAccount(ctx, accountID)
	if err != nil {
		return err
	}

	if !f.passwordService.Verify(account.PasswordHash, req.CurrentPassword) {
		return ErrIncorrectPassword
	}
	if !utils.IsStrongPassword(req.NewPassword) {
		return ErrWeakPassword
	}
	if req.NewPassword != req.ConfirmPassword {
		return ErrPasswordMismatch
	}

	hash, err := f.passwordService.Hash(req.NewPassword)
	if err != nil {
		return NewBusinessError("PASSWORD_HASH_FAILED", "failed to hash password", err)
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.accountRepo.UpdatePassword(txCtx, account.ID, hash); err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		f.audit(txCtx, account.ID, models.AuditActionPasswordChanged, "password changed by account", metadata)
		return nil
	})
	if err != nil {
		return NewBusinessError("PASSWORD_CHANGE_FAILED", "failed to change password", err)
	}
	return nil
}

// SetHideSensitiveData toggles masking of documents in directory listings
func (f *ProfileFlowImpl) SetHideSensitiveData(ctx context.Context, accountID uint, hide bool) error {
	account, err := f.loadAccount(ctx, accountID)
	if err != nil {
		return err
	}

	account.HideSensitiveData = utils.ToPtr(hide)
	account.UpdatedAt = f.clock.Now()
	if err := f.accountRepo.Update(ctx, account); err != nil {
		return NewBusinessError("PROFILE_UPDATE_FAILED", "failed to update preference", err)
	}
	return nil
}

// UpdatePhoto decodes the uploaded image, scales it to a square thumbnail,
// stores it as JPEG, and retires the previous photo file. The packaged
// default photo is never deleted.
func (f *ProfileFlowImpl) UpdatePhoto(ctx context.Context, accountID uint, photo []byte, metadata *ClientMetadata) (*dto.AccountDTO, error) {
	account, err := f.loadAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	src, _, err := image.Decode(bytes.NewReader(photo))
	if err != nil {
		return nil, ErrInvalidProfilePhoto
	}

	thumb := image.NewRGBA(image.Rect(0, 0, utils.ProfilePhotoSize, utils.ProfilePhotoSize))
	draw.CatmullRom.Scale(thumb, thumb.Bounds(), src, src.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 90}); err != nil {
		return nil, NewBusinessError("PHOTO_ENCODE_FAILED", "failed to encode profile photo", err)
	}

	fileName := fmt.Sprintf("%s.jpg", uuid.New().String())
	if err := os.MkdirAll(f.uploadDir, 0o755); err != nil {
		return nil, NewBusinessError("PHOTO_STORE_FAILED", "failed to prepare upload directory", err)
	}
	if err := os.WriteFile(filepath.Join(f.uploadDir, fileName), buf.Bytes(), 0o644); err != nil {
		return nil, NewBusinessError("PHOTO_STORE_FAILED", "failed to store profile photo", err)
	}

	previous := account.ProfilePhoto
	account.ProfilePhoto = fileName
	account.UpdatedAt = f.clock.Now()

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.accountRepo.Update(txCtx, account); err != nil {
			return fmt.Errorf("failed to update account: %w", err)
		}
		f.audit(txCtx, account.ID, models.AuditActionProfileUpdated, "profile photo replaced", metadata)
		return nil
	})
	if err != nil {
		// Roll the file back so failed updates leave no orphan on disk.
		_ = os.Remove(filepath.Join(f.uploadDir, fileName))
		return nil, NewBusinessError("PHOTO_UPDATE_FAILED", "failed to update profile photo", err)
	}

	if previous != "" && previous != utils.DefaultProfilePhoto {
		_ = os.Remove(filepath.Join(f.uploadDir, previous))
	}

	profile := ToAccountDTO(*account)
	return &profile, nil
}

func (f *ProfileFlowImpl) loadAccount(ctx context.Context, accountID uint) (*models.Account, error) {
	account, err := f.accountRepo.ByID(ctx, accountID)
	if err != nil {
		return nil, NewBusinessError("ACCOUNT_LOOKUP_FAILED", "failed to load account", err)
	}
	if account == nil || utils.IsTrue(account.IsExcluded) {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

func (f *ProfileFlowImpl) audit(ctx context.Context, accountID uint, action, description string, metadata *ClientMetadata) {
	log := &models.AuditLog{
		AccountID:   &accountID,
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
