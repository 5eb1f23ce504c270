// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"encoding/json"
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

// LoginFlow defines the authentication business flow
type LoginFlow interface {
	Login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error)
	Logout(ctx context.Context, sessionToken string, metadata *ClientMetadata) error
	RefreshSession(ctx context.Context, refreshToken string, metadata *ClientMetadata) (*dto.LoginResponse, error)
}

// LoginFlowImpl implements the authentication flow
type LoginFlowImpl struct {
	accountRepo     repository.AccountRepository
	sessionRepo     repository.AccountSessionRepository
	auditRepo       repository.AuditLogRepository
	resolver        IdentityResolver
	lockout         LockoutPolicy
	passwordService services.PasswordService
	tokenService    services.TokenService
	db              *gorm.DB
	clock           Clock
}

// NewLoginFlow creates a new login flow
func NewLoginFlow(
	accountRepo repository.AccountRepository,
	sessionRepo repository.AccountSessionRepository,
	auditRepo repository.AuditLogRepository,
	resolver IdentityResolver,
	lockout LockoutPolicy,
	passwordService services.PasswordService,
	tokenService services.TokenService,
	db *gorm.DB,
	clock Clock,
) LoginFlow {
	if clock == nil {
		clock = SystemClock()
	}
	return &LoginFlowImpl{
		accountRepo:     accountRepo,
		sessionRepo:     sessionRepo,
		auditRepo:       auditRepo,
		resolver:        resolver,
		lockout:         lockout,
		passwordService: passwordService,
		tokenService:    tokenService,
		db:              db,
		clock:           clock,
	}
}

// Login authenticates an account by email, CPF, or CNPJ.
//
// The checks run in a fixed order: identifier presence, account resolution,
// lockout, password, active status. Failure bookkeeping must survive the
// failed login, so it is written outside any surrounding transaction; only
// the success path (counter reset plus session creation) runs atomically.
func (f *LoginFlowImpl) Login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error) {
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" {
		f.auditLoginAttempt(ctx, nil, models.AuditActionLoginFailed, "login attempted without identifier", false, metadata)
		return nil, &RejectionError{Reason: RejectionMissingIdentifier, Err: ErrMissingIdentifier}
	}

	account, err := f.resolver.Resolve(ctx, identifier)
	if err != nil {
		return nil, NewBusinessError("LOGIN_RESOLVE_FAILED", "failed to resolve login identifier", err)
	}
	if account == nil {
		// Unknown identifiers get the generic rejection with no attempt
		// count, so callers cannot probe which identifiers exist.
		f.auditLoginAttempt(ctx, nil, models.AuditActionLoginFailed, fmt.Sprintf("no account matches identifier %q", identifier), false, metadata)
		return nil, &RejectionError{Reason: RejectionInvalidCredentials, Err: ErrAccountNotFound}
	}

	if f.lockout.IsLocked(account) {
		minutes := f.lockout.MinutesRemaining(account)
		f.auditLoginAttempt(ctx, &account.ID, models.AuditActionLoginLocked, fmt.Sprintf("login refused, account locked for %d more minute(s)", minutes), false, metadata)
		return nil, &RejectionError{Reason: RejectionLocked, MinutesRemaining: utils.ToPtr(minutes), Err: ErrAccountLocked}
	}

	if !f.passwordService.Verify(account.PasswordHash, req.Password) {
		remaining, locked, recErr := f.lockout.RecordFailure(ctx, account)
		if recErr != nil {
			return nil, NewBusinessError("LOGIN_FAILURE_RECORD_FAILED", "failed to record login failure", recErr)
		}
		if locked {
			minutes := f.lockout.MinutesRemaining(account)
			f.auditLoginAttempt(ctx, &account.ID, models.AuditActionLoginLocked, "failure threshold reached, account locked", false, metadata)
			return nil, &RejectionError{Reason: RejectionLocked, MinutesRemaining: utils.ToPtr(minutes), Err: ErrAccountLocked}
		}
		f.auditLoginAttempt(ctx, &account.ID, models.AuditActionLoginFailed, fmt.Sprintf("wrong password, %d attempt(s) remaining", remaining), false, metadata)
		return nil, &RejectionError{Reason: RejectionInvalidCredentials, RemainingAttempts: utils.ToPtr(remaining), Err: ErrIncorrectPassword}
	}

	// A correct password against a disabled account is not a credential
	// failure, so the counter is left untouched.
	if !utils.IsTrue(account.IsActive) || utils.IsTrue(account.IsExcluded) {
		f.auditLoginAttempt(ctx, &account.ID, models.AuditActionLoginFailed, "login refused, account disabled", false, metadata)
		return nil, &RejectionError{Reason: RejectionAccountDisabled, Err: ErrAccountInactive}
	}

	var session *models.AccountSession
	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.lockout.RecordSuccess(txCtx, account); err != nil {
			return fmt.Errorf("failed to reset failure counter: %w", err)
		}

		created, err := f.createSession(txCtx, account, req.Remember, metadata)
		if err != nil {
			return err
		}
		session = created

		f.auditLoginAttempt(txCtx, &account.ID, models.AuditActionLoginSuccess, "login successful", true, metadata)
		return nil
	})
	if err != nil {
		return nil, NewBusinessError("LOGIN_SESSION_FAILED", "failed to establish session", err)
	}

	return &dto.LoginResponse{
		Account: ToAccountDTO(*account),
		Session: ToSessionDTO(*session),
	}, nil
}

// Logout expires the session matching the presented token.
func (f *LoginFlowImpl) Logout(ctx context.Context, sessionToken string, metadata *ClientMetadata) error {
	session, err := f.sessionRepo.BySessionToken(ctx, sessionToken)
	if err != nil {
		return NewBusinessError("LOGOUT_LOOKUP_FAILED", "failed to look up session", err)
	}
	if session == nil || !session.IsValid() {
		return ErrSessionNotFound
	}

	if err := f.sessionRepo.ExpireSession(ctx, session.ID); err != nil {
		return NewBusinessError("LOGOUT_FAILED", "failed to expire session", err)
	}

	f.auditLoginAttempt(ctx, &session.AccountID, models.AuditActionLogout, "session terminated by account", true, metadata)
	return nil
}

// RefreshSession rotates a session's tokens using its refresh token. The old
// session record is expired and a fresh one created under the same
// correlation ID.
func (f *LoginFlowImpl) RefreshSession(ctx context.Context, refreshToken string, metadata *ClientMetadata) (*dto.LoginResponse, error) {
	session, err := f.sessionRepo.ByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, NewBusinessError("REFRESH_LOOKUP_FAILED", "failed to look up session", err)
	}
	if session == nil || !utils.IsTrue(session.IsActive) {
		return nil, ErrSessionNotFound
	}

	account, err := f.accountRepo.ByID(ctx, session.AccountID)
	if err != nil {
		return nil, NewBusinessError("REFRESH_ACCOUNT_LOOKUP_FAILED", "failed to load account", err)
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	if !utils.IsTrue(account.IsActive) || utils.IsTrue(account.IsExcluded) {
		return nil, &RejectionError{Reason: RejectionAccountDisabled, Err: ErrAccountInactive}
	}

	remembered := utils.IsTrue(session.Remembered)

	var newSession *models.AccountSession
	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.sessionRepo.ExpireSession(txCtx, session.ID); err != nil {
			return fmt.Errorf("failed to expire previous session: %w", err)
		}

		created, err := f.createSessionWithCorrelation(txCtx, account, remembered, session.CorrelationID, metadata)
		if err != nil {
			return err
		}
		newSession = created

		f.auditLoginAttempt(txCtx, &account.ID, models.AuditActionSessionCreated, "session refreshed", true, metadata)
		return nil
	})
	if err != nil {
		return nil, NewBusinessError("REFRESH_FAILED", "failed to refresh session", err)
	}

	return &dto.LoginResponse{
		Account: ToAccountDTO(*account),
		Session: ToSessionDTO(*newSession),
	}, nil
}

func (f *LoginFlowImpl) createSession(ctx context.Context, account *models.Account, remembered bool, metadata *ClientMetadata) (*models.AccountSession, error) {
	return f.createSessionWithCorrelation(ctx, account, remembered, uuid.New(), metadata)
}

func (f *LoginFlowImpl) createSessionWithCorrelation(ctx context.Context, account *models.Account, remembered bool, correlationID uuid.UUID, metadata *ClientMetadata) (*models.AccountSession, error) {
	accessToken, refreshToken, err := f.tokenService.GenerateTokens(account.ID, remembered)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	now := f.clock.Now()
	sessionTTL := utils.SessionTimeout
	if remembered {
		sessionTTL = utils.RememberedRefreshTokenTTL
	}

	session := &models.AccountSession{
		CorrelationID:  correlationID,
		AccountID:      account.ID,
		SessionToken:   accessToken,
		RefreshToken:   utils.ToPtr(refreshToken),
		DeviceInfo:     marshalDeviceInfo(metadata),
		Remembered:     utils.ToPtr(remembered),
		IsActive:       utils.ToPtr(true),
		CreatedAt:      now,
		LastAccessedAt: now,
		ExpiresAt:      now.Add(sessionTTL),
	}
	if metadata != nil {
		if metadata.IPAddress != "" {
			session.IPAddress = utils.ToPtr(metadata.IPAddress)
		}
		if metadata.UserAgent != "" {
			session.UserAgent = utils.ToPtr(metadata.UserAgent)
		}
	}

	if err := f.sessionRepo.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// auditLoginAttempt writes an audit record. Audit failures never mask the
// flow's own outcome.
func (f *LoginFlowImpl) auditLoginAttempt(ctx context.Context, accountID *uint, action, description string, success bool, metadata *ClientMetadata) {
	log := &models.AuditLog{
		AccountID:   accountID,
		Action:      action,
		Description: utils.ToPtr(description),
		Success:     utils.ToPtr(success),
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

func marshalDeviceInfo(metadata *ClientMetadata) json.RawMessage {
	if metadata == nil || len(metadata.DeviceInfo) == 0 {
		return nil
	}
	raw, err := json.Marshal(metadata.DeviceInfo)
	if err != nil {
		return nil
	}
	return raw
}
