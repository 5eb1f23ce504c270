// Package businessflow contains the core business logic and use cases for authentication workflows
package businessflow

import (
	"context"
	"time"

	"github.com/servicosdigitais/plataforma/models"
	"github.com/servicosdigitais/plataforma/repository"
	"github.com/servicosdigitais/plataforma/utils"
)

// LockoutSettings are the policy parameters for failed-login throttling.
type LockoutSettings struct {
	MaxAttempts     int
	LockoutDuration time.Duration
	ResetWindow     time.Duration
}

// DefaultLockoutSettings returns the stock policy: five attempts, fifteen
// minutes locked, counter restarted after thirty quiet minutes.
func DefaultLockoutSettings() LockoutSettings {
	return LockoutSettings{
		MaxAttempts:     utils.DefaultMaxLoginAttempts,
		LockoutDuration: utils.DefaultLockoutDuration,
		ResetWindow:     utils.DefaultFailureResetWindow,
	}
}

// LockoutPolicy tracks failed-login counters and timed lockouts per account.
// An account moves through three states: clear (counter zero), warned
// (counter below the threshold) and locked (expiry in the future). Expiry is
// evaluated lazily; nothing sweeps locked accounts in the background.
type LockoutPolicy interface {
	IsLocked(account *models.Account) bool
	MinutesRemaining(account *models.Account) int
	RecordFailure(ctx context.Context, account *models.Account) (remaining int, locked bool, err error)
	RecordSuccess(ctx context.Context, account *models.Account) error
}

// LockoutPolicyImpl implements LockoutPolicy on top of the account repository
type LockoutPolicyImpl struct {
	accountRepo repository.AccountRepository
	settings    LockoutSettings
	clock       Clock
}

// NewLockoutPolicy creates a new lockout policy instance
func NewLockoutPolicy(accountRepo repository.AccountRepository, settings LockoutSettings, clock Clock) LockoutPolicy {
	if clock == nil {
		clock = SystemClock()
	}
	return &LockoutPolicyImpl{
		accountRepo: accountRepo,
		settings:    settings,
		clock:       clock,
	}
}

// IsLocked reports whether the account's lockout expiry lies in the future.
// Purely observational: no fields are touched, so an elapsed lockout simply
// stops being reported without any unlock write.
func (p *LockoutPolicyImpl) IsLocked(account *models.Account) bool {
	return account.LockedUntil != nil && account.LockedUntil.After(p.clock.Now())
}

// MinutesRemaining returns how many whole minutes of lockout are left,
// rounded up so the user is never told zero while still locked.
func (p *LockoutPolicyImpl) MinutesRemaining(account *models.Account) int {
	if account.LockedUntil == nil {
		return 0
	}
	remaining := account.LockedUntil.Sub(p.clock.Now())
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Seconds())/60 + 1
}

// RecordFailure registers one failed password attempt. A failure older than
// the reset window starts a fresh sequence. When the counter reaches the
// threshold the lockout expiry is set and the account enters the locked
// state. The counter, timestamp and expiry are written in a single statement
// so a persistence failure can never leave them half-updated.
func (p *LockoutPolicyImpl) RecordFailure(ctx context.Context, account *models.Account) (int, bool, error) {
	now := p.clock.Now()

	attempts := account.FailedAttempts
	if account.LastFailureAt != nil && now.Sub(*account.LastFailureAt) > p.settings.ResetWindow {
		attempts = 0
	}
	attempts++

	lastFailure := now
	var lockedUntil *time.Time
	locked := false
	if attempts >= p.settings.MaxAttempts {
		expiry := now.Add(p.settings.LockoutDuration)
		lockedUntil = &expiry
		locked = true
	}

	if err := p.accountRepo.UpdateLockoutState(ctx, account.ID, attempts, &lastFailure, lockedUntil); err != nil {
		return 0, false, err
	}

	account.FailedAttempts = attempts
	account.LastFailureAt = &lastFailure
	account.LockedUntil = lockedUntil

	remaining := p.settings.MaxAttempts - attempts
	if remaining < 0 {
		remaining = 0
	}
	return remaining, locked, nil
}

// RecordSuccess clears the counter, the last-failure timestamp and any
// lockout expiry. Safe to call repeatedly.
func (p *LockoutPolicyImpl) RecordSuccess(ctx context.Context, account *models.Account) error {
	if err := p.accountRepo.UpdateLockoutState(ctx, account.ID, 0, nil, nil); err != nil {
		return err
	}

	account.FailedAttempts = 0
	account.LastFailureAt = nil
	account.LockedUntil = nil
	return nil
}
