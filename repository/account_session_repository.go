// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/servicosdigitais/plataforma/models"
	"github.com/servicosdigitais/plataforma/utils"
	"gorm.io/gorm"
)

// AccountSessionRepositoryImpl implements AccountSessionRepository interface
type AccountSessionRepositoryImpl struct {
	*BaseRepository[models.AccountSession, models.AccountSessionFilter]
}

// NewAccountSessionRepository creates a new account session repository
func NewAccountSessionRepository(db *gorm.DB) AccountSessionRepository {
	return &AccountSessionRepositoryImpl{
		BaseRepository: NewBaseRepository[models.AccountSession, models.AccountSessionFilter](db),
	}
}

// BySessionToken retrieves a live session by session token
func (r *AccountSessionRepositoryImpl) BySessionToken(ctx context.Context, token string) (*models.AccountSession, error) {
	db := r.getDB(ctx)

	var session models.AccountSession
	err := db.Where("session_token = ? AND is_active = ? AND expires_at > ?",
		token, true, time.Now()).
		Preload("Account").
		First(&session).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find session by token: %w", err)
	}

	return &session, nil
}

// ByRefreshToken retrieves a live session by refresh token
func (r *AccountSessionRepositoryImpl) ByRefreshToken(ctx context.Context, token string) (*models.AccountSession, error) {
	db := r.getDB(ctx)

	var session models.AccountSession
	err := db.Where("refresh_token = ? AND is_active = ? AND expires_at > ?",
		token, true, time.Now()).
		Preload("Account").
		First(&session).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find session by refresh token: %w", err)
	}

	return &session, nil
}

// ListActiveSessionsByAccount retrieves all unexpired sessions for an account
func (r *AccountSessionRepositoryImpl) ListActiveSessionsByAccount(ctx context.Context, accountID uint) ([]*models.AccountSession, error) {
	sessions, err := r.ByFilter(ctx, models.AccountSessionFilter{
		AccountID: &accountID,
		IsActive:  utils.ToPtr(true),
	}, "", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list active sessions by account: %w", err)
	}

	var activeSessions []*models.AccountSession
	now := time.Now()
	for _, session := range sessions {
		if session.ExpiresAt.After(now) {
			activeSessions = append(activeSessions, session)
		}
	}

	return activeSessions, nil
}

// ExpireSession deactivates one session and clears its refresh token
func (r *AccountSessionRepositoryImpl) ExpireSession(ctx context.Context, sessionID uint) error {
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

	err = db.Model(&models.AccountSession{}).
		Where("id = ?", sessionID).
		Updates(map[string]any{
			"is_active":     false,
			"refresh_token": nil,
			"expires_at":    time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to expire session: %w", err)
	}

	return nil
}

// ExpireAllAccountSessions deactivates every active session of an account
func (r *AccountSessionRepositoryImpl) ExpireAllAccountSessions(ctx context.Context, accountID uint) error {
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

	err = db.Model(&models.AccountSession{}).
		Where("account_id = ? AND is_active = ?", accountID, true).
		Updates(map[string]any{
			"is_active":     false,
			"refresh_token": nil,
			"expires_at":    time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to expire account sessions: %w", err)
	}

	return nil
}

// CleanupExpiredSessions deactivates sessions whose expiry has passed
func (r *AccountSessionRepositoryImpl) CleanupExpiredSessions(ctx context.Context) error {
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

	err = db.Model(&models.AccountSession{}).
		Where("is_active = ? AND expires_at <= ?", true, time.Now()).
		Updates(map[string]any{
			"is_active":     false,
			"refresh_token": nil,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to cleanup expired sessions: %w", err)
	}

	return nil
}

// GetLatestByCorrelationID returns the newest session row sharing a correlation id
func (r *AccountSessionRepositoryImpl) GetLatestByCorrelationID(ctx context.Context, correlationID uuid.UUID) (*models.AccountSession, error) {
	sessions, err := r.ByFilter(ctx, models.AccountSessionFilter{CorrelationID: &correlationID}, "id DESC", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	return sessions[0], nil
}

// applyFilter applies filter criteria to a GORM query
func (r *AccountSessionRepositoryImpl) applyFilter(query *gorm.DB, filter models.AccountSessionFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.CorrelationID != nil {
		query = query.Where("correlation_id = ?", *filter.CorrelationID)
	}
	if filter.AccountID != nil {
		query = query.Where("account_id = ?", *filter.AccountID)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.IPAddress != nil {
		query = query.Where("ip_address = ?", *filter.IPAddress)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}
	if filter.ExpiresAfter != nil {
		query = query.Where("expires_at >= ?", *filter.ExpiresAfter)
	}
	if filter.ExpiresBefore != nil {
		query = query.Where("expires_at <= ?", *filter.ExpiresBefore)
	}
	if filter.AccessedAfter != nil {
		query = query.Where("last_accessed_at >= ?", *filter.AccessedAfter)
	}
	if filter.AccessedBefore != nil {
		query = query.Where("last_accessed_at <= ?", *filter.AccessedBefore)
	}
	if filter.IsExpired != nil && *filter.IsExpired {
		query = query.Where("expires_at <= ?", time.Now())
	}
	return query
}

// ByFilter retrieves sessions based on filter criteria
func (r *AccountSessionRepositoryImpl) ByFilter(ctx context.Context, filter models.AccountSessionFilter, orderBy string, limit, offset int) ([]*models.AccountSession, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.AccountSession{}), filter)

	if orderBy == "" {
		orderBy = "id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var sessions []*models.AccountSession
	if err := query.Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to find sessions by filter: %w", err)
	}
	return sessions, nil
}

// Count returns the number of sessions matching the filter
func (r *AccountSessionRepositoryImpl) Count(ctx context.Context, filter models.AccountSessionFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.AccountSession{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

// Exists checks if any session matches the filter
func (r *AccountSessionRepositoryImpl) Exists(ctx context.Context, filter models.AccountSessionFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
