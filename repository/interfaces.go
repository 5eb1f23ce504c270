// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/servicosdigitais/plataforma/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// AccountTypeRepository defines operations for account types
type AccountTypeRepository interface {
	Repository[models.AccountType, models.AccountTypeFilter]
	ByTypeName(ctx context.Context, typeName string) (*models.AccountType, error)
}

// AccountRepository defines operations for accounts
type AccountRepository interface {
	Repository[models.Account, models.AccountFilter]
	ByEmail(ctx context.Context, email string) (*models.Account, error)
	ByUUID(ctx context.Context, uuid string) (*models.Account, error)
	ByCPF(ctx context.Context, cpf string) (*models.Account, error)
	ByCNPJ(ctx context.Context, kind string, cnpj string) (*models.Account, error)
	FindByIDs(ctx context.Context, ids []uint) ([]*models.Account, error)
	ListActiveByKind(ctx context.Context, kind string, limit, offset int) ([]*models.Account, error)
	Update(ctx context.Context, account *models.Account) error
	UpdatePassword(ctx context.Context, accountID uint, passwordHash string) error
	UpdateActiveStatus(ctx context.Context, accountID uint, isActive bool) error
	UpdateAdminStatus(ctx context.Context, accountID uint, isAdmin bool) error
	UpdateLockoutState(ctx context.Context, accountID uint, failedAttempts int, lastFailureAt, lockedUntil *time.Time) error
	MarkExcluded(ctx context.Context, accountID uint) error
	HardDelete(ctx context.Context, accountID uint) error
}

// OfferedServiceRepository defines operations for provider service listings
type OfferedServiceRepository interface {
	Repository[models.OfferedService, models.OfferedServiceFilter]
	ListByProvider(ctx context.Context, providerID uint) ([]*models.OfferedService, error)
	Update(ctx context.Context, service *models.OfferedService) error
	Delete(ctx context.Context, id uint) error
	DeleteByProvider(ctx context.Context, providerID uint) error
}

// AccountSessionRepository defines operations for account sessions
type AccountSessionRepository interface {
	Repository[models.AccountSession, models.AccountSessionFilter]
	BySessionToken(ctx context.Context, token string) (*models.AccountSession, error)
	ByRefreshToken(ctx context.Context, token string) (*models.AccountSession, error)
	ListActiveSessionsByAccount(ctx context.Context, accountID uint) ([]*models.AccountSession, error)
	ExpireSession(ctx context.Context, sessionID uint) error
	ExpireAllAccountSessions(ctx context.Context, accountID uint) error
	CleanupExpiredSessions(ctx context.Context) error
	GetLatestByCorrelationID(ctx context.Context, correlationID uuid.UUID) (*models.AccountSession, error)
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByAccount(ctx context.Context, accountID uint, limit, offset int) ([]*models.AuditLog, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
	ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
	ListSecurityEvents(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}

// TicketRepository defines operations for support tickets
type TicketRepository interface {
	Repository[models.Ticket, models.TicketFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Ticket, error)
	ByCorrelationID(ctx context.Context, correlationID string) ([]*models.Ticket, error)
	Update(ctx context.Context, ticket *models.Ticket) error
	UpdateStatus(ctx context.Context, ticketID uint, status string) error
}
