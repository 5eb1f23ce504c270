// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/servicosdigitais/plataforma/app/dto"
	"github.com/servicosdigitais/plataforma/models"
	"github.com/servicosdigitais/plataforma/repository"
	"github.com/servicosdigitais/plataforma/utils"
	"gorm.io/gorm"
)

// TicketFlow defines the support ticket business flow
type TicketFlow interface {
	CreateTicket(ctx context.Context, accountID uint, req *dto.CreateTicketRequest, metadata *ClientMetadata) (*dto.TicketDTO, error)
	ReplyTicket(ctx context.Context, accountID uint, ticketUUID string, req *dto.ReplyTicketRequest, metadata *ClientMetadata) (*dto.TicketDTO, error)
	AdminReplyTicket(ctx context.Context, adminID uint, ticketUUID string, req *dto.ReplyTicketRequest, metadata *ClientMetadata) (*dto.TicketDTO, error)
	CloseTicket(ctx context.Context, accountID uint, ticketUUID string, isAdmin bool) error
	ListOwnTickets(ctx context.Context, accountID uint, page, pageSize int) (*dto.TicketListResponse, error)
	GetConversation(ctx context.Context, accountID uint, correlationID string, isAdmin bool) ([]dto.TicketDTO, error)
	AdminListTickets(ctx context.Context, filter *dto.AdminTicketFilter, page, pageSize int) (*dto.TicketListResponse, error)
}

// TicketFlowImpl implements TicketFlow
type TicketFlowImpl struct {
	ticketRepo  repository.TicketRepository
	accountRepo repository.AccountRepository
	db          *gorm.DB
	clock       Clock
}

// NewTicketFlow creates a new ticket flow
func NewTicketFlow(
	ticketRepo repository.TicketRepository,
	accountRepo repository.AccountRepository,
	db *gorm.DB,
	clock Clock,
) TicketFlow {
	if clock == nil {
		clock = SystemClock()
	}
	return &TicketFlowImpl{
		ticketRepo:  ticketRepo,
		accountRepo: accountRepo,
		db:          db,
		clock:       clock,
	}
}

var ticketCategories = map[string]bool{
	models.TicketCategoryQuestion:   true,
	models.TicketCategoryComplaint:  true,
	models.TicketCategorySuggestion: true,
	models.TicketCategoryOther:      true,
}

var ticketPriorities = map[string]bool{
	models.TicketPriorityLow:    true,
	models.TicketPriorityNormal: true,
	models.TicketPriorityHigh:   true,
}

// CreateTicket opens a new support conversation
func (f *TicketFlowImpl) CreateTicket(ctx context.Context, accountID uint, req *dto.CreateTicketRequest, metadata *ClientMetadata) (*dto.TicketDTO, error) {
	subject := strings.TrimSpace(req.Subject)
	message := strings.TrimSpace(req.Message)
	if subject == "" || message == "" {
		return nil, NewBusinessError("TICKET_INVALID", "subject and message are required", nil)
	}

	category := req.Category
	if category == "" {
		category = models.TicketCategoryQuestion
	}
	if !ticketCategories[category] {
		return nil, NewBusinessError("TICKET_INVALID", fmt.Sprintf("unknown category %q", category), nil)
	}

	priority := req.Priority
	if priority == "" {
		priority = models.TicketPriorityNormal
	}
	if !ticketPriorities[priority] {
		return nil, NewBusinessError("TICKET_INVALID", fmt.Sprintf("unknown priority %q", priority), nil)
	}

	ticket := &models.Ticket{
		UUID:          uuid.New(),
		CorrelationID: uuid.New(),
		AccountID:     accountID,
		Category:      category,
		Subject:       subject,
		Message:       message,
		Priority:      priority,
		Status:        models.TicketStatusOpen,
		Attachments:   req.Attachments,
		CreatedAt:     f.clock.Now(),
		UpdatedAt:     f.clock.Now(),
	}

	if err := f.ticketRepo.Save(ctx, ticket); err != nil {
		return nil, NewBusinessError("TICKET_CREATE_FAILED", "failed to create ticket", err)
	}

	created := toTicketDTO(ticket)
	return &created, nil
}

// ReplyTicket appends an account's follow-up message to an open conversation
func (f *TicketFlowImpl) ReplyTicket(ctx context.Context, accountID uint, ticketUUID string, req *dto.ReplyTicketRequest, metadata *ClientMetadata) (*dto.TicketDTO, error) {
	origin, err := f.requireTicket(ctx, ticketUUID)
	if err != nil {
		return nil, err
	}
	if origin.AccountID != accountID {
		return nil, ErrTicketAccessDenied
	}
	if origin.Status == models.TicketStatusClosed {
		return nil, NewBusinessError("TICKET_CLOSED", "conversation is closed", nil)
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, NewBusinessError("TICKET_INVALID", "message is required", nil)
	}

	reply := &models.Ticket{
		UUID:          uuid.New(),
		CorrelationID: origin.CorrelationID,
		AccountID:     accountID,
		Category:      origin.Category,
		Subject:       origin.Subject,
		Message:       message,
		Priority:      origin.Priority,
		Status:        models.TicketStatusOpen,
		Attachments:   req.Attachments,
		CreatedAt:     f.clock.Now(),
		UpdatedAt:     f.clock.Now(),
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.ticketRepo.Save(txCtx, reply); err != nil {
			return fmt.Errorf("failed to save reply: %w", err)
		}
		// A follow-up reopens the conversation for the back office.
		if origin.Status != models.TicketStatusOpen {
			if err := f.ticketRepo.UpdateStatus(txCtx, origin.ID, models.TicketStatusOpen); err != nil {
				return fmt.Errorf("failed to reopen conversation: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, NewBusinessError("TICKET_REPLY_FAILED", "failed to reply to ticket", err)
	}

	created := toTicketDTO(reply)
	return &created, nil
}

// AdminReplyTicket records a back-office answer and marks the conversation
// answered. The responder and response time land on the original ticket.
func (f *TicketFlowImpl) AdminReplyTicket(ctx context.Context, adminID uint, ticketUUID string, req *dto.ReplyTicketRequest, metadata *ClientMetadata) (*dto.TicketDTO, error) {
	if err := f.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	origin, err := f.requireTicket(ctx, ticketUUID)
	if err != nil {
		return nil, err
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, NewBusinessError("TICKET_INVALID", "message is required", nil)
	}

	now := f.clock.Now()
	reply := &models.Ticket{
		UUID:           uuid.New(),
		CorrelationID:  origin.CorrelationID,
		AccountID:      origin.AccountID,
		Category:       origin.Category,
		Subject:        origin.Subject,
		Message:        message,
		Priority:       origin.Priority,
		Status:         models.TicketStatusAnswered,
		Attachments:    req.Attachments,
		RepliedByAdmin: utils.ToPtr(true),
		RespondedAt:    &now,
		ResponderID:    &adminID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.ticketRepo.Save(txCtx, reply); err != nil {
			return fmt.Errorf("failed to save admin reply: %w", err)
		}
		origin.Status = models.TicketStatusAnswered
		origin.RepliedByAdmin = utils.ToPtr(true)
		origin.RespondedAt = &now
		origin.ResponderID = &adminID
		origin.UpdatedAt = now
		if err := f.ticketRepo.Update(txCtx, origin); err != nil {
			return fmt.Errorf("failed to mark conversation answered: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, NewBusinessError("TICKET_REPLY_FAILED", "failed to answer ticket", err)
	}

	created := toTicketDTO(reply)
	return &created, nil
}

// CloseTicket closes a conversation. The requester can close their own;
// admins can close any.
func (f *TicketFlowImpl) CloseTicket(ctx context.Context, accountID uint, ticketUUID string, isAdmin bool) error {
	ticket, err := f.requireTicket(ctx, ticketUUID)
	if err != nil {
		return err
	}
	if !isAdmin && ticket.AccountID != accountID {
		return ErrTicketAccessDenied
	}
	if err := f.ticketRepo.UpdateStatus(ctx, ticket.ID, models.TicketStatusClosed); err != nil {
		return NewBusinessError("TICKET_CLOSE_FAILED", "failed to close ticket", err)
	}
	return nil
}

// ListOwnTickets returns the account's conversations, newest first
func (f *TicketFlowImpl) ListOwnTickets(ctx context.Context, accountID uint, page, pageSize int) (*dto.TicketListResponse, error) {
	if page < 1 {
		return nil, ErrInvalidPage
	}
	if pageSize < 1 || pageSize > 100 {
		return nil, ErrInvalidPageSize
	}

	filter := models.TicketFilter{AccountID: &accountID}
	tickets, err := f.ticketRepo.ByFilter(ctx, filter, "created_at DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("TICKET_LIST_FAILED", "failed to list tickets", err)
	}
	total, err := f.ticketRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("TICKET_COUNT_FAILED", "failed to count tickets", err)
	}

	return &dto.TicketListResponse{
		Tickets:  toTicketDTOs(tickets),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// GetConversation returns every message sharing a correlation ID, oldest
// first. Non-admins only see their own conversations.
func (f *TicketFlowImpl) GetConversation(ctx context.Context, accountID uint, correlationID string, isAdmin bool) ([]dto.TicketDTO, error) {
	tickets, err := f.ticketRepo.ByCorrelationID(ctx, correlationID)
	if err != nil {
		return nil, NewBusinessError("TICKET_LOOKUP_FAILED", "failed to load conversation", err)
	}
	if len(tickets) == 0 {
		return nil, ErrTicketNotFound
	}
	if !isAdmin {
		for _, t := range tickets {
			if t.AccountID != accountID {
				return nil, ErrTicketAccessDenied
			}
		}
	}
	return toTicketDTOs(tickets), nil
}

// AdminListTickets returns tickets across all accounts, with requester
// details attached for the back office.
func (f *TicketFlowImpl) AdminListTickets(ctx context.Context, filter *dto.AdminTicketFilter, page, pageSize int) (*dto.TicketListResponse, error) {
	if page < 1 {
		return nil, ErrInvalidPage
	}
	if pageSize < 1 || pageSize > 100 {
		return nil, ErrInvalidPageSize
	}

	modelFilter := models.TicketFilter{}
	if filter != nil {
		modelFilter.Status = filter.Status
		modelFilter.Priority = filter.Priority
		modelFilter.AccountID = filter.AccountID
	}

	tickets, err := f.ticketRepo.ByFilter(ctx, modelFilter, "created_at DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("TICKET_LIST_FAILED", "failed to list tickets", err)
	}
	total, err := f.ticketRepo.Count(ctx, modelFilter)
	if err != nil {
		return nil, NewBusinessError("TICKET_COUNT_FAILED", "failed to count tickets", err)
	}

	out := toTicketDTOs(tickets)
	if err := f.attachRequesters(ctx, tickets, out); err != nil {
		return nil, err
	}

	return &dto.TicketListResponse{
		Tickets:  out,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// attachRequesters resolves requester names and emails in one batch
func (f *TicketFlowImpl) attachRequesters(ctx context.Context, tickets []*models.Ticket, out []dto.TicketDTO) error {
	ids := make([]uint, 0, len(tickets))
	seen := make(map[uint]bool, len(tickets))
	for _, t := range tickets {
		if !seen[t.AccountID] {
			seen[t.AccountID] = true
			ids = append(ids, t.AccountID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	accounts, err := f.accountRepo.FindByIDs(ctx, ids)
	if err != nil {
		return NewBusinessError("TICKET_REQUESTER_LOOKUP_FAILED", "failed to load ticket requesters", err)
	}
	byID := make(map[uint]*models.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}

	for i, t := range tickets {
		if account, ok := byID[t.AccountID]; ok {
			out[i].RequesterName = account.DisplayName()
			out[i].RequesterEmail = account.Email
		}
	}
	return nil
}

func (f *TicketFlowImpl) requireTicket(ctx context.Context, ticketUUID string) (*models.Ticket, error) {
	ticket, err := f.ticketRepo.ByUUID(ctx, ticketUUID)
	if err != nil {
		return nil, NewBusinessError("TICKET_LOOKUP_FAILED", "failed to load ticket", err)
	}
	if ticket == nil {
		return nil, ErrTicketNotFound
	}
	return ticket, nil
}

func (f *TicketFlowImpl) requireAdmin(ctx context.Context, accountID uint) error {
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

func toTicketDTO(ticket *models.Ticket) dto.TicketDTO {
	d := dto.TicketDTO{
		UUID:          ticket.UUID.String(),
		CorrelationID: ticket.CorrelationID.String(),
		AccountID:     ticket.AccountID,
		Category:      ticket.Category,
		Subject:       ticket.Subject,
		Message:       ticket.Message,
		Priority:      ticket.Priority,
		Status:        ticket.Status,
		Attachments:   ticket.Attachments,
		CreatedAt:     ticket.CreatedAt.Format(timeLayout),
	}
	if utils.IsTrue(ticket.RepliedByAdmin) {
		d.RepliedByAdmin = true
	}
	if ticket.RespondedAt != nil {
		d.RespondedAt = utils.ToPtr(ticket.RespondedAt.Format(timeLayout))
	}
	return d
}

func toTicketDTOs(tickets []*models.Ticket) []dto.TicketDTO {
	out := make([]dto.TicketDTO, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, toTicketDTO(t))
	}
	return out
}
