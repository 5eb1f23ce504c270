// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/servicosdigitais/plataforma/app/dto"
	businessflow "github.com/servicosdigitais/plataforma/business_flow"
	"github.com/servicosdigitais/plataforma/utils"
)

// TicketHandlerInterface defines the contract for support ticket handlers
type TicketHandlerInterface interface {
	CreateTicket(c fiber.Ctx) error
	ReplyTicket(c fiber.Ctx) error
	CloseTicket(c fiber.Ctx) error
	ListOwnTickets(c fiber.Ctx) error
	GetConversation(c fiber.Ctx) error
	AdminListTickets(c fiber.Ctx) error
	AdminReplyTicket(c fiber.Ctx) error
}

// TicketHandler handles support ticket HTTP requests
type TicketHandler struct {
	ticketFlow businessflow.TicketFlow
	validator  *validator.Validate
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(ticketFlow businessflow.TicketFlow) *TicketHandler {
	return &TicketHandler{
		ticketFlow: ticketFlow,
		validator:  newValidator(),
	}
}

// CreateTicket opens a new support conversation
func (h *TicketHandler) CreateTicket(c fiber.Ctx) error {
	accountID, ok := authAccountID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", dto.ErrCodeUnauthorized, nil)
	}

	var req dto.CreateTicketRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", dto.ErrCodeValidation, validationDetails(err))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	ticket, err := h.ticketFlow.CreateTicket(ctx, accountID, &req, clientMetadata(c))
	if err != nil {
		log.Println("Create ticket failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to create ticket", dto.ErrCodeInternal, nil)
	}

	return successResponse(c, fiber.StatusCreated, "Ticket created", ticket)
}

// ReplyTicket appends a follow-up message to one of the account's tickets
func (h *TicketHandler) ReplyTicket(c fiber.Ctx) error {
	accountID, ok := authAccountID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", dto.ErrCodeUnauthorized, nil)
	}

	ticketUUID := c.Params("uuid")
	var req dto.ReplyTicketRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", dto.ErrCodeValidation, validationDetails(err))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	ticket, err := h.ticketFlow.ReplyTicket(ctx, accountID, ticketUUID, &req, clientMetadata(c))
	if err != nil {
		return h.ticketError(c, err, "Reply ticket failed")
	}

	return successResponse(c, fiber.StatusCreated, "Reply added", ticket)
}

// CloseTicket closes a conversation
func (h *TicketHandler) CloseTicket(c fiber.Ctx) error {
	accountID, ok := authAccountID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", dto.ErrCodeUnauthorized, nil)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.ticketFlow.CloseTicket(ctx, accountID, c.Params("uuid"), authIsAdmin(c)); err != nil {
		return h.ticketError(c, err, "Close ticket failed")
	}

	return successResponse(c, fiber.StatusOK, "Ticket closed", nil)
}

// ListOwnTickets lists the account's conversations
func (h *TicketHandler) ListOwnTickets(c fiber.Ctx) error {
	accountID, ok := authAccountID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", dto.ErrCodeUnauthorized, nil)
	}

	page, pageSize := parsePagination(c)

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.ticketFlow.ListOwnTickets(ctx, accountID, page, pageSize)
	if err != nil {
		if businessflow.IsInvalidPagination(err) {
			return errorResponse(c, fiber.StatusBadRequest, err.Error(), dto.ErrCodeValidation, nil)
		}
		log.Println("List tickets failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to list tickets", dto.ErrCodeInternal, nil)
	}

	return successResponse(c, fiber.StatusOK, "Tickets listed", result)
}

// GetConversation returns every message of one conversation
func (h *TicketHandler) GetConversation(c fiber.Ctx) error {
	accountID, ok := authAccountID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", dto.ErrCodeUnauthorized, nil)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	conversation, err := h.ticketFlow.GetConversation(ctx, accountID, c.Params("correlation_id"), authIsAdmin(c))
	if err != nil {
		return h.ticketError(c, err, "Get conversation failed")
	}

	return successResponse(c, fiber.StatusOK, "Conversation loaded", conversation)
}

// AdminListTickets lists tickets across all accounts for the back office
func (h *TicketHandler) AdminListTickets(c fiber.Ctx) error {
	page, pageSize := parsePagination(c)

	filter := &dto.AdminTicketFilter{}
	if status := c.Query("status"); status != "" {
		filter.Status = utils.ToPtr(status)
	}
	if priority := c.Query("priority"); priority != "" {
		filter.Priority = utils.ToPtr(priority)
	}
	if accountID := fiber.Query[uint](c, "account_id", 0); accountID > 0 {
		filter.AccountID = utils.ToPtr(accountID)
	}

	if err := h.validator.Struct(filter); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", dto.ErrCodeValidation, validationDetails(err))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.ticketFlow.AdminListTickets(ctx, filter, page, pageSize)
	if err != nil {
		if businessflow.IsInvalidPagination(err) {
			return errorResponse(c, fiber.StatusBadRequest, err.Error(), dto.ErrCodeValidation, nil)
		}
		log.Println("Admin list tickets failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to list tickets", dto.ErrCodeInternal, nil)
	}

	return successResponse(c, fiber.StatusOK, "Tickets listed", result)
}

// AdminReplyTicket records a back-office answer
func (h *TicketHandler) AdminReplyTicket(c fiber.Ctx) error {
	adminID, ok := authAccountID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", dto.ErrCodeUnauthorized, nil)
	}

	var req dto.ReplyTicketRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", dto.ErrCodeValidation, validationDetails(err))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	ticket, err := h.ticketFlow.AdminReplyTicket(ctx, adminID, c.Params("uuid"), &req, clientMetadata(c))
	if err != nil {
		return h.ticketError(c, err, "Admin reply failed")
	}

	return successResponse(c, fiber.StatusCreated, "Reply added", ticket)
}

func (h *TicketHandler) ticketError(c fiber.Ctx, err error, logPrefix string) error {
	switch {
	case businessflow.IsTicketNotFound(err):
		return errorResponse(c, fiber.StatusNotFound, "Ticket not found", dto.ErrCodeNotFound, nil)
	case businessflow.IsTicketAccessDenied(err):
		return errorResponse(c, fiber.StatusForbidden, "Ticket belongs to another account", dto.ErrCodeForbidden, nil)
	case businessflow.IsNotAuthorized(err):
		return errorResponse(c, fiber.StatusForbidden, "Administrator access required", dto.ErrCodeForbidden, nil)
	case businessflow.IsAccountNotFound(err):
		return errorResponse(c, fiber.StatusNotFound, "Account not found", dto.ErrCodeNotFound, nil)
	}
	log.Println(logPrefix, err)
	return errorResponse(c, fiber.StatusInternalServerError, "Request failed", dto.ErrCodeInternal, nil)
}
