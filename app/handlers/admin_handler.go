// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/servicosdigitais/plataforma/app/dto"
	businessflow "github.com/servicosdigitais/plataforma/business_flow"
	"github.com/servicosdigitais/plataforma/utils"
)

// AdminHandlerInterface defines the contract for back-office handlers
type AdminHandlerInterface interface {
	ListAccounts(c fiber.Ctx) error
	SetActiveStatus(c fiber.Ctx) error
	SetAdminStatus(c fiber.Ctx) error
	SoftDeleteAccount(c fiber.Ctx) error
	HardDeleteAccount(c fiber.Ctx) error
	ExportAccounts(c fiber.Ctx) error
}

// AdminHandler handles back-office HTTP requests
type AdminHandler struct {
	adminFlow businessflow.AdminFlow
	validator *validator.Validate
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminFlow businessflow.AdminFlow) *AdminHandler {
	return &AdminHandler{
		adminFlow: adminFlow,
		validator: newValidator(),
	}
}

// ListAccounts returns accounts for the back office
func (h *AdminHandler) ListAccounts(c fiber.Ctx) error {
	adminID, ok := authAccountID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", dto.ErrCodeUnauthorized, nil)
	}

	page, pageSize := parsePagination(c)
	filter := accountFilterFromQuery(c)

	if err := h.validator.Struct(filter); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", dto.ErrCodeValidation, validationDetails(err))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.adminFlow.ListAccounts(ctx, adminID, filter, page, pageSize)
	if err != nil {
		return h.adminError(c, err, "List accounts failed")
	}

	return successResponse(c, fiber.StatusOK, "Accounts listed", result)
}

// SetActiveStatus enables or disables an account; activating a pending
// provider approves its listing
func (h *AdminHandler) SetActiveStatus(c fiber.Ctx) error {
	adminID, ok := authAccountID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", dto.ErrCodeUnauthorized, nil)
	}

	targetID, err := parseIDParam(c, "id")
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid account ID", "INVALID_REQUEST", nil)
	}

	var req dto.SetActiveStatusRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.adminFlow.SetActiveStatus(ctx, adminID, targetID, req.Active, clientMetadata(c)); err != nil {
		return h.adminError(c, err, "Set active status failed")
	}

	message := "Account deactivated"
	if req.Active {
		message = "Account activated"
	}
	return successResponse(c, fiber.StatusOK, message, nil)
}

// SetAdminStatus grants or revokes back-office access
func (h *AdminHandler) SetAdminStatus(c fiber.Ctx) error {
	adminID, ok := authAccountID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", dto.ErrCodeUnauthorized, nil)
	}

	targetID, err := parseIDParam(c, "id")
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid account ID", "INVALID_REQUEST", nil)
	}

	var req dto.SetAdminStatusRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.adminFlow.SetAdminStatus(ctx, adminID, targetID, req.Admin, clientMetadata(c)); err != nil {
		return h.adminError(c, err, "Set admin status failed")
	}

	message := "Admin access revoked"
	if req.Admin {
		message = "Admin access granted"
	}
	return successResponse(c, fiber.StatusOK, message, nil)
}

// SoftDeleteAccount disables and excludes the account while keeping its row
func (h *AdminHandler) SoftDeleteAccount(c fiber.Ctx) error {
	adminID, ok := authAccountID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", dto.ErrCodeUnauthorized, nil)
	}

	targetID, err := parseIDParam(c, "id")
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid account ID", "INVALID_REQUEST", nil)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.adminFlow.SoftDeleteAccount(ctx, adminID, targetID, clientMetadata(c)); err != nil {
		return h.adminError(c, err, "Soft delete failed")
	}

	return successResponse(c, fiber.StatusOK, "Account excluded", nil)
}

// HardDeleteAccount permanently removes a non-admin account
func (h *AdminHandler) HardDeleteAccount(c fiber.Ctx) error {
	adminID, ok := authAccountID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", dto.ErrCodeUnauthorized, nil)
	}

	targetID, err := parseIDParam(c, "id")
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid account ID", "INVALID_REQUEST", nil)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.adminFlow.HardDeleteAccount(ctx, adminID, targetID, clientMetadata(c)); err != nil {
		return h.adminError(c, err, "Hard delete failed")
	}

	return successResponse(c, fiber.StatusOK, "Account permanently deleted", nil)
}

// ExportAccounts streams the filtered account list as an XLSX download
func (h *AdminHandler) ExportAccounts(c fiber.Ctx) error {
	adminID, ok := authAccountID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", dto.ErrCodeUnauthorized, nil)
	}

	filter := accountFilterFromQuery(c)
	if err := h.validator.Struct(filter); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", dto.ErrCodeValidation, validationDetails(err))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	spreadsheet, err := h.adminFlow.ExportAccountsXLSX(ctx, adminID, filter)
	if err != nil {
		return h.adminError(c, err, "Export accounts failed")
	}

	fileName := fmt.Sprintf("accounts-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", fileName))
	return c.Send(spreadsheet)
}

func (h *AdminHandler) adminError(c fiber.Ctx, err error, logPrefix string) error {
	switch {
	case businessflow.IsNotAuthorized(err):
		return errorResponse(c, fiber.StatusForbidden, "Administrator access required", dto.ErrCodeForbidden, nil)
	case businessflow.IsAccountNotFound(err):
		return errorResponse(c, fiber.StatusNotFound, "Account not found", dto.ErrCodeNotFound, nil)
	case businessflow.IsAdminNotDeletable(err):
		return errorResponse(c, fiber.StatusForbidden, "Administrator accounts cannot be hard-deleted", dto.ErrCodeForbidden, nil)
	case businessflow.IsInvalidPagination(err):
		return errorResponse(c, fiber.StatusBadRequest, err.Error(), dto.ErrCodeValidation, nil)
	}
	log.Println(logPrefix, err)
	return errorResponse(c, fiber.StatusInternalServerError, "Request failed", dto.ErrCodeInternal, nil)
}

func accountFilterFromQuery(c fiber.Ctx) *dto.AdminAccountFilter {
	filter := &dto.AdminAccountFilter{}
	if kind := c.Query("kind"); kind != "" {
		filter.Kind = utils.ToPtr(kind)
	}
	if active := c.Query("is_active"); active != "" {
		filter.IsActive = utils.ToPtr(active == "true")
	}
	if email := c.Query("email"); email != "" {
		filter.Email = utils.ToPtr(email)
	}
	if search := c.Query("search"); search != "" {
		filter.Search = utils.ToPtr(search)
	}
	return filter
}
