// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/servicosdigitais/plataforma/app/dto"
	businessflow "github.com/servicosdigitais/plataforma/business_flow"
)

// ServiceHandlerInterface defines the contract for directory and service handlers
type ServiceHandlerInterface interface {
	ListProviders(c fiber.Ctx) error
	GetProvider(c fiber.Ctx) error
	ListOwnServices(c fiber.Ctx) error
	CreateService(c fiber.Ctx) error
	UpdateService(c fiber.Ctx) error
	DeleteService(c fiber.Ctx) error
}

// ServiceHandler handles the provider directory and offered-service requests
type ServiceHandler struct {
	serviceFlow businessflow.ServiceFlow
	validator   *validator.Validate
}

// NewServiceHandler creates a new service handler
func NewServiceHandler(serviceFlow businessflow.ServiceFlow) *ServiceHandler {
	return &ServiceHandler{
		serviceFlow: serviceFlow,
		validator:   newValidator(),
	}
}

// ListProviders returns the public directory of approved providers
func (h *ServiceHandler) ListProviders(c fiber.Ctx) error {
	page, pageSize := parsePagination(c)

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.serviceFlow.ListProviders(ctx, page, pageSize)
	if err != nil {
		if businessflow.IsInvalidPagination(err) {
			return errorResponse(c, fiber.StatusBadRequest, err.Error(), dto.ErrCodeValidation, nil)
		}
		log.Println("List providers failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to list providers", dto.ErrCodeInternal, nil)
	}

	return successResponse(c, fiber.StatusOK, "Providers listed", result)
}

// GetProvider returns one provider's public listing by UUID
func (h *ServiceHandler) GetProvider(c fiber.Ctx) error {
	providerUUID := c.Params("uuid")
	if providerUUID == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Provider UUID is required", "INVALID_REQUEST", nil)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	provider, err := h.serviceFlow.GetProvider(ctx, providerUUID)
	if err != nil {
		if businessflow.IsAccountNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Provider not found", dto.ErrCodeNotFound, nil)
		}
		log.Println("Get provider failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to load provider", dto.ErrCodeInternal, nil)
	}

	return successResponse(c, fiber.StatusOK, "Provider loaded", provider)
}

// ListOwnServices lists the authenticated provider's services
func (h *ServiceHandler) ListOwnServices(c fiber.Ctx) error {
	accountID, ok := authAccountID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", dto.ErrCodeUnauthorized, nil)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	services, err := h.serviceFlow.ListOwnServices(ctx, accountID)
	if err != nil {
		if businessflow.IsNotAProvider(err) {
			return errorResponse(c, fiber.StatusForbidden, "Only providers can manage services", dto.ErrCodeForbidden, nil)
		}
		log.Println("List own services failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to list services", dto.ErrCodeInternal, nil)
	}

	return successResponse(c, fiber.StatusOK, "Services listed", services)
}

// CreateService adds a service to the provider's listing
func (h *ServiceHandler) CreateService(c fiber.Ctx) error {
	accountID, ok := authAccountID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", dto.ErrCodeUnauthorized, nil)
	}

	var req dto.CreateServiceRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", dto.ErrCodeValidation, validationDetails(err))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	service, err := h.serviceFlow.CreateService(ctx, accountID, &req)
	if err != nil {
		return h.serviceError(c, err, "Create service failed")
	}

	return successResponse(c, fiber.StatusCreated, "Service created", service)
}

// UpdateService edits one of the provider's services
func (h *ServiceHandler) UpdateService(c fiber.Ctx) error {
	accountID, ok := authAccountID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", dto.ErrCodeUnauthorized, nil)
	}

	serviceID, err := parseIDParam(c, "id")
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid service ID", "INVALID_REQUEST", nil)
	}

	var req dto.UpdateServiceRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", dto.ErrCodeValidation, validationDetails(err))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	service, err := h.serviceFlow.UpdateService(ctx, accountID, serviceID, &req)
	if err != nil {
		return h.serviceError(c, err, "Update service failed")
	}

	return successResponse(c, fiber.StatusOK, "Service updated", service)
}

// DeleteService removes one of the provider's services
func (h *ServiceHandler) DeleteService(c fiber.Ctx) error {
	accountID, ok := authAccountID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", dto.ErrCodeUnauthorized, nil)
	}

	serviceID, err := parseIDParam(c, "id")
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid service ID", "INVALID_REQUEST", nil)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.serviceFlow.DeleteService(ctx, accountID, serviceID); err != nil {
		return h.serviceError(c, err, "Delete service failed")
	}

	return successResponse(c, fiber.StatusOK, "Service deleted", nil)
}

func (h *ServiceHandler) serviceError(c fiber.Ctx, err error, logPrefix string) error {
	switch {
	case businessflow.IsNotAProvider(err):
		return errorResponse(c, fiber.StatusForbidden, "Only providers can manage services", dto.ErrCodeForbidden, nil)
	case businessflow.IsServiceNotFound(err):
		return errorResponse(c, fiber.StatusNotFound, "Service not found", dto.ErrCodeNotFound, nil)
	case businessflow.IsServiceAccessDenied(err):
		return errorResponse(c, fiber.StatusForbidden, "Service belongs to another provider", dto.ErrCodeForbidden, nil)
	case businessflow.IsInvalidServiceName(err), businessflow.IsInvalidServicePrice(err), businessflow.IsInvalidServiceDescription(err):
		return errorResponse(c, fiber.StatusBadRequest, err.Error(), dto.ErrCodeValidation, nil)
	case businessflow.IsAccountNotFound(err):
		return errorResponse(c, fiber.StatusNotFound, "Account not found", dto.ErrCodeNotFound, nil)
	}
	log.Println(logPrefix, err)
	return errorResponse(c, fiber.StatusInternalServerError, "Request failed", dto.ErrCodeInternal, nil)
}

// parseIDParam reads a numeric path parameter
func parseIDParam(c fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
