// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/servicosdigitais/plataforma/app/dto"
	"github.com/servicosdigitais/plataforma/app/middleware"
	businessflow "github.com/servicosdigitais/plataforma/business_flow"
)

// AuthHandlerInterface defines the contract for authentication handlers
type AuthHandlerInterface interface {
	Signup(c fiber.Ctx) error
	Login(c fiber.Ctx) error
	Logout(c fiber.Ctx) error
	Refresh(c fiber.Ctx) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	signupFlow businessflow.SignupFlow
	loginFlow  businessflow.LoginFlow
	validator  *validator.Validate
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(signupFlow businessflow.SignupFlow, loginFlow businessflow.LoginFlow) *AuthHandler {
	return &AuthHandler{
		signupFlow: signupFlow,
		loginFlow:  loginFlow,
		validator:  newValidator(),
	}
}

// Signup handles account registration for all three kinds
func (h *AuthHandler) Signup(c fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", dto.ErrCodeValidation, validationDetails(err))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.signupFlow.Signup(ctx, &req, clientMetadata(c))
	if err != nil {
		switch {
		case businessflow.IsEmailAlreadyExists(err):
			return errorResponse(c, fiber.StatusConflict, "Email already registered", dto.ErrCodeConflict, nil)
		case businessflow.IsDocumentAlreadyExists(err):
			return errorResponse(c, fiber.StatusConflict, "Document already registered", dto.ErrCodeConflict, nil)
		case businessflow.IsInvalidDocument(err):
			return errorResponse(c, fiber.StatusBadRequest, "Document number is invalid", dto.ErrCodeValidation, nil)
		case businessflow.IsInvalidAccountKind(err):
			return errorResponse(c, fiber.StatusBadRequest, "Unknown account kind", dto.ErrCodeValidation, nil)
		case businessflow.IsFirstNameRequired(err), businessflow.IsLegalNameRequired(err), businessflow.IsSpecialtyRequired(err):
			return errorResponse(c, fiber.StatusBadRequest, err.Error(), dto.ErrCodeValidation, nil)
		case businessflow.IsWeakPassword(err):
			return errorResponse(c, fiber.StatusBadRequest, "Password does not meet the strength policy", dto.ErrCodeValidation, nil)
		case businessflow.IsPasswordMismatch(err):
			return errorResponse(c, fiber.StatusBadRequest, "Password confirmation does not match", dto.ErrCodeValidation, nil)
		}

		log.Println("Signup failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Signup failed", dto.ErrCodeInternal, nil)
	}

	message := "Account registered successfully"
	if result.PendingApproval {
		message = "Registration received, awaiting administrator approval"
	}
	return successResponse(c, fiber.StatusCreated, message, result)
}

// Login authenticates by email, CPF, or CNPJ
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", dto.ErrCodeValidation, validationDetails(err))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.loginFlow.Login(ctx, &req, clientMetadata(c))
	if err != nil {
		if rejection, ok := businessflow.AsRejection(err); ok {
			return rejectionResponse(c, rejection)
		}
		log.Println("Login failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Login failed", dto.ErrCodeInternal, nil)
	}

	return successResponse(c, fiber.StatusOK, "Login successful", result)
}

// Logout terminates the current session
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	token, ok := c.Locals("session_token").(string)
	if !ok || token == "" {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", dto.ErrCodeUnauthorized, nil)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.loginFlow.Logout(ctx, token, clientMetadata(c)); err != nil {
		if businessflow.IsSessionNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Session not found", dto.ErrCodeNotFound, nil)
		}
		log.Println("Logout failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Logout failed", dto.ErrCodeInternal, nil)
	}

	return successResponse(c, fiber.StatusOK, "Logged out", nil)
}

// Refresh rotates the session tokens using a refresh token
func (h *AuthHandler) Refresh(c fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", dto.ErrCodeValidation, validationDetails(err))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.loginFlow.RefreshSession(ctx, req.RefreshToken, clientMetadata(c))
	if err != nil {
		if rejection, ok := businessflow.AsRejection(err); ok {
			return rejectionResponse(c, rejection)
		}
		if businessflow.IsSessionNotFound(err) || businessflow.IsAccountNotFound(err) {
			return errorResponse(c, fiber.StatusUnauthorized, "Invalid refresh token", dto.ErrCodeUnauthorized, nil)
		}
		log.Println("Session refresh failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Session refresh failed", dto.ErrCodeInternal, nil)
	}

	return successResponse(c, fiber.StatusOK, "Session refreshed", result)
}

// rejectionResponse maps a refused login to its HTTP status and error code
func rejectionResponse(c fiber.Ctx, rejection *businessflow.RejectionError) error {
	middleware.RecordLoginRejection(rejection.Reason)

	data := dto.LoginRejectionData{
		Reason:            rejection.Reason,
		RemainingAttempts: rejection.RemainingAttempts,
		MinutesRemaining:  rejection.MinutesRemaining,
	}

	switch rejection.Reason {
	case businessflow.RejectionMissingIdentifier:
		return errorResponse(c, fiber.StatusBadRequest, rejection.Error(), dto.ErrCodeMissingIdentifier, data)
	case businessflow.RejectionLocked:
		return errorResponse(c, fiber.StatusLocked, rejection.Error(), dto.ErrCodeAccountLocked, data)
	case businessflow.RejectionAccountDisabled:
		return errorResponse(c, fiber.StatusForbidden, rejection.Error(), dto.ErrCodeAccountDisabled, data)
	default:
		return errorResponse(c, fiber.StatusUnauthorized, rejection.Error(), dto.ErrCodeInvalidCredentials, data)
	}
}
