// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/servicosdigitais/plataforma/app/dto"
	businessflow "github.com/servicosdigitais/plataforma/business_flow"
	"github.com/servicosdigitais/plataforma/utils"
)

// newValidator builds a validator with the platform's custom validations
// registered: Brazilian documents, password strength, and name characters.
func newValidator() *validator.Validate {
	v := validator.New()

	_ = v.RegisterValidation("cpf", func(fl validator.FieldLevel) bool {
		return utils.ValidateCPF(utils.StripNonDigits(fl.Field().String()))
	})

	_ = v.RegisterValidation("cnpj", func(fl validator.FieldLevel) bool {
		return utils.ValidateCNPJ(utils.StripNonDigits(fl.Field().String()))
	})

	_ = v.RegisterValidation("password_strength", func(fl validator.FieldLevel) bool {
		return utils.IsStrongPassword(fl.Field().String())
	})

	_ = v.RegisterValidation("alpha_space", func(fl validator.FieldLevel) bool {
		for _, char := range fl.Field().String() {
			if !((char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') ||
				(char >= 'À' && char <= 'ÿ') || char == ' ' || char == '\'' || char == '-') {
				return false
			}
		}
		return true
	})

	return v
}

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return err.Field() + " must be at least " + err.Param() + " characters"
	case "max":
		return err.Field() + " must be at most " + err.Param() + " characters"
	case "oneof":
		return err.Field() + " must be one of: " + err.Param()
	case "eqfield":
		return err.Field() + " must match " + err.Param()
	case "alpha_space":
		return err.Field() + " must contain only letters, spaces, hyphens, and apostrophes"
	case "cpf":
		return "CPF is not a valid document number"
	case "cnpj":
		return "CNPJ is not a valid document number"
	case "password_strength":
		return "Password must be at least 6 characters with uppercase, lowercase, digit, and special character"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
	default:
		return err.Field() + " is invalid"
	}
}

func validationDetails(err error) []string {
	var details []string
	if errs, ok := err.(validator.ValidationErrors); ok {
		for _, fieldErr := range errs {
			details = append(details, getValidationErrorMessage(fieldErr))
		}
	}
	return details
}

func errorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func successResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// clientMetadata extracts client information from the request for audit
// logging and session tracking
func clientMetadata(c fiber.Ctx) *businessflow.ClientMetadata {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	if requestID := c.Get(businessflow.RequestIDKey); requestID != "" {
		metadata.SetRequestID(requestID)
	}
	return metadata
}

// requestContext creates a context with a request timeout for business flows
func requestContext(c fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Context(), 30*time.Second)
}

// authAccountID reads the authenticated account ID stored by the middleware
func authAccountID(c fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("account_id").(uint)
	return id, ok
}

// authIsAdmin reads the admin flag stored by the admin middleware
func authIsAdmin(c fiber.Ctx) bool {
	isAdmin, _ := c.Locals("is_admin").(bool)
	return isAdmin
}

// parsePagination reads page and page_size query parameters with defaults
func parsePagination(c fiber.Ctx) (page, pageSize int) {
	page = fiber.Query(c, "page", 1)
	pageSize = fiber.Query(c, "page_size", 20)
	return page, pageSize
}
