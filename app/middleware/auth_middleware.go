// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/servicosdigitais/plataforma/app/dto"
	"github.com/servicosdigitais/plataforma/app/services"
	"github.com/servicosdigitais/plataforma/repository"
	"github.com/servicosdigitais/plataforma/utils"
)

// AuthMiddleware handles JWT token validation for protected endpoints
type AuthMiddleware struct {
	tokenService services.TokenService
	accountRepo  repository.AccountRepository
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(tokenService services.TokenService, accountRepo repository.AccountRepository) *AuthMiddleware {
	return &AuthMiddleware{
		tokenService: tokenService,
		accountRepo:  accountRepo,
	}
}

// Authenticate validates the bearer token and stores the account ID in the
// request context for downstream handlers
func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		token, ok, err := m.extractToken(c)
		if !ok {
			return err
		}

		claims, err := m.tokenService.ValidateToken(token)
		if err != nil {
			return m.tokenError(c, err)
		}
		if claims.TokenType != "access" {
			return unauthorized(c, "Access token required", "TOKEN_INVALID")
		}

		c.Locals("account_id", claims.AccountID)
		c.Locals("token_id", claims.TokenID)
		c.Locals("session_token", token)

		if requestID := c.Get("X-Request-ID"); requestID != "" {
			c.Locals("request_id", requestID)
		}

		return c.Next()
	}
}

// AdminAuthenticate validates the bearer token and requires the account to
// be an active administrator
func (m *AuthMiddleware) AdminAuthenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		token, ok, err := m.extractToken(c)
		if !ok {
			return err
		}

		claims, err := m.tokenService.ValidateToken(token)
		if err != nil {
			return m.tokenError(c, err)
		}
		if claims.TokenType != "access" {
			return unauthorized(c, "Access token required", "TOKEN_INVALID")
		}

		account, err := m.accountRepo.ByID(c.Context(), claims.AccountID)
		if err != nil || account == nil {
			return unauthorized(c, "Account not found", "ACCOUNT_NOT_FOUND")
		}
		if !utils.IsTrue(account.IsActive) || utils.IsTrue(account.IsExcluded) {
			return unauthorized(c, "Account is disabled", "ACCOUNT_DISABLED")
		}
		if !utils.IsTrue(account.IsAdmin) {
			return c.Status(fiber.StatusForbidden).JSON(dto.APIResponse{
				Success: false,
				Message: "Administrator access required",
				Error:   dto.ErrorDetail{Code: dto.ErrCodeForbidden},
			})
		}

		c.Locals("account_id", claims.AccountID)
		c.Locals("token_id", claims.TokenID)
		c.Locals("session_token", token)
		c.Locals("is_admin", true)

		if requestID := c.Get("X-Request-ID"); requestID != "" {
			c.Locals("request_id", requestID)
		}

		return c.Next()
	}
}

// extractToken pulls the bearer token from the Authorization header. When ok
// is false, the rejection response has already been written.
func (m *AuthMiddleware) extractToken(c fiber.Ctx) (token string, ok bool, err error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", false, unauthorized(c, "Authorization header is required", "MISSING_AUTHORIZATION_HEADER")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false, unauthorized(c, "Invalid authorization header format. Expected 'Bearer <token>'", "INVALID_AUTHORIZATION_FORMAT")
	}
	token = strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", false, unauthorized(c, "Access token is required", "MISSING_ACCESS_TOKEN")
	}
	return token, true, nil
}

func (m *AuthMiddleware) tokenError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrTokenExpired):
		return unauthorized(c, "Access token has expired", "TOKEN_EXPIRED")
	case errors.Is(err, services.ErrTokenInvalid):
		return unauthorized(c, "Invalid access token", "TOKEN_INVALID")
	default:
		return unauthorized(c, "Token validation failed", "TOKEN_VALIDATION_FAILED")
	}
}

func unauthorized(c fiber.Ctx, message, code string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error:   dto.ErrorDetail{Code: code},
	})
}
