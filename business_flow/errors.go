// Package businessflow contains the core business logic and use cases for authentication workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Account-related errors
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountInactive     = errors.New("account is disabled or pending approval")
	ErrAccountTypeNotFound = errors.New("account type not found")
	ErrIncorrectPassword   = errors.New("incorrect password")
	ErrAccountLocked       = errors.New("account is temporarily locked")
	ErrMissingIdentifier   = errors.New("login identifier is required")

	// Session errors
	ErrSessionNotFound = errors.New("session not found or already expired")

	// Registration errors
	ErrEmailAlreadyExists    = errors.New("email already exists")
	ErrDocumentAlreadyExists = errors.New("document already exists")
	ErrInvalidDocument       = errors.New("document number is invalid")
	ErrInvalidAccountKind    = errors.New("unknown account kind")
	ErrFirstNameRequired     = errors.New("first name is required for individual accounts")
	ErrLegalNameRequired     = errors.New("legal name is required for company accounts")
	ErrSpecialtyRequired     = errors.New("specialty is required for provider accounts")
	ErrWeakPassword          = errors.New("password does not meet the strength policy")
	ErrPasswordMismatch      = errors.New("password confirmation does not match")

	// Profile errors
	ErrInvalidProfilePhoto = errors.New("profile photo could not be decoded")

	// Provider directory errors
	ErrNotAProvider              = errors.New("account is not a service provider")
	ErrServiceNotFound           = errors.New("offered service not found")
	ErrServiceAccessDenied       = errors.New("offered service belongs to another provider")
	ErrInvalidServicePrice       = errors.New("service price must be a positive amount with at most two decimal places")
	ErrInvalidServiceName        = errors.New("service name is required and limited to 100 characters")
	ErrInvalidServiceDescription = errors.New("service description is required and limited to 500 characters")

	// Ticket errors
	ErrTicketNotFound     = errors.New("ticket not found")
	ErrTicketAccessDenied = errors.New("ticket belongs to another account")

	// Admin errors
	ErrAdminNotDeletable = errors.New("administrator accounts cannot be hard-deleted")
	ErrNotAuthorized     = errors.New("account is not authorized for this operation")

	// Filter errors
	ErrInvalidPage           = errors.New("page must be at least 1")
	ErrInvalidPageSize       = errors.New("page size must be between 1 and 100")
	ErrStartDateAfterEndDate = errors.New("start date cannot be after end date")
)

// Login rejection reasons, exposed to callers of the authentication flow.
const (
	RejectionMissingIdentifier  = "MISSING_IDENTIFIER"
	RejectionInvalidCredentials = "INVALID_CREDENTIALS"
	RejectionLocked             = "ACCOUNT_LOCKED"
	RejectionAccountDisabled    = "ACCOUNT_DISABLED"
)

// RejectionError is the typed outcome of a refused login. The remaining
// attempt count is only populated after the identifier resolved to a real
// account; lockout minutes are only populated for the locked reason.
type RejectionError struct {
	Reason            string
	RemainingAttempts *int
	MinutesRemaining  *int
	Err               error
}

func (e *RejectionError) Error() string {
	switch e.Reason {
	case RejectionMissingIdentifier:
		return "login identifier is required"
	case RejectionLocked:
		if e.MinutesRemaining != nil {
			return fmt.Sprintf("account locked, try again in %d minute(s)", *e.MinutesRemaining)
		}
		return "account is temporarily locked"
	case RejectionAccountDisabled:
		return "account is disabled or pending approval"
	default:
		if e.RemainingAttempts != nil {
			return fmt.Sprintf("invalid credentials, %d attempt(s) remaining", *e.RemainingAttempts)
		}
		return "invalid credentials"
	}
}

func (e *RejectionError) Unwrap() error {
	return e.Err
}

// AsRejection extracts a RejectionError from an error chain.
func AsRejection(err error) (*RejectionError, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func IsAccountNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound)
}

func IsSessionNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}

func IsAccountInactive(err error) bool {
	return errors.Is(err, ErrAccountInactive)
}

func IsAccountTypeNotFound(err error) bool {
	return errors.Is(err, ErrAccountTypeNotFound)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsAccountLocked(err error) bool {
	return errors.Is(err, ErrAccountLocked)
}

func IsMissingIdentifier(err error) bool {
	return errors.Is(err, ErrMissingIdentifier)
}

func IsEmailAlreadyExists(err error) bool {
	return errors.Is(err, ErrEmailAlreadyExists)
}

func IsDocumentAlreadyExists(err error) bool {
	return errors.Is(err, ErrDocumentAlreadyExists)
}

func IsInvalidDocument(err error) bool {
	return errors.Is(err, ErrInvalidDocument)
}

func IsInvalidAccountKind(err error) bool {
	return errors.Is(err, ErrInvalidAccountKind)
}

func IsWeakPassword(err error) bool {
	return errors.Is(err, ErrWeakPassword)
}

func IsPasswordMismatch(err error) bool {
	return errors.Is(err, ErrPasswordMismatch)
}

func IsFirstNameRequired(err error) bool {
	return errors.Is(err, ErrFirstNameRequired)
}

func IsLegalNameRequired(err error) bool {
	return errors.Is(err, ErrLegalNameRequired)
}

func IsSpecialtyRequired(err error) bool {
	return errors.Is(err, ErrSpecialtyRequired)
}

func IsInvalidProfilePhoto(err error) bool {
	return errors.Is(err, ErrInvalidProfilePhoto)
}

func IsInvalidServicePrice(err error) bool {
	return errors.Is(err, ErrInvalidServicePrice)
}

func IsInvalidServiceName(err error) bool {
	return errors.Is(err, ErrInvalidServiceName)
}

func IsInvalidServiceDescription(err error) bool {
	return errors.Is(err, ErrInvalidServiceDescription)
}

func IsNotAProvider(err error) bool {
	return errors.Is(err, ErrNotAProvider)
}

func IsServiceNotFound(err error) bool {
	return errors.Is(err, ErrServiceNotFound)
}

func IsServiceAccessDenied(err error) bool {
	return errors.Is(err, ErrServiceAccessDenied)
}

func IsTicketNotFound(err error) bool {
	return errors.Is(err, ErrTicketNotFound)
}

func IsTicketAccessDenied(err error) bool {
	return errors.Is(err, ErrTicketAccessDenied)
}

func IsAdminNotDeletable(err error) bool {
	return errors.Is(err, ErrAdminNotDeletable)
}

func IsInvalidPagination(err error) bool {
	return errors.Is(err, ErrInvalidPage) || errors.Is(err, ErrInvalidPageSize)
}

func IsNotAuthorized(err error) bool {
	return errors.Is(err, ErrNotAuthorized)
}
