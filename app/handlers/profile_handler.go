// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"io"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/servicosdigitais/plataforma/app/dto"
	businessflow "github.com/servicosdigitais/plataforma/business_flow"
)

// maxPhotoSize caps uploaded profile photos at 5 MiB
const maxPhotoSize = 5 << 20

// ProfileHandlerInterface defines the contract for profile handlers
type ProfileHandlerInterface interface {
	GetProfile(c fiber.Ctx) error
	UpdateProfile(c fiber.Ctx) error
	ChangePassword(c fiber.Ctx) error
	SetHideSensitiveData(c fiber.Ctx) error
	UploadPhoto(c fiber.Ctx) error
}

// ProfileHandler handles profile-related HTTP requests
type ProfileHandler struct {
	profileFlow businessflow.ProfileFlow
	validator   *validator.Validate
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileFlow businessflow.ProfileFlow) *ProfileHandler {
	return &ProfileHandler{
		profileFlow: profileFlow,
		validator:   newValidator(),
	}
}

// GetProfile returns the authenticated account's profile
func (h *ProfileHandler) GetProfile(c fiber.Ctx) error {
	accountID, ok := authAccountID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", dto.ErrCodeUnauthorized, nil)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	profile, err := h.profileFlow.GetProfile(ctx, accountID)
	if err != nil {
		if businessflow.IsAccountNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Account not found", dto.ErrCodeNotFound, nil)
		}
		log.Println("Get profile failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to load profile", dto.ErrCodeInternal, nil)
	}

	return successResponse(c, fiber.StatusOK, "Profile loaded", profile)
}

// UpdateProfile applies the editable profile fields
func (h *ProfileHandler) UpdateProfile(c fiber.Ctx) error {
	accountID, ok := authAccountID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", dto.ErrCodeUnauthorized, nil)
	}

	var req dto.UpdateProfileRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", dto.ErrCodeValidation, validationDetails(err))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	profile, err := h.profileFlow.UpdateProfile(ctx, accountID, &req, clientMetadata(c))
	if err != nil {
		switch {
		case businessflow.IsAccountNotFound(err):
			return errorResponse(c, fiber.StatusNotFound, "Account not found", dto.ErrCodeNotFound, nil)
		case businessflow.IsEmailAlreadyExists(err):
			return errorResponse(c, fiber.StatusConflict, "Email already registered", dto.ErrCodeConflict, nil)
		case businessflow.IsLegalNameRequired(err), businessflow.IsSpecialtyRequired(err):
			return errorResponse(c, fiber.StatusBadRequest, err.Error(), dto.ErrCodeValidation, nil)
		}
		log.Println("Update profile failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to update profile", dto.ErrCodeInternal, nil)
	}

	return successResponse(c, fiber.StatusOK, "Profile updated", profile)
}

// ChangePassword replaces the account password after verifying the current one
func (h *ProfileHandler) ChangePassword(c fiber.Ctx) error {
	accountID, ok := authAccountID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", dto.ErrCodeUnauthorized, nil)
	}

	var req dto.ChangePasswordRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", dto.ErrCodeValidation, validationDetails(err))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.profileFlow.ChangePassword(ctx, accountID, &req, clientMetadata(c)); err != nil {
		switch {
		case businessflow.IsIncorrectPassword(err):
			return errorResponse(c, fiber.StatusForbidden, "Current password is incorrect", dto.ErrCodeForbidden, nil)
		case businessflow.IsWeakPassword(err):
			return errorResponse(c, fiber.StatusBadRequest, "Password does not meet the strength policy", dto.ErrCodeValidation, nil)
		case businessflow.IsPasswordMismatch(err):
			return errorResponse(c, fiber.StatusBadRequest, "Password confirmation does not match", dto.ErrCodeValidation, nil)
		case businessflow.IsAccountNotFound(err):
			return errorResponse(c, fiber.StatusNotFound, "Account not found", dto.ErrCodeNotFound, nil)
		}
		log.Println("Change password failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to change password", dto.ErrCodeInternal, nil)
	}

	return successResponse(c, fiber.StatusOK, "Password changed", nil)
}

// SetHideSensitiveData toggles document masking in public listings
func (h *ProfileHandler) SetHideSensitiveData(c fiber.Ctx) error {
	accountID, ok := authAccountID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", dto.ErrCodeUnauthorized, nil)
	}

	var req dto.HideSensitiveDataRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.profileFlow.SetHideSensitiveData(ctx, accountID, req.Hide); err != nil {
		if businessflow.IsAccountNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Account not found", dto.ErrCodeNotFound, nil)
		}
		log.Println("Set hide sensitive data failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to update preference", dto.ErrCodeInternal, nil)
	}

	return successResponse(c, fiber.StatusOK, "Preference updated", nil)
}

// UploadPhoto replaces the profile photo with a resized square thumbnail
func (h *ProfileHandler) UploadPhoto(c fiber.Ctx) error {
	accountID, ok := authAccountID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Authentication required", dto.ErrCodeUnauthorized, nil)
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Photo file is required", "INVALID_REQUEST", nil)
	}
	if fileHeader.Size > maxPhotoSize {
		return errorResponse(c, fiber.StatusRequestEntityTooLarge, "Photo exceeds the 5 MB limit", dto.ErrCodeValidation, nil)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Photo could not be read", "INVALID_REQUEST", nil)
	}
	defer func() { _ = file.Close() }()

	photo, err := io.ReadAll(io.LimitReader(file, maxPhotoSize+1))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Photo could not be read", "INVALID_REQUEST", nil)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	profile, err := h.profileFlow.UpdatePhoto(ctx, accountID, photo, clientMetadata(c))
	if err != nil {
		switch {
		case businessflow.IsInvalidProfilePhoto(err):
			return errorResponse(c, fiber.StatusBadRequest, "Photo must be a valid JPEG or PNG image", dto.ErrCodeValidation, nil)
		case businessflow.IsAccountNotFound(err):
			return errorResponse(c, fiber.StatusNotFound, "Account not found", dto.ErrCodeNotFound, nil)
		}
		log.Println("Upload photo failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to update photo", dto.ErrCodeInternal, nil)
	}

	return successResponse(c, fiber.StatusOK, "Photo updated", profile)
}
