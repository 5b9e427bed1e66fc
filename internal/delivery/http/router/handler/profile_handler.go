package handler

import (
	"log/slog"
	"net/http"

	"accounts/internal/delivery/http/middleware"
	"accounts/internal/delivery/http/response"
	domainerrors "accounts/internal/domain/errors"
	"accounts/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// ProfileHandler holds dependencies for profile handlers.
type ProfileHandler struct {
	uc     usecase.ProfileUsecase
	logger *slog.Logger
}

// NewProfileHandler is the constructor for ProfileHandler, injected by Fx.
func NewProfileHandler(uc usecase.ProfileUsecase, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		uc:     uc,
		logger: logger,
	}
}

// --- Request payloads ---

type updateProfileRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

type updateAvatarRequest struct {
	AvatarURL string `json:"avatarUrl" validate:"required"`
}

// GetProfile returns the authenticated account's profile.
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	accountID, ok := middleware.AccountIDFromContext(c)
	if !ok {
		return domainerrors.ErrUnauthorized
	}

	account, err := h.uc.GetProfile(c.Request().Context(), accountID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toAccountView(account), "")
}

// UpdateProfile updates the authenticated account's username and email.
func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	accountID, ok := middleware.AccountIDFromContext(c)
	if !ok {
		return domainerrors.ErrUnauthorized
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid profile input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	account, err := h.uc.UpdateProfile(c.Request().Context(), accountID, &usecase.UpdateProfileInput{
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toAccountView(account), "Profile updated successfully")
}

// ChangePassword replaces the authenticated account's password.
func (h *ProfileHandler) ChangePassword(c echo.Context) error {
	accountID, ok := middleware.AccountIDFromContext(c)
	if !ok {
		return domainerrors.ErrUnauthorized
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid password input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	if err := h.uc.ChangePassword(c.Request().Context(), accountID, &usecase.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	}); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Password changed successfully")
}

// UpdateAvatar stores a new avatar reference on the authenticated account.
func (h *ProfileHandler) UpdateAvatar(c echo.Context) error {
	accountID, ok := middleware.AccountIDFromContext(c)
	if !ok {
		return domainerrors.ErrUnauthorized
	}

	var req updateAvatarRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid avatar input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	account, err := h.uc.UpdateAvatar(c.Request().Context(), accountID, &usecase.UpdateAvatarInput{
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toAccountView(account), "Avatar updated successfully")
}
