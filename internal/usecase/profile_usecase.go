// Package usecase contains the application-specific business rules.
package usecase

import (
	"context"

	"accounts/internal/domain/entity"

	"github.com/google/uuid"
)

// ProfileUsecase defines the interface for profile-related business operations.
type ProfileUsecase interface {
	GetProfile(ctx context.Context, accountID uuid.UUID) (*entity.Account, error)
	UpdateProfile(ctx context.Context, accountID uuid.UUID, input *UpdateProfileInput) (*entity.Account, error)
	ChangePassword(ctx context.Context, accountID uuid.UUID, input *ChangePasswordInput) error
	UpdateAvatar(ctx context.Context, accountID uuid.UUID, input *UpdateAvatarInput) (*entity.Account, error)
}

// --- Input DTOs ---

// UpdateProfileInput defines the data required to update an account's profile.
type UpdateProfileInput struct {
	Username string
	Email    string
}

// ChangePasswordInput defines the data required to change an account's password.
type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
}

// UpdateAvatarInput defines the data required to update an account's avatar.
type UpdateAvatarInput struct {
	AvatarURL string
}
