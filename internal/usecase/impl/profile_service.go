package impl

import (
	"context"
	"log/slog"
	"strings"

	deliverycontext "accounts/internal/delivery/context"
	"accounts/internal/domain/entity"
	domainerrors "accounts/internal/domain/errors"
	"accounts/internal/domain/repository"
	"accounts/internal/domain/service"
	"accounts/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// profileService implements the ProfileUsecase interface.
type profileService struct {
	txManager   repository.TransactionManager
	accountRepo repository.AccountRepository
	hasher      service.PasswordHasher
	logger      *slog.Logger
}

// ProfileServiceParams holds dependencies for ProfileService, injected by Fx.
type ProfileServiceParams struct {
	fx.In

	TxManager   repository.TransactionManager
	AccountRepo repository.AccountRepository
	Hasher      service.PasswordHasher
	Logger      *slog.Logger
}

// NewProfileService is the constructor for profileService.
func NewProfileService(params ProfileServiceParams) usecase.ProfileUsecase {
	return &profileService{
		txManager:   params.TxManager,
		accountRepo: params.AccountRepo,
		hasher:      params.Hasher,
		logger:      params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *profileService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// GetProfile retrieves the account behind the authenticated session.
func (srv *profileService) GetProfile(ctx context.Context, accountID uuid.UUID) (*entity.Account, error) {
	account, err := srv.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, errors.Wrap(domainerrors.ErrNotFound, "account not found")
		}
		srv.log(ctx).Error("Failed to load profile", slog.Any("accountID", accountID), slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrServiceUnavailable, "profile temporarily unavailable")
	}

	return account, nil
}

// UpdateProfile rewrites the account's username and email. There is no
// uniqueness pre-check; a colliding value surfaces as a conflict from the
// database constraint.
func (srv *profileService) UpdateProfile(ctx context.Context, accountID uuid.UUID, input *usecase.UpdateProfileInput) (*entity.Account, error) {
	username := strings.TrimSpace(input.Username)
	email := normalizeEmail(input.Email)
	if username == "" || email == "" {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "username and email are required")
	}

	srv.log(ctx).Info("Updating profile", slog.Any("accountID", accountID))

	var updated *entity.Account
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		accountRepo := repoFactory.AccountRepo()

		if err := accountRepo.UpdateProfile(ctx, accountID, username, email); err != nil {
			if errors.Is(err, repository.ErrAccountNotFound) {
				return errors.Wrap(domainerrors.ErrNotFound, "account not found")
			}

			return errors.Wrap(err, "failed to update profile")
		}

		account, err := accountRepo.FindByID(ctx, accountID)
		if err != nil {
			return errors.Wrap(err, "failed to reload account after profile update")
		}
		updated = account

		return nil
	})
	if err != nil {
		if isAppError(err) {
			return nil, err
		}
		srv.log(ctx).Error("Failed to execute profile update transaction", slog.Any("accountID", accountID), slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrServiceUnavailable, "profile update temporarily unavailable")
	}

	return updated, nil
}

// ChangePassword replaces the account's password after verifying the current
// one. A wrong current password leaves the stored digest untouched.
func (srv *profileService) ChangePassword(ctx context.Context, accountID uuid.UUID, input *usecase.ChangePasswordInput) error {
	if input.CurrentPassword == "" || input.NewPassword == "" {
		return errors.Wrap(domainerrors.ErrValidationFailed, "current and new password are required")
	}

	account, err := srv.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return errors.Wrap(domainerrors.ErrNotFound, "account not found")
		}
		srv.log(ctx).Error("Failed to load account for password change", slog.Any("accountID", accountID), slog.Any("error", err))

		return errors.Wrap(domainerrors.ErrServiceUnavailable, "password change temporarily unavailable")
	}

	if !srv.hasher.Check(input.CurrentPassword, account.PasswordHash) {
		srv.log(ctx).Warn("Password change rejected, current password mismatch", slog.Any("accountID", accountID))

		return errors.Wrap(domainerrors.ErrForbidden, "current password is incorrect")
	}

	digest, err := srv.hasher.Hash(input.NewPassword)
	if err != nil {
		srv.log(ctx).Error("Failed to hash new password", slog.Any("accountID", accountID), slog.Any("error", err))

		return errors.Wrap(domainerrors.ErrServiceUnavailable, "password change temporarily unavailable")
	}

	if err := srv.accountRepo.UpdatePasswordHash(ctx, accountID, digest); err != nil {
		srv.log(ctx).Error("Failed to update password hash", slog.Any("accountID", accountID), slog.Any("error", err))

		return errors.Wrap(domainerrors.ErrServiceUnavailable, "password change temporarily unavailable")
	}

	srv.log(ctx).Info("Password changed", slog.Any("accountID", accountID))

	return nil
}

// UpdateAvatar stores a new avatar reference on the account.
func (srv *profileService) UpdateAvatar(ctx context.Context, accountID uuid.UUID, input *usecase.UpdateAvatarInput) (*entity.Account, error) {
	avatarURL := strings.TrimSpace(input.AvatarURL)
	if avatarURL == "" {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "avatar url is required")
	}

	if err := srv.accountRepo.UpdateAvatarURL(ctx, accountID, avatarURL); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, errors.Wrap(domainerrors.ErrNotFound, "account not found")
		}
		srv.log(ctx).Error("Failed to update avatar", slog.Any("accountID", accountID), slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrServiceUnavailable, "avatar update temporarily unavailable")
	}

	account, err := srv.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		srv.log(ctx).Error("Failed to reload account after avatar update", slog.Any("accountID", accountID), slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrServiceUnavailable, "avatar update temporarily unavailable")
	}

	return account, nil
}
