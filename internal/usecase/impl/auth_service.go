// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"accounts/config"
	deliverycontext "accounts/internal/delivery/context"
	"accounts/internal/domain/entity"
	domainerrors "accounts/internal/domain/errors"
	"accounts/internal/domain/repository"
	"accounts/internal/domain/service"
	"accounts/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// resetTokenTTL is the lifetime of a password-reset token.
const resetTokenTTL = 15 * time.Minute

// resetAckMessage is returned for every password-reset request, whether or
// not the email belongs to an account.
const resetAckMessage = "If the email exists, a password reset link has been sent"

// authService implements the AuthUsecase interface.
type authService struct {
	txManager   repository.TransactionManager
	accountRepo repository.AccountRepository
	hasher      service.PasswordHasher
	tokens      service.TokenService
	resetTokens service.ResetTokenGenerator
	mailer      service.Mailer
	frontendURL string
	logger      *slog.Logger
}

// AuthServiceParams holds dependencies for AuthService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	TxManager   repository.TransactionManager
	AccountRepo repository.AccountRepository
	Hasher      service.PasswordHasher
	Tokens      service.TokenService
	ResetTokens service.ResetTokenGenerator
	Mailer      service.Mailer
	Config      *config.Config
	Logger      *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	frontendURL := ""
	if params.Config != nil && params.Config.Mail != nil {
		frontendURL = strings.TrimRight(params.Config.Mail.FrontendURL, "/")
	}

	return &authService{
		txManager:   params.TxManager,
		accountRepo: params.AccountRepo,
		hasher:      params.Hasher,
		tokens:      params.Tokens,
		resetTokens: params.ResetTokens,
		mailer:      params.Mailer,
		frontendURL: frontendURL,
		logger:      params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register creates a new account after checking for username and email collisions.
// The username check takes precedence when both values collide.
func (srv *authService) Register(ctx context.Context, input *usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	username := strings.TrimSpace(input.Username)
	email := normalizeEmail(input.Email)
	if username == "" || email == "" || input.Password == "" {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "username, email and password are required")
	}

	srv.log(ctx).Info("Starting registration", slog.String("email", email))

	var created *entity.Account
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		accountRepo := repoFactory.AccountRepo()

		existing, err := accountRepo.FindByUsernameOrEmail(ctx, username, email)
		if err != nil {
			return errors.Wrap(err, "failed to check for existing accounts")
		}
		for _, account := range existing {
			if account.Username == username {
				return domainerrors.ErrUsernameTaken
			}
		}
		if len(existing) > 0 {
			return domainerrors.ErrEmailTaken
		}

		digest, err := srv.hasher.Hash(input.Password)
		if err != nil {
			return errors.Wrap(err, "failed to hash password during registration")
		}

		newAccount := &entity.Account{
			Username:     username,
			Email:        email,
			PasswordHash: digest,
		}
		if err := accountRepo.Create(ctx, newAccount); err != nil {
			return errors.Wrap(err, "failed to create account")
		}
		created = newAccount

		return nil
	})
	if err != nil {
		if isAppError(err) {
			return nil, err
		}
		srv.log(ctx).Error("Failed to execute registration transaction", slog.String("email", email), slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrServiceUnavailable, "registration temporarily unavailable")
	}

	srv.log(ctx).Debug("Registration completed", slog.Any("accountID", created.ID))

	return &usecase.RegisterOutput{Account: created}, nil
}

// Login verifies the caller's credentials and issues a session token.
// An unknown email and a wrong password produce the identical error.
func (srv *authService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.LoginOutput, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "email and password are required")
	}

	account, err := srv.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, domainerrors.ErrInvalidCredentials
		}
		srv.log(ctx).Error("Failed to look up account for login", slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrServiceUnavailable, "login temporarily unavailable")
	}

	if !srv.hasher.Check(input.Password, account.PasswordHash) {
		return nil, domainerrors.ErrInvalidCredentials
	}

	token, err := srv.tokens.Issue(account.ID, account.Email)
	if err != nil {
		srv.log(ctx).Error("Failed to issue session token", slog.Any("accountID", account.ID), slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrServiceUnavailable, "login temporarily unavailable")
	}

	srv.log(ctx).Info("Login succeeded", slog.Any("accountID", account.ID))

	return &usecase.LoginOutput{Token: token, Account: account}, nil
}

// RequestPasswordReset issues a reset token and mails the reset link.
// The acknowledgement is identical whether or not the email belongs to an
// account, so the endpoint cannot be used to enumerate registered emails.
func (srv *authService) RequestPasswordReset(ctx context.Context, input *usecase.RequestPasswordResetInput) (*usecase.RequestPasswordResetOutput, error) {
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "email is required")
	}

	ack := &usecase.RequestPasswordResetOutput{Message: resetAckMessage}

	account, err := srv.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			srv.log(ctx).Debug("Password reset requested for unknown email")

			return ack, nil
		}
		srv.log(ctx).Error("Failed to look up account for password reset", slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrServiceUnavailable, "password reset temporarily unavailable")
	}

	tokenValue, err := srv.resetTokens.NewToken()
	if err != nil {
		srv.log(ctx).Error("Failed to generate reset token", slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrServiceUnavailable, "password reset temporarily unavailable")
	}

	expires := time.Now().Add(resetTokenTTL)
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		return repoFactory.AccountRepo().SetResetToken(ctx, account.ID, tokenValue, expires)
	})
	if err != nil {
		srv.log(ctx).Error("Failed to store reset token", slog.Any("accountID", account.ID), slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrServiceUnavailable, "password reset temporarily unavailable")
	}

	resetURL := fmt.Sprintf("%s/reset-password.html?token=%s", srv.frontendURL, tokenValue)
	if err := srv.mailer.SendPasswordReset(ctx, account.Email, resetURL); err != nil {
		srv.log(ctx).Error("Failed to send password reset email", slog.Any("accountID", account.ID), slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrServiceUnavailable, "failed to send reset email")
	}

	srv.log(ctx).Info("Password reset email sent", slog.Any("accountID", account.ID))

	return ack, nil
}

// ResetPassword consumes a reset token and replaces the account's password.
// The token lookup, password update and token clearing run in one transaction,
// so a token can never be spent without the password actually changing.
func (srv *authService) ResetPassword(ctx context.Context, input *usecase.ResetPasswordInput) error {
	if input.Token == "" || input.NewPassword == "" {
		return errors.Wrap(domainerrors.ErrValidationFailed, "token and new password are required")
	}

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		accountRepo := repoFactory.AccountRepo()

		account, err := accountRepo.FindByValidResetToken(ctx, input.Token, time.Now())
		if err != nil {
			if errors.Is(err, repository.ErrResetTokenNotFound) {
				return domainerrors.ErrResetTokenInvalid
			}

			return errors.Wrap(err, "failed to look up reset token")
		}

		digest, err := srv.hasher.Hash(input.NewPassword)
		if err != nil {
			return errors.Wrap(err, "failed to hash new password")
		}

		if err := accountRepo.UpdatePasswordHash(ctx, account.ID, digest); err != nil {
			return errors.Wrap(err, "failed to update password hash")
		}
		if err := accountRepo.ClearResetToken(ctx, account.ID); err != nil {
			return errors.Wrap(err, "failed to clear reset token")
		}

		srv.log(ctx).Info("Password reset completed", slog.Any("accountID", account.ID))

		return nil
	})
	if err != nil {
		if isAppError(err) {
			return err
		}
		srv.log(ctx).Error("Failed to execute password reset transaction", slog.Any("error", err))

		return errors.Wrap(domainerrors.ErrServiceUnavailable, "password reset temporarily unavailable")
	}

	return nil
}

// normalizeEmail lowercases and trims an email address. Emails are stored
// and compared in lowercase.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// isAppError reports whether the error chain contains a caller-facing
// application error.
func isAppError(err error) bool {
	var appErr domainerrors.AppError

	return errors.As(err, &appErr)
}
