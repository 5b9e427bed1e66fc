// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"
	"time"

	"accounts/internal/domain/entity"

	"github.com/google/uuid"
)

// Domain-specific errors for account persistence.
// This allows the application layer to handle specific outcomes without depending on database-specific errors.
var (
	// ErrAccountNotFound is returned when no account matches the lookup.
	ErrAccountNotFound = errors.New("account not found")
	// ErrResetTokenNotFound is returned when no account holds a matching, unexpired reset token.
	ErrResetTokenNotFound = errors.New("reset token not found")
)

// AccountRepository defines the standard operations for account persistence.
// The application layer depends on this interface, not the concrete implementation.
type AccountRepository interface {
	// FindByID retrieves a single account by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error)

	// FindByEmail retrieves a single account by its email address.
	FindByEmail(ctx context.Context, email string) (*entity.Account, error)

	// FindByUsernameOrEmail retrieves every account whose username or email
	// matches either argument. Used for collision detection at registration.
	FindByUsernameOrEmail(ctx context.Context, username, email string) ([]*entity.Account, error)

	// Create persists a new account. The generated ID and timestamps are
	// written back onto the entity.
	Create(ctx context.Context, account *entity.Account) error

	// UpdateProfile rewrites the username and email of an existing account.
	UpdateProfile(ctx context.Context, id uuid.UUID, username, email string) error

	// UpdatePasswordHash replaces the stored password digest.
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, digest string) error

	// UpdateAvatarURL replaces the stored avatar reference.
	UpdateAvatarURL(ctx context.Context, id uuid.UUID, avatarURL string) error

	// SetResetToken stores a reset token and its expiry on the account,
	// overwriting any previously issued token.
	SetResetToken(ctx context.Context, id uuid.UUID, value string, expires time.Time) error

	// ClearResetToken removes the reset token and expiry from the account.
	ClearResetToken(ctx context.Context, id uuid.UUID) error

	// FindByValidResetToken retrieves the account whose stored reset token
	// equals value and whose expiry is strictly after now.
	FindByValidResetToken(ctx context.Context, value string, now time.Time) (*entity.Account, error)
}
