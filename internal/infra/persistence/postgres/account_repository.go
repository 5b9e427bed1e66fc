// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"time"

	"accounts/internal/domain/entity"
	domainerrors "accounts/internal/domain/errors"
	"accounts/internal/domain/repository"
	"accounts/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// accountRepository implements the repository.AccountRepository interface using GORM.
type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository is the constructor for accountRepository.
// It returns the repository as a repository.AccountRepository interface, adhering to dependency inversion.
func NewAccountRepository(db *gorm.DB) repository.AccountRepository {
	return &accountRepository{db: db}
}

// FindByID retrieves a single account by its unique ID.
func (repo *accountRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	var accountM model.AccountModel

	if err := repo.db.WithContext(ctx).Where("id = ?", id).First(&accountM).Error; err != nil {
		// If the error is 'record not found', return a domain-specific error.
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrAccountNotFound
		}

		return nil, errors.Wrap(err, "failed to find account by id")
	}

	return toAccountDomain(&accountM), nil
}

// FindByEmail retrieves a single account by its email address. The caller is
// expected to lowercase the email; the column stores lowercase values.
func (repo *accountRepository) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	var accountM model.AccountModel

	if err := repo.db.WithContext(ctx).Where("email = ?", email).First(&accountM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrAccountNotFound
		}

		return nil, errors.Wrap(err, "failed to find account by email")
	}

	return toAccountDomain(&accountM), nil
}

// FindByUsernameOrEmail retrieves every account matching either value.
func (repo *accountRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) ([]*entity.Account, error) {
	var accountMs []model.AccountModel

	if err := repo.db.WithContext(ctx).
		Where("username = ? OR email = ?", username, email).
		Find(&accountMs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find accounts by username or email")
	}

	accounts := make([]*entity.Account, 0, len(accountMs))
	for i := range accountMs {
		accounts = append(accounts, toAccountDomain(&accountMs[i]))
	}

	return accounts, nil
}

// Create persists a new account entity to the database.
func (repo *accountRepository) Create(ctx context.Context, account *entity.Account) error {
	accountM := fromAccountDomain(account)

	if err := repo.db.WithContext(ctx).Create(accountM).Error; err != nil {
		// Convert PostgreSQL errors to domain errors
		if isUniqueConstraintViolation(err) {
			if uniqueViolationOnColumn(err, "username") {
				return domainerrors.ErrUsernameTaken
			}

			return domainerrors.ErrEmailTaken
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WrapMessage("missing required account information")
		}
		// Anything else is an infrastructure failure; the service layer maps
		// it to a caller-facing unavailability error.
		return errors.Wrap(err, "failed to create account")
	}

	// Update the account entity with the generated ID and timestamps
	account.ID = accountM.ID
	account.CreatedAt = accountM.CreatedAt
	account.UpdatedAt = accountM.UpdatedAt

	return nil
}

// UpdateProfile rewrites the username and email of an existing account.
// There is deliberately no uniqueness pre-check here; a colliding value
// surfaces through the unique constraint.
func (repo *accountRepository) UpdateProfile(ctx context.Context, id uuid.UUID, username, email string) error {
	result := repo.db.WithContext(ctx).
		Model(&model.AccountModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"username": username, "email": email})
	if err := result.Error; err != nil {
		if isUniqueConstraintViolation(err) {
			if uniqueViolationOnColumn(err, "username") {
				return domainerrors.ErrUsernameTaken
			}

			return domainerrors.ErrEmailTaken
		}

		return errors.Wrap(err, "failed to update account profile")
	}
	if result.RowsAffected == 0 {
		return repository.ErrAccountNotFound
	}

	return nil
}

// UpdatePasswordHash replaces the stored password digest.
func (repo *accountRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, digest string) error {
	result := repo.db.WithContext(ctx).
		Model(&model.AccountModel{}).
		Where("id = ?", id).
		Update("password_hash", digest)
	if err := result.Error; err != nil {
		return errors.Wrap(err, "failed to update password hash")
	}
	if result.RowsAffected == 0 {
		return repository.ErrAccountNotFound
	}

	return nil
}

// UpdateAvatarURL replaces the stored avatar reference.
func (repo *accountRepository) UpdateAvatarURL(ctx context.Context, id uuid.UUID, avatarURL string) error {
	result := repo.db.WithContext(ctx).
		Model(&model.AccountModel{}).
		Where("id = ?", id).
		Update("avatar_url", avatarURL)
	if err := result.Error; err != nil {
		return errors.Wrap(err, "failed to update avatar url")
	}
	if result.RowsAffected == 0 {
		return repository.ErrAccountNotFound
	}

	return nil
}

// SetResetToken stores a reset token and its expiry, overwriting any prior token.
func (repo *accountRepository) SetResetToken(ctx context.Context, id uuid.UUID, value string, expires time.Time) error {
	result := repo.db.WithContext(ctx).
		Model(&model.AccountModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"reset_token": value, "reset_token_expires": expires})
	if err := result.Error; err != nil {
		return errors.Wrap(err, "failed to set reset token")
	}
	if result.RowsAffected == 0 {
		return repository.ErrAccountNotFound
	}

	return nil
}

// ClearResetToken removes the reset token and expiry from the account.
func (repo *accountRepository) ClearResetToken(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Model(&model.AccountModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"reset_token": nil, "reset_token_expires": nil})
	if err := result.Error; err != nil {
		return errors.Wrap(err, "failed to clear reset token")
	}
	if result.RowsAffected == 0 {
		return repository.ErrAccountNotFound
	}

	return nil
}

// FindByValidResetToken retrieves the account whose stored reset token equals
// value and whose expiry is strictly after now.
func (repo *accountRepository) FindByValidResetToken(ctx context.Context, value string, now time.Time) (*entity.Account, error) {
	var accountM model.AccountModel

	if err := repo.db.WithContext(ctx).
		Where("reset_token = ? AND reset_token_expires > ?", value, now).
		First(&accountM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrResetTokenNotFound
		}

		return nil, errors.Wrap(err, "failed to find account by reset token")
	}

	return toAccountDomain(&accountM), nil
}

// --- Mapper Functions ---
// These helpers convert between domain entities and persistence models.

// toAccountDomain converts a GORM AccountModel to a domain Account entity.
func toAccountDomain(data *model.AccountModel) *entity.Account {
	if data == nil {
		return nil
	}

	return &entity.Account{
		ID:                data.ID,
		Username:          data.Username,
		Email:             data.Email,
		PasswordHash:      data.PasswordHash,
		AvatarURL:         data.AvatarURL,
		ResetToken:        data.ResetToken,
		ResetTokenExpires: data.ResetTokenExpires,
		CreatedAt:         data.CreatedAt,
		UpdatedAt:         data.UpdatedAt,
	}
}

// fromAccountDomain converts a domain Account entity to a GORM AccountModel for persistence.
func fromAccountDomain(data *entity.Account) *model.AccountModel {
	if data == nil {
		return nil
	}

	return &model.AccountModel{
		ID:                data.ID,
		Username:          data.Username,
		Email:             data.Email,
		PasswordHash:      data.PasswordHash,
		AvatarURL:         data.AvatarURL,
		ResetToken:        data.ResetToken,
		ResetTokenExpires: data.ResetTokenExpires,
	}
}
