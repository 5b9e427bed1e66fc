package postgres

import (
	"context"
	"testing"
	"time"

	"accounts/internal/domain/entity"
	domainerrors "accounts/internal/domain/errors"
	"accounts/internal/domain/repository"
	"accounts/internal/infra/persistence/model"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestRepository opens an in-memory SQLite database for exercising the
// repository's query semantics. The production schema relies on PostgreSQL
// defaults, so the table is created directly with explicit ids.
func newTestRepository(t *testing.T) (*gorm.DB, repository.AccountRepository) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every pooled connection would otherwise see its own empty in-memory database.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Exec(`CREATE TABLE accounts (
		id text PRIMARY KEY,
		username text NOT NULL UNIQUE,
		email text NOT NULL UNIQUE,
		password_hash text NOT NULL,
		avatar_url text,
		reset_token text,
		reset_token_expires datetime,
		created_at datetime,
		updated_at datetime
	)`).Error)

	return db, NewAccountRepository(db)
}

func seedAccount(t *testing.T, db *gorm.DB, username, email string, token *string, expires *time.Time) uuid.UUID {
	t.Helper()

	id := uuid.New()
	require.NoError(t, db.Create(&model.AccountModel{
		ID:                id,
		Username:          username,
		Email:             email,
		PasswordHash:      "digest",
		ResetToken:        token,
		ResetTokenExpires: expires,
	}).Error)

	return id
}

func TestAccountRepository_FindByValidResetToken_ReturnsMatchingAccount(t *testing.T) {
	db, repo := newTestRepository(t)
	ctx := context.Background()

	now := time.Now().UTC()
	token := "tok-valid"
	expires := now.Add(10 * time.Minute)
	id := seedAccount(t, db, "holder", "holder@example.com", &token, &expires)

	account, err := repo.FindByValidResetToken(ctx, token, now)
	require.NoError(t, err)
	assert.Equal(t, id, account.ID)
	assert.Equal(t, "holder@example.com", account.Email)
}

func TestAccountRepository_FindByValidResetToken_RejectsExpiredToken(t *testing.T) {
	db, repo := newTestRepository(t)
	ctx := context.Background()

	now := time.Now().UTC()
	token := "tok-expired"
	expires := now.Add(-time.Minute)
	seedAccount(t, db, "holder", "holder@example.com", &token, &expires)

	_, err := repo.FindByValidResetToken(ctx, token, now)
	assert.ErrorIs(t, err, repository.ErrResetTokenNotFound)
}

func TestAccountRepository_FindByValidResetToken_ExpiryIsStrict(t *testing.T) {
	db, repo := newTestRepository(t)
	ctx := context.Background()

	// A token whose expiry equals the lookup instant is already spent.
	cutoff := time.Now().UTC().Truncate(time.Second)
	token := "tok-boundary"
	seedAccount(t, db, "holder", "holder@example.com", &token, &cutoff)

	_, err := repo.FindByValidResetToken(ctx, token, cutoff)
	assert.ErrorIs(t, err, repository.ErrResetTokenNotFound)
}

func TestAccountRepository_SetAndClearResetToken(t *testing.T) {
	db, repo := newTestRepository(t)
	ctx := context.Background()

	now := time.Now().UTC()
	id := seedAccount(t, db, "holder", "holder@example.com", nil, nil)

	require.NoError(t, repo.SetResetToken(ctx, id, "tok-fresh", now.Add(15*time.Minute)))

	account, err := repo.FindByValidResetToken(ctx, "tok-fresh", now)
	require.NoError(t, err)
	assert.Equal(t, id, account.ID)

	require.NoError(t, repo.ClearResetToken(ctx, id))

	_, err = repo.FindByValidResetToken(ctx, "tok-fresh", now)
	assert.ErrorIs(t, err, repository.ErrResetTokenNotFound)
}

func TestAccountRepository_Create_MapsUniqueViolations(t *testing.T) {
	db, repo := newTestRepository(t)
	ctx := context.Background()

	seedAccount(t, db, "holder", "holder@example.com", nil, nil)

	err := repo.Create(ctx, &entity.Account{
		ID:           uuid.New(),
		Username:     "holder",
		Email:        "other@example.com",
		PasswordHash: "digest",
	})
	assert.ErrorIs(t, err, domainerrors.ErrUsernameTaken)

	err = repo.Create(ctx, &entity.Account{
		ID:           uuid.New(),
		Username:     "other",
		Email:        "holder@example.com",
		PasswordHash: "digest",
	})
	assert.ErrorIs(t, err, domainerrors.ErrEmailTaken)
}
