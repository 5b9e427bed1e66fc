package impl

import (
	"context"
	"testing"

	"accounts/internal/domain/entity"
	domainerrors "accounts/internal/domain/errors"
	"accounts/internal/domain/repository"
	mockRepo "accounts/internal/mocks/repository"
	mockSvc "accounts/internal/mocks/service"
	"accounts/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// profileServiceFixtures holds all test dependencies for profile service tests.
type profileServiceFixtures struct {
	service     usecase.ProfileUsecase
	txManager   *mockRepo.MockTransactionManager
	accountRepo *mockRepo.MockAccountRepository
	hasher      *mockSvc.MockPasswordHasher
}

func createTestProfileService(t *testing.T) profileServiceFixtures {
	txManager := mockRepo.NewMockTransactionManager(t)
	accountRepo := mockRepo.NewMockAccountRepository(t)
	hasher := mockSvc.NewMockPasswordHasher(t)

	service := NewProfileService(ProfileServiceParams{
		TxManager:   txManager,
		AccountRepo: accountRepo,
		Hasher:      hasher,
		Logger:      newDiscardLogger(),
	})

	return profileServiceFixtures{
		service:     service,
		txManager:   txManager,
		accountRepo: accountRepo,
		hasher:      hasher,
	}
}

func TestProfileService_GetProfile_Success(t *testing.T) {
	fx := createTestProfileService(t)

	ctx := context.Background()
	accountID := uuid.New()
	account := &entity.Account{
		ID:       accountID,
		Username: "holder",
		Email:    "holder@example.com",
	}

	fx.accountRepo.EXPECT().FindByID(ctx, accountID).Return(account, nil)

	got, err := fx.service.GetProfile(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, account, got)
}

func TestProfileService_GetProfile_NotFound(t *testing.T) {
	fx := createTestProfileService(t)

	ctx := context.Background()
	accountID := uuid.New()

	fx.accountRepo.EXPECT().FindByID(ctx, accountID).Return(nil, repository.ErrAccountNotFound)

	_, err := fx.service.GetProfile(ctx, accountID)
	assert.True(t, errors.Is(err, domainerrors.ErrNotFound))
}

func TestProfileService_UpdateProfile_Success(t *testing.T) {
	fx := createTestProfileService(t)

	ctx := context.Background()
	accountID := uuid.New()
	updated := &entity.Account{
		ID:       accountID,
		Username: "renamed",
		Email:    "renamed@example.com",
	}

	txRepo := mockRepo.NewMockAccountRepository(t)
	expectTransaction(t, fx.txManager, ctx, txRepo)

	txRepo.EXPECT().UpdateProfile(ctx, accountID, "renamed", "renamed@example.com").Return(nil)
	txRepo.EXPECT().FindByID(ctx, accountID).Return(updated, nil)

	got, err := fx.service.UpdateProfile(ctx, accountID, &usecase.UpdateProfileInput{
		Username: "renamed",
		Email:    "Renamed@Example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, updated, got)
}

func TestProfileService_UpdateProfile_Conflict(t *testing.T) {
	fx := createTestProfileService(t)

	ctx := context.Background()
	accountID := uuid.New()

	txRepo := mockRepo.NewMockAccountRepository(t)
	expectTransaction(t, fx.txManager, ctx, txRepo)

	// A colliding value surfaces as a conflict from the database constraint.
	txRepo.EXPECT().
		UpdateProfile(ctx, accountID, "taken", "taken@example.com").
		Return(domainerrors.ErrEmailTaken)

	_, err := fx.service.UpdateProfile(ctx, accountID, &usecase.UpdateProfileInput{
		Username: "taken",
		Email:    "taken@example.com",
	})
	assert.True(t, errors.Is(err, domainerrors.ErrEmailTaken))
}

func TestProfileService_UpdateProfile_StorageFailure(t *testing.T) {
	fx := createTestProfileService(t)

	ctx := context.Background()
	accountID := uuid.New()

	txRepo := mockRepo.NewMockAccountRepository(t)
	expectTransaction(t, fx.txManager, ctx, txRepo)

	txRepo.EXPECT().
		UpdateProfile(ctx, accountID, "holder", "holder@example.com").
		Return(errors.Wrap(errors.New("connection reset by peer"), "failed to update account profile"))

	_, err := fx.service.UpdateProfile(ctx, accountID, &usecase.UpdateProfileInput{
		Username: "holder",
		Email:    "holder@example.com",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrServiceUnavailable))
	assert.NotContains(t, err.Error(), "connection reset")
}

func TestProfileService_UpdateProfile_MissingFields(t *testing.T) {
	fx := createTestProfileService(t)

	_, err := fx.service.UpdateProfile(context.Background(), uuid.New(), &usecase.UpdateProfileInput{
		Username: "holder",
	})
	assert.True(t, errors.Is(err, domainerrors.ErrValidationFailed))
}

func TestProfileService_ChangePassword_Success(t *testing.T) {
	fx := createTestProfileService(t)

	ctx := context.Background()
	accountID := uuid.New()
	account := &entity.Account{ID: accountID, PasswordHash: "current_hash"}

	fx.accountRepo.EXPECT().FindByID(ctx, accountID).Return(account, nil)
	fx.hasher.EXPECT().Check("CurrentPass123!", "current_hash").Return(true)
	fx.hasher.EXPECT().Hash("NewPass123!").Return("new_hash", nil)
	fx.accountRepo.EXPECT().UpdatePasswordHash(ctx, accountID, "new_hash").Return(nil)

	err := fx.service.ChangePassword(ctx, accountID, &usecase.ChangePasswordInput{
		CurrentPassword: "CurrentPass123!",
		NewPassword:     "NewPass123!",
	})
	assert.NoError(t, err)
}

func TestProfileService_ChangePassword_WrongCurrentPassword(t *testing.T) {
	fx := createTestProfileService(t)

	ctx := context.Background()
	accountID := uuid.New()
	account := &entity.Account{ID: accountID, PasswordHash: "current_hash"}

	fx.accountRepo.EXPECT().FindByID(ctx, accountID).Return(account, nil)
	fx.hasher.EXPECT().Check("WrongPass123!", "current_hash").Return(false)

	err := fx.service.ChangePassword(ctx, accountID, &usecase.ChangePasswordInput{
		CurrentPassword: "WrongPass123!",
		NewPassword:     "NewPass123!",
	})
	assert.True(t, errors.Is(err, domainerrors.ErrForbidden))

	// The stored digest is never rewritten on a failed check
	fx.accountRepo.AssertNotCalled(t, "UpdatePasswordHash", ctx, accountID, "new_hash")
}

func TestProfileService_ChangePassword_HashFailure(t *testing.T) {
	fx := createTestProfileService(t)

	ctx := context.Background()
	accountID := uuid.New()
	account := &entity.Account{ID: accountID, PasswordHash: "current_hash"}

	fx.accountRepo.EXPECT().FindByID(ctx, accountID).Return(account, nil)
	fx.hasher.EXPECT().Check("CurrentPass123!", "current_hash").Return(true)
	fx.hasher.EXPECT().Hash("NewPass123!").Return("", errors.New("hashing unavailable"))

	err := fx.service.ChangePassword(ctx, accountID, &usecase.ChangePasswordInput{
		CurrentPassword: "CurrentPass123!",
		NewPassword:     "NewPass123!",
	})
	assert.True(t, errors.Is(err, domainerrors.ErrServiceUnavailable))

	fx.accountRepo.AssertNotCalled(t, "UpdatePasswordHash")
}

func TestProfileService_UpdateAvatar_Success(t *testing.T) {
	fx := createTestProfileService(t)

	ctx := context.Background()
	accountID := uuid.New()
	account := &entity.Account{ID: accountID, AvatarURL: "https://cdn.example.com/a.png"}

	fx.accountRepo.EXPECT().
		UpdateAvatarURL(ctx, accountID, "https://cdn.example.com/a.png").
		Return(nil)
	fx.accountRepo.EXPECT().FindByID(ctx, accountID).Return(account, nil)

	got, err := fx.service.UpdateAvatar(ctx, accountID, &usecase.UpdateAvatarInput{
		AvatarURL: "https://cdn.example.com/a.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.png", got.AvatarURL)
}

func TestProfileService_UpdateAvatar_NotFound(t *testing.T) {
	fx := createTestProfileService(t)

	ctx := context.Background()
	accountID := uuid.New()

	fx.accountRepo.EXPECT().
		UpdateAvatarURL(ctx, accountID, "https://cdn.example.com/a.png").
		Return(repository.ErrAccountNotFound)

	_, err := fx.service.UpdateAvatar(ctx, accountID, &usecase.UpdateAvatarInput{
		AvatarURL: "https://cdn.example.com/a.png",
	})
	assert.True(t, errors.Is(err, domainerrors.ErrNotFound))
}
