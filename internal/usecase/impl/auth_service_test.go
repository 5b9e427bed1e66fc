package impl

import (
	"context"
	"testing"
	"time"

	"accounts/internal/domain/entity"
	domainerrors "accounts/internal/domain/errors"
	"accounts/internal/domain/repository"
	mockRepo "accounts/internal/mocks/repository"
	mockSvc "accounts/internal/mocks/service"
	"accounts/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// authServiceFixtures holds all test dependencies for auth service tests.
type authServiceFixtures struct {
	service     usecase.AuthUsecase
	txManager   *mockRepo.MockTransactionManager
	accountRepo *mockRepo.MockAccountRepository
	hasher      *mockSvc.MockPasswordHasher
	tokens      *mockSvc.MockTokenService
	resetTokens *mockSvc.MockResetTokenGenerator
	mailer      *mockSvc.MockMailer
}

func createTestAuthService(t *testing.T) authServiceFixtures {
	txManager := mockRepo.NewMockTransactionManager(t)
	accountRepo := mockRepo.NewMockAccountRepository(t)
	hasher := mockSvc.NewMockPasswordHasher(t)
	tokens := mockSvc.NewMockTokenService(t)
	resetTokens := mockSvc.NewMockResetTokenGenerator(t)
	mailer := mockSvc.NewMockMailer(t)

	service := NewAuthService(AuthServiceParams{
		TxManager:   txManager,
		AccountRepo: accountRepo,
		Hasher:      hasher,
		Tokens:      tokens,
		ResetTokens: resetTokens,
		Mailer:      mailer,
		Config:      newTestConfig(),
		Logger:      newDiscardLogger(),
	})

	return authServiceFixtures{
		service:     service,
		txManager:   txManager,
		accountRepo: accountRepo,
		hasher:      hasher,
		tokens:      tokens,
		resetTokens: resetTokens,
		mailer:      mailer,
	}
}

// expectTransaction makes the transaction manager run the callback against
// a factory producing the given repository mock.
func expectTransaction(t *testing.T, txManager *mockRepo.MockTransactionManager, ctx context.Context, txRepo *mockRepo.MockAccountRepository) {
	factory := mockRepo.NewMockRepositoryFactory(t)
	factory.EXPECT().AccountRepo().Return(txRepo)

	txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			return fn(factory)
		})
}

func TestAuthService_Register_Success(t *testing.T) {
	fx := createTestAuthService(t)

	ctx := context.Background()
	input := &usecase.RegisterInput{
		Username: "holder",
		Email:    "Holder@Example.com",
		Password: "Password123!",
	}

	txRepo := mockRepo.NewMockAccountRepository(t)
	expectTransaction(t, fx.txManager, ctx, txRepo)

	txRepo.EXPECT().
		FindByUsernameOrEmail(ctx, "holder", "holder@example.com").
		Return(nil, nil)
	fx.hasher.EXPECT().Hash(input.Password).Return("hashed_password", nil)
	txRepo.EXPECT().
		Create(ctx, mock.AnythingOfType("*entity.Account")).
		Run(func(ctx context.Context, account *entity.Account) {
			account.ID = uuid.New()
		}).
		Return(nil)

	output, err := fx.service.Register(ctx, input)
	require.NoError(t, err)
	require.NotNil(t, output.Account)
	assert.Equal(t, "holder", output.Account.Username)
	assert.Equal(t, "holder@example.com", output.Account.Email)
	assert.Equal(t, "hashed_password", output.Account.PasswordHash)
	assert.NotEqual(t, uuid.Nil, output.Account.ID)
}

func TestAuthService_Register_UsernameTaken(t *testing.T) {
	fx := createTestAuthService(t)

	ctx := context.Background()
	input := &usecase.RegisterInput{
		Username: "holder",
		Email:    "new@example.com",
		Password: "Password123!",
	}

	txRepo := mockRepo.NewMockAccountRepository(t)
	expectTransaction(t, fx.txManager, ctx, txRepo)

	txRepo.EXPECT().
		FindByUsernameOrEmail(ctx, "holder", "new@example.com").
		Return([]*entity.Account{{ID: uuid.New(), Username: "holder", Email: "other@example.com"}}, nil)

	_, err := fx.service.Register(ctx, input)
	assert.True(t, errors.Is(err, domainerrors.ErrUsernameTaken))
}

func TestAuthService_Register_EmailTaken(t *testing.T) {
	fx := createTestAuthService(t)

	ctx := context.Background()
	input := &usecase.RegisterInput{
		Username: "newname",
		Email:    "holder@example.com",
		Password: "Password123!",
	}

	txRepo := mockRepo.NewMockAccountRepository(t)
	expectTransaction(t, fx.txManager, ctx, txRepo)

	txRepo.EXPECT().
		FindByUsernameOrEmail(ctx, "newname", "holder@example.com").
		Return([]*entity.Account{{ID: uuid.New(), Username: "holder", Email: "holder@example.com"}}, nil)

	_, err := fx.service.Register(ctx, input)
	assert.True(t, errors.Is(err, domainerrors.ErrEmailTaken))
}

func TestAuthService_Register_UsernameTakesPrecedence(t *testing.T) {
	fx := createTestAuthService(t)

	ctx := context.Background()
	input := &usecase.RegisterInput{
		Username: "holder",
		Email:    "holder@example.com",
		Password: "Password123!",
	}

	txRepo := mockRepo.NewMockAccountRepository(t)
	expectTransaction(t, fx.txManager, ctx, txRepo)

	// One existing account collides on both fields; the username conflict wins.
	txRepo.EXPECT().
		FindByUsernameOrEmail(ctx, "holder", "holder@example.com").
		Return([]*entity.Account{{ID: uuid.New(), Username: "holder", Email: "holder@example.com"}}, nil)

	_, err := fx.service.Register(ctx, input)
	assert.True(t, errors.Is(err, domainerrors.ErrUsernameTaken))
}

func TestAuthService_Register_MissingFields(t *testing.T) {
	fx := createTestAuthService(t)

	ctx := context.Background()
	_, err := fx.service.Register(ctx, &usecase.RegisterInput{Username: "holder"})
	assert.True(t, errors.Is(err, domainerrors.ErrValidationFailed))
}

func TestAuthService_Register_StorageFailure(t *testing.T) {
	fx := createTestAuthService(t)

	ctx := context.Background()
	input := &usecase.RegisterInput{
		Username: "holder",
		Email:    "holder@example.com",
		Password: "Password123!",
	}

	txRepo := mockRepo.NewMockAccountRepository(t)
	expectTransaction(t, fx.txManager, ctx, txRepo)

	txRepo.EXPECT().
		FindByUsernameOrEmail(ctx, "holder", "holder@example.com").
		Return(nil, nil)
	fx.hasher.EXPECT().Hash(input.Password).Return("hashed_password", nil)
	txRepo.EXPECT().
		Create(ctx, mock.AnythingOfType("*entity.Account")).
		Return(errors.Wrap(errors.New("connection reset by peer"), "failed to create account"))

	_, err := fx.service.Register(ctx, input)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrServiceUnavailable))
	assert.NotContains(t, err.Error(), "connection reset")
}

func TestAuthService_Login_Success(t *testing.T) {
	fx := createTestAuthService(t)

	ctx := context.Background()
	accountID := uuid.New()
	account := &entity.Account{
		ID:           accountID,
		Username:     "holder",
		Email:        "holder@example.com",
		PasswordHash: "hashed_password",
	}

	fx.accountRepo.EXPECT().
		FindByEmail(ctx, "holder@example.com").
		Return(account, nil)
	fx.hasher.EXPECT().Check("Password123!", "hashed_password").Return(true)
	fx.tokens.EXPECT().Issue(accountID, "holder@example.com").Return("signed.session.token", nil)

	output, err := fx.service.Login(ctx, &usecase.LoginInput{
		Email:    "Holder@Example.com",
		Password: "Password123!",
	})
	require.NoError(t, err)
	assert.Equal(t, "signed.session.token", output.Token)
	assert.Equal(t, accountID, output.Account.ID)
}

func TestAuthService_Login_FailuresAreIndistinguishable(t *testing.T) {
	fx := createTestAuthService(t)

	ctx := context.Background()

	// Unknown email
	fx.accountRepo.EXPECT().
		FindByEmail(ctx, "unknown@example.com").
		Return(nil, repository.ErrAccountNotFound)

	_, unknownErr := fx.service.Login(ctx, &usecase.LoginInput{
		Email:    "unknown@example.com",
		Password: "Password123!",
	})
	require.Error(t, unknownErr)
	assert.True(t, errors.Is(unknownErr, domainerrors.ErrInvalidCredentials))

	// Known email, wrong password
	fx.accountRepo.EXPECT().
		FindByEmail(ctx, "holder@example.com").
		Return(&entity.Account{ID: uuid.New(), Email: "holder@example.com", PasswordHash: "hashed_password"}, nil)
	fx.hasher.EXPECT().Check("WrongPassword!", "hashed_password").Return(false)

	_, mismatchErr := fx.service.Login(ctx, &usecase.LoginInput{
		Email:    "holder@example.com",
		Password: "WrongPassword!",
	})
	require.Error(t, mismatchErr)
	assert.True(t, errors.Is(mismatchErr, domainerrors.ErrInvalidCredentials))

	// Both failures present the exact same message to the caller
	assert.Equal(t, unknownErr.Error(), mismatchErr.Error())
}

func TestAuthService_RequestPasswordReset_Success(t *testing.T) {
	fx := createTestAuthService(t)

	ctx := context.Background()
	accountID := uuid.New()
	account := &entity.Account{ID: accountID, Email: "holder@example.com"}

	fx.accountRepo.EXPECT().
		FindByEmail(ctx, "holder@example.com").
		Return(account, nil)
	fx.resetTokens.EXPECT().NewToken().Return("generated_token_value", nil)

	txRepo := mockRepo.NewMockAccountRepository(t)
	expectTransaction(t, fx.txManager, ctx, txRepo)
	txRepo.EXPECT().
		SetResetToken(ctx, accountID, "generated_token_value", mock.AnythingOfType("time.Time")).
		Run(func(ctx context.Context, id uuid.UUID, value string, expires time.Time) {
			// Expiry lands fifteen minutes out
			assert.WithinDuration(t, time.Now().Add(15*time.Minute), expires, 5*time.Second)
		}).
		Return(nil)

	fx.mailer.EXPECT().
		SendPasswordReset(ctx, "holder@example.com", "http://localhost:3000/reset-password.html?token=generated_token_value").
		Return(nil)

	output, err := fx.service.RequestPasswordReset(ctx, &usecase.RequestPasswordResetInput{
		Email: "holder@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, resetAckMessage, output.Message)
}

func TestAuthService_RequestPasswordReset_UnknownEmailSameAck(t *testing.T) {
	fx := createTestAuthService(t)

	ctx := context.Background()
	fx.accountRepo.EXPECT().
		FindByEmail(ctx, "unknown@example.com").
		Return(nil, repository.ErrAccountNotFound)

	output, err := fx.service.RequestPasswordReset(ctx, &usecase.RequestPasswordResetInput{
		Email: "unknown@example.com",
	})
	require.NoError(t, err)

	// Identical acknowledgement, no token issued, no email sent
	assert.Equal(t, resetAckMessage, output.Message)
	fx.mailer.AssertNotCalled(t, "SendPasswordReset", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_RequestPasswordReset_MailerFailure(t *testing.T) {
	fx := createTestAuthService(t)

	ctx := context.Background()
	accountID := uuid.New()

	fx.accountRepo.EXPECT().
		FindByEmail(ctx, "holder@example.com").
		Return(&entity.Account{ID: accountID, Email: "holder@example.com"}, nil)
	fx.resetTokens.EXPECT().NewToken().Return("generated_token_value", nil)

	txRepo := mockRepo.NewMockAccountRepository(t)
	expectTransaction(t, fx.txManager, ctx, txRepo)
	txRepo.EXPECT().
		SetResetToken(ctx, accountID, "generated_token_value", mock.AnythingOfType("time.Time")).
		Return(nil)

	fx.mailer.EXPECT().
		SendPasswordReset(ctx, "holder@example.com", mock.AnythingOfType("string")).
		Return(errors.New("smtp connection refused"))

	_, err := fx.service.RequestPasswordReset(ctx, &usecase.RequestPasswordResetInput{
		Email: "holder@example.com",
	})
	assert.True(t, errors.Is(err, domainerrors.ErrServiceUnavailable))
}

func TestAuthService_ResetPassword_Success(t *testing.T) {
	fx := createTestAuthService(t)

	ctx := context.Background()
	accountID := uuid.New()

	txRepo := mockRepo.NewMockAccountRepository(t)
	expectTransaction(t, fx.txManager, ctx, txRepo)

	txRepo.EXPECT().
		FindByValidResetToken(ctx, "valid_token", mock.AnythingOfType("time.Time")).
		Return(&entity.Account{ID: accountID, Email: "holder@example.com"}, nil)
	fx.hasher.EXPECT().Hash("NewPassword123!").Return("new_hashed_password", nil)
	txRepo.EXPECT().UpdatePasswordHash(ctx, accountID, "new_hashed_password").Return(nil)
	txRepo.EXPECT().ClearResetToken(ctx, accountID).Return(nil)

	err := fx.service.ResetPassword(ctx, &usecase.ResetPasswordInput{
		Token:       "valid_token",
		NewPassword: "NewPassword123!",
	})
	assert.NoError(t, err)
}

func TestAuthService_ResetPassword_InvalidOrExpiredToken(t *testing.T) {
	fx := createTestAuthService(t)

	ctx := context.Background()

	txRepo := mockRepo.NewMockAccountRepository(t)
	expectTransaction(t, fx.txManager, ctx, txRepo)

	// Unknown and expired tokens are the same from the repository's view:
	// neither matches a row with an unexpired token.
	txRepo.EXPECT().
		FindByValidResetToken(ctx, "spent_or_expired", mock.AnythingOfType("time.Time")).
		Return(nil, repository.ErrResetTokenNotFound)

	err := fx.service.ResetPassword(ctx, &usecase.ResetPasswordInput{
		Token:       "spent_or_expired",
		NewPassword: "NewPassword123!",
	})
	assert.True(t, errors.Is(err, domainerrors.ErrResetTokenInvalid))
}

func TestAuthService_ResetPassword_StorageFailure(t *testing.T) {
	fx := createTestAuthService(t)

	ctx := context.Background()
	accountID := uuid.New()

	txRepo := mockRepo.NewMockAccountRepository(t)
	expectTransaction(t, fx.txManager, ctx, txRepo)

	txRepo.EXPECT().
		FindByValidResetToken(ctx, "valid_token", mock.AnythingOfType("time.Time")).
		Return(&entity.Account{ID: accountID, Email: "holder@example.com"}, nil)
	fx.hasher.EXPECT().Hash("NewPassword123!").Return("new_hashed_password", nil)
	txRepo.EXPECT().
		UpdatePasswordHash(ctx, accountID, "new_hashed_password").
		Return(errors.Wrap(errors.New("connection reset by peer"), "failed to update password hash"))

	err := fx.service.ResetPassword(ctx, &usecase.ResetPasswordInput{
		Token:       "valid_token",
		NewPassword: "NewPassword123!",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrServiceUnavailable))
}

func TestAuthService_ResetPassword_MissingFields(t *testing.T) {
	fx := createTestAuthService(t)

	err := fx.service.ResetPassword(context.Background(), &usecase.ResetPasswordInput{Token: "valid_token"})
	assert.True(t, errors.Is(err, domainerrors.ErrValidationFailed))
}
