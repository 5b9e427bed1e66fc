// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"accounts/internal/domain/entity"
)

// --- Input DTOs ---

// RegisterInput defines the data required to register a new account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// LoginInput defines the data required for an account holder to log in.
type LoginInput struct {
	Email    string
	Password string
}

// RequestPasswordResetInput defines the data required to start a password reset.
type RequestPasswordResetInput struct {
	Email string
}

// ResetPasswordInput defines the data required to complete a password reset.
type ResetPasswordInput struct {
	Token       string
	NewPassword string
}

// --- Output DTOs ---

// RegisterOutput returns the newly created account's basic information.
type RegisterOutput struct {
	Account *entity.Account
}

// LoginOutput returns the generated session token after a successful login.
type LoginOutput struct {
	Token   string
	Account *entity.Account
}

// RequestPasswordResetOutput carries the acknowledgement returned to the caller.
// The message is identical whether or not the email belongs to an account.
type RequestPasswordResetOutput struct {
	Message string
}

// AuthUsecase defines the interface for credential and session business operations.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type AuthUsecase interface {
	Register(ctx context.Context, input *RegisterInput) (*RegisterOutput, error)
	Login(ctx context.Context, input *LoginInput) (*LoginOutput, error)
	RequestPasswordReset(ctx context.Context, input *RequestPasswordResetInput) (*RequestPasswordResetOutput, error)
	ResetPassword(ctx context.Context, input *ResetPasswordInput) error
}
