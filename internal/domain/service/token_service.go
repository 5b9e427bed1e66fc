package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims defines the custom claims embedded in session tokens.
type Claims struct {
	AccountID uuid.UUID `json:"accountId"`
	Email     string    `json:"email"`
	jwt.RegisteredClaims
}

// TokenService defines the interface for issuing and verifying session tokens.
// This abstracts the details of token creation from the use cases.
type TokenService interface {
	// Issue creates a new signed session token for the given account.
	Issue(accountID uuid.UUID, email string) (string, error)

	// Verify checks the validity of a token string and returns its claims.
	// An expired token fails with domainerrors.ErrTokenExpired; a token with
	// a bad signature or structure fails with domainerrors.ErrTokenInvalid.
	Verify(tokenString string) (*Claims, error)

	// SessionDuration returns the configured lifetime of session tokens.
	SessionDuration() time.Duration
}
