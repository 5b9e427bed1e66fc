// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"accounts/config"
	domainerrors "accounts/internal/domain/errors"
	"accounts/internal/domain/service"
)

// sessionTTL is the fixed lifetime of a session token.
const sessionTTL = time.Hour

// jwtService is a concrete implementation of the TokenService interface using the JWT standard.
type jwtService struct {
	secret     []byte        // Secret key for signing session tokens. Read-only after construction.
	sessionTTL time.Duration // Time-to-live for session tokens.
}

// NewJWTService is the constructor for jwtService.
// It takes configuration values to create a new token service instance.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	if cfg.SecretKey.Session == "" {
		return nil, errors.New("jwt session secret must be provided")
	}

	return &jwtService{
		secret:     []byte(cfg.SecretKey.Session),
		sessionTTL: sessionTTL,
	}, nil
}

// Issue creates a new signed session token embedding the account id, email,
// issued-at, and a one hour expiry.
func (s *jwtService) Issue(accountID uuid.UUID, email string) (string, error) {
	now := time.Now()
	claims := &service.Claims{
		AccountID: accountID,
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign session token")
	}

	return signed, nil
}

// Verify checks the signature and expiry of a token string.
// Verification is a pure function of the signing secret and the clock; a
// tampered payload or foreign secret yields ErrTokenInvalid, a passed expiry
// yields ErrTokenExpired.
func (s *jwtService) Verify(tokenString string) (*service.Claims, error) {
	claims := &service.Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		// Ensure the signing method is what we expect.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.Wrap(domainerrors.ErrTokenExpired, err.Error())
		}

		return nil, errors.Wrap(domainerrors.ErrTokenInvalid, err.Error())
	}
	if !token.Valid {
		return nil, errors.Wrap(domainerrors.ErrTokenInvalid, "token failed validation")
	}

	return claims, nil
}

// SessionDuration returns the configured lifetime of session tokens.
func (s *jwtService) SessionDuration() time.Duration {
	return s.sessionTTL
}
