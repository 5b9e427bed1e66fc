package middleware

import (
	"strings"

	domainerrors "accounts/internal/domain/errors"
	"accounts/internal/domain/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Keys under which the authenticated account's identity is stored on echo.Context.
const (
	ContextKeyAccountID    = "accountID"
	ContextKeyAccountEmail = "accountEmail"
)

// AuthMiddleware provides middleware for JWT session authentication.
type AuthMiddleware struct {
	tokenSvc service.TokenService
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(tokenSvc service.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: tokenSvc}
}

// Authenticate is the core middleware function that validates the session token.
// Failures surface as application errors so the error handler renders them.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return domainerrors.ErrUnauthorized
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader || tokenString == "" {
			return domainerrors.ErrUnauthorized.WithDetails("authorization header must be a Bearer token")
		}

		claims, err := m.tokenSvc.Verify(tokenString)
		if err != nil {
			// Verify already maps expiry and signature failures to the
			// corresponding application errors.
			return err
		}

		// Set account info on the context for handlers to use
		c.Set(ContextKeyAccountID, claims.AccountID)
		c.Set(ContextKeyAccountEmail, claims.Email)

		return next(c)
	}
}

// AccountIDFromContext extracts the authenticated account ID set by Authenticate.
func AccountIDFromContext(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get(ContextKeyAccountID).(uuid.UUID)

	return id, ok
}
