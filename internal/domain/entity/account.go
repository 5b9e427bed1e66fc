// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Account is the core entity in the system, representing a registered user identity.
// Username and email are each unique across all accounts.
type Account struct {
	ID           uuid.UUID // The unique identifier for the account.
	Username     string    // The unique display name chosen at registration.
	Email        string    // The unique login email, stored lowercase for case-insensitive matching.
	PasswordHash string    // The bcrypt digest of the password. Never a plaintext password, never serialized.
	AvatarURL    string    // Optional reference to the account's avatar image. Empty when unset.

	// Reset token state. Both fields are nil unless a password reset is pending;
	// at most one valid reset token exists per account at any time.
	ResetToken        *string
	ResetTokenExpires *time.Time

	CreatedAt time.Time // Timestamp of when this account was created.
	UpdatedAt time.Time // Timestamp of the last modification to this account.
}
