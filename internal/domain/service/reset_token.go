package service

// ResetTokenGenerator produces the opaque values used for password-reset
// tokens. Generated values carry at least 32 bytes of entropy, so a collision
// with any previously issued token is negligible.
type ResetTokenGenerator interface {
	// NewToken returns a new cryptographically random token value.
	NewToken() (string, error)
}
