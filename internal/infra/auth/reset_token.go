package auth

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/pkg/errors"

	"accounts/internal/domain/service"
)

// resetTokenBytes is the entropy width of a reset token. 32 bytes hex-encode
// to a 64 character opaque value.
const resetTokenBytes = 32

// randTokenGenerator implements ResetTokenGenerator with crypto/rand.
type randTokenGenerator struct{}

// NewResetTokenGenerator is the constructor for randTokenGenerator.
func NewResetTokenGenerator() service.ResetTokenGenerator {
	return &randTokenGenerator{}
}

// NewToken returns a hex-encoded random token value.
func (g *randTokenGenerator) NewToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "failed to read random bytes for reset token")
	}

	return hex.EncodeToString(buf), nil
}
