package impl

import (
	"io"
	"log/slog"

	"accounts/config"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	cfg := &config.Config{
		Auth: &config.AuthConfig{
			BcryptCost: 10,
		},
		Mail: &config.MailConfig{
			FrontendURL: "http://localhost:3000",
		},
	}

	return cfg
}
