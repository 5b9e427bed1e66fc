// Package mail implements the outbound notification collaborator over SMTP.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"time"

	"github.com/pkg/errors"

	"accounts/config"
	"accounts/internal/domain/service"
)

const defaultSMTPTimeout = 10 * time.Second

// smtpMailer sends notification emails through a configured SMTP relay.
type smtpMailer struct {
	cfg    *config.MailConfig
	auth   smtp.Auth
	logger *slog.Logger
}

// NewSMTPMailer is the constructor for smtpMailer.
func NewSMTPMailer(cfg *config.Config, logger *slog.Logger) (service.Mailer, error) {
	if cfg.Mail == nil {
		return nil, errors.New("mail configuration must be provided")
	}

	return &smtpMailer{
		cfg:    cfg.Mail,
		auth:   smtp.PlainAuth("", cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.SMTPServer),
		logger: logger,
	}, nil
}

// SendPasswordReset delivers the reset link to the recipient. The link
// expires on the server side; the body states the lifetime for the reader.
func (m *smtpMailer) SendPasswordReset(_ context.Context, recipient, resetURL string) error {
	body := fmt.Sprintf(
		"You requested a password reset.\r\n\r\n"+
			"Open the following link to choose a new password:\r\n\r\n"+
			"%s\r\n\r\n"+
			"The link expires in 15 minutes. If you did not request this, ignore this email.\r\n",
		resetURL,
	)

	return m.send(recipient, "Reset your password", body)
}

func (m *smtpMailer) send(recipient, subject, body string) error {
	msg := m.buildMessage(recipient, subject, body)
	address := fmt.Sprintf("%s:%d", m.cfg.SMTPServer, m.cfg.SMTPPort)

	// Port 465 = implicit TLS, otherwise STARTTLS.
	if m.cfg.SMTPPort == 465 {
		return m.sendImplicitTLS(address, recipient, msg)
	}

	return m.sendSTARTTLS(address, recipient, msg)
}

func (m *smtpMailer) timeout() time.Duration {
	timeout := time.Duration(m.cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = defaultSMTPTimeout
	}

	return timeout
}

// sendImplicitTLS sends email over a connection that is TLS from the start (port 465).
func (m *smtpMailer) sendImplicitTLS(address, recipient string, msg []byte) error {
	tlsConfig := &tls.Config{ServerName: m.cfg.SMTPServer}

	conn, err := tls.DialWithDialer(&net.Dialer{Timeout: m.timeout()}, "tcp", address, tlsConfig)
	if err != nil {
		m.logger.Error("Failed to connect to SMTP server (implicit TLS)", slog.String("address", address), slog.Any("error", err))

		return errors.Wrap(err, "failed to connect to SMTP server")
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, m.cfg.SMTPServer)
	if err != nil {
		return errors.Wrap(err, "failed to create SMTP client")
	}
	defer client.Close()

	return m.sendViaClient(client, recipient, msg)
}

// sendSTARTTLS sends email by upgrading a plain connection to TLS (port 587).
func (m *smtpMailer) sendSTARTTLS(address, recipient string, msg []byte) error {
	conn, err := net.DialTimeout("tcp", address, m.timeout())
	if err != nil {
		m.logger.Error("Failed to connect to SMTP server", slog.String("address", address), slog.Any("error", err))

		return errors.Wrap(err, "failed to connect to SMTP server")
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, m.cfg.SMTPServer)
	if err != nil {
		return errors.Wrap(err, "failed to create SMTP client")
	}
	defer client.Close()

	tlsConfig := &tls.Config{ServerName: m.cfg.SMTPServer}
	if err := client.StartTLS(tlsConfig); err != nil {
		return errors.Wrap(err, "failed to start TLS")
	}

	return m.sendViaClient(client, recipient, msg)
}

// sendViaClient performs auth, sets sender/recipient, and sends the message body.
func (m *smtpMailer) sendViaClient(client *smtp.Client, recipient string, msg []byte) error {
	if err := client.Auth(m.auth); err != nil {
		return errors.Wrap(err, "SMTP authentication failed")
	}

	if err := client.Mail(m.cfg.Username); err != nil {
		return errors.Wrap(err, "failed to set sender")
	}

	if err := client.Rcpt(recipient); err != nil {
		return errors.Wrapf(err, "failed to set recipient %s", recipient)
	}

	w, err := client.Data()
	if err != nil {
		return errors.Wrap(err, "failed to get data writer")
	}

	if _, err := w.Write(msg); err != nil {
		return errors.Wrap(err, "failed to write message")
	}

	if err := w.Close(); err != nil {
		return errors.Wrap(err, "failed to close data writer")
	}

	return errors.Wrap(client.Quit(), "failed to quit SMTP session")
}

func (m *smtpMailer) buildMessage(recipient, subject, body string) []byte {
	encodedSubject := mime.QEncoding.Encode("utf-8", subject)
	encodedSenderName := mime.QEncoding.Encode("utf-8", m.cfg.SenderName)
	date := time.Now().Format(time.RFC1123Z)

	return fmt.Appendf(nil,
		"Date: %s\r\n"+
			"To: %s\r\n"+
			"From: %s <%s>\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/plain; charset=\"utf-8\"\r\n"+
			"\r\n"+
			"%s",
		date, recipient, encodedSenderName, m.cfg.Username, encodedSubject, body,
	)
}
