// Package mailer delivers the report as a plain-text email to the configured
// address over SMTP with implicit TLS.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/Adda-Baaj/market-brief/internal/logger"
)

const (
	DefaultHost    = "smtp.gmail.com"
	DefaultPort    = 465
	defaultTimeout = 30 * time.Second
)

// Config holds the mail submission settings.
type Config struct {
	Host     string
	Port     int
	Address  string
	Password string
	Timeout  time.Duration

	// TLSConfig replaces go-mail's default client TLS settings when set, for
	// example to trust a private CA.
	TLSConfig *tls.Config
}

// deliverFunc opens a session, sends msg and closes the session.
type deliverFunc func(ctx context.Context, cfg Config, msg *mail.Msg) error

// Mailer sends the report to its own configured address.
type Mailer struct {
	cfg     Config
	deliver deliverFunc
	log     logger.Logger
}

// New builds a Mailer, defaulting host, port and timeout.
func New(cfg Config, log logger.Logger) *Mailer {
	cfg.Host = strings.TrimSpace(cfg.Host)
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port <= 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Mailer{cfg: cfg, deliver: dialAndSend, log: logger.Ensure(log)}
}

// Send composes and delivers one message. Failures are logged and swallowed;
// the return value reports whether the message was handed to the server.
func (m *Mailer) Send(ctx context.Context, subject, body string) bool {
	if m.cfg.Address == "" || m.cfg.Password == "" {
		m.log.WarnObj("mail credentials missing, skipping delivery", "mail_skipped", nil)
		return false
	}

	msg, err := m.compose(subject, body)
	if err != nil {
		m.log.ErrorObj("mail compose failed", "mail_error", map[string]any{"error": err.Error()})
		return false
	}

	if err := m.deliver(ctx, m.cfg, msg); err != nil {
		m.log.ErrorObj("mail delivery failed", "mail_error", map[string]any{
			"host":  m.cfg.Host,
			"port":  m.cfg.Port,
			"error": err.Error(),
		})
		return false
	}

	m.log.InfoObj("mail delivered", "mail_sent", map[string]any{
		"to":      m.cfg.Address,
		"subject": subject,
	})
	return true
}

// compose builds a plain-text UTF-8 message from and to the configured address.
func (m *Mailer) compose(subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg(mail.WithCharset(mail.CharsetUTF8))
	if err := msg.From(m.cfg.Address); err != nil {
		return nil, fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(m.cfg.Address); err != nil {
		return nil, fmt.Errorf("set to: %w", err)
	}
	msg.Subject(subject)
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

// dialAndSend delivers over an implicitly encrypted session; go-mail closes
// the connection before returning on every path.
func dialAndSend(ctx context.Context, cfg Config, msg *mail.Msg) error {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Address),
		mail.WithPassword(cfg.Password),
		mail.WithTimeout(cfg.Timeout),
	}
	if cfg.TLSConfig != nil {
		opts = append(opts, mail.WithTLSConfig(cfg.TLSConfig))
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send via %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return nil
}
