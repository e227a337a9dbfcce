package notification

import (
	"fmt"
	"net/smtp"
	"strings"

	"ms-reservations/internal/config"
	"ms-reservations/internal/logger"
)

// Notifier is the delivery channel abstraction so the worker does not
// care whether a message goes out over email, SMS or a chat hook.
type Notifier interface {
	Notify(recipient, subject, message string) error
}

// ConsoleNotifier logs messages instead of sending them. Used in local
// development and as the fallback when SMTP is not configured.
type ConsoleNotifier struct {
	log *logger.Logger
}

func NewConsole(log *logger.Logger) *ConsoleNotifier {
	if log == nil {
		log = logger.NewNop()
	}
	return &ConsoleNotifier{log: log}
}

func (c *ConsoleNotifier) Notify(recipient, subject, message string) error {
	c.log.Info("NOTIFY", fmt.Sprintf("to=%s subject=%q :: %s", recipient, subject, message))
	return nil
}

// ForConfig picks the delivery channel: SMTP when credentials are
// configured, console otherwise, so a dev-mode process never attempts a
// relay it does not have.
func ForConfig(cfg config.EmailConfig, log *logger.Logger) Notifier {
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.SMTPUsername != "" {
		log.Info("NOTIFY", "Using SMTP notifier via "+cfg.SMTPHost)
		return NewSMTP(cfg)
	}
	log.Info("NOTIFY", "SMTP not configured, using console notifier")
	return NewConsole(log)
}

// SMTPNotifier sends plain-text email through a standard SMTP relay.
type SMTPNotifier struct {
	cfg config.EmailConfig
}

func NewSMTP(cfg config.EmailConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg}
}

func (s *SMTPNotifier) Notify(recipient, subject, message string) error {
	addr := s.cfg.SMTPHost + ":" + s.cfg.SMTPPort

	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.cfg.FromAddress)
	fmt.Fprintf(&b, "To: %s\r\n", recipient)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(message)

	if err := smtp.SendMail(addr, auth, s.cfg.FromAddress, []string{recipient}, []byte(b.String())); err != nil {
		return fmt.Errorf("smtp send to %s failed: %w", recipient, err)
	}
	return nil
}
