// Package mailer sends transactional email (invites, goal notifications,
// weekly reminders) over SMTP. When no SMTP host is configured the mailer is
// disabled: sends are logged and dropped so the rest of the app keeps working.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Email is a fully rendered message ready to send. TextBody is required;
// HTMLBody is optional and sent as a multipart/alternative part when present.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender is what the features depend on. The SMTP Mailer implements it in
// production; tests substitute a recorder.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

// Config holds SMTP connection settings. An empty Host disables sending.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string // e.g. okr@example.com
	FromName string // e.g. OKR Tracker
}

// Mailer sends mail via a single SMTP relay.
type Mailer struct {
	cfg Config
	log *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: logger}
}

// Enabled reports whether the mailer has a relay to talk to.
func (m *Mailer) Enabled() bool { return m.cfg.Host != "" }

// Send delivers one message. Disabled mailers log and return nil so callers
// never have to special-case missing SMTP config.
func (m *Mailer) Send(ctx context.Context, e Email) error {
	if !m.Enabled() {
		m.log.Info("mailer disabled; dropping email",
			zap.String("to", e.To),
			zap.String("subject", e.Subject))
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	msg := m.buildMessage(e)
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{e.To}, msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", e.To, err)
	}
	m.log.Info("email sent",
		zap.String("to", e.To),
		zap.String("subject", e.Subject))
	return nil
}

// buildMessage assembles the raw RFC 5322 message. When HTMLBody is present
// the message is multipart/alternative with the text part first.
func (m *Mailer) buildMessage(e Email) []byte {
	var b strings.Builder

	from := m.cfg.From
	if m.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", m.cfg.FromName, m.cfg.From)
	}
	domain := m.cfg.From
	if i := strings.LastIndex(domain, "@"); i >= 0 {
		domain = domain[i+1:]
	}

	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", e.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", e.Subject)
	fmt.Fprintf(&b, "Message-ID: <%s@%s>\r\n", uuid.NewString(), domain)
	b.WriteString("MIME-Version: 1.0\r\n")

	if e.HTMLBody == "" {
		b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
		b.WriteString("\r\n")
		b.WriteString(e.TextBody)
		return []byte(b.String())
	}

	boundary := "b-" + uuid.NewString()
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(e.TextBody)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(e.HTMLBody)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}
