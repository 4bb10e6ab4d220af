package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"strings"

	mail "github.com/go-mail/mail"
	"github.com/google/uuid"

	"github.com/DukeRupert/mailgate/internal/domain"
)

// =============================================================================
// SMTP Transport
// =============================================================================

// SMTPSender submits mail to a standard SMTP relay.
//
// SMTP_SECURE selects implicit TLS (the 465-style connection); otherwise the
// dialer negotiates STARTTLS opportunistically, which covers the common
// 587 submission setup.
type SMTPSender struct {
	dialer *mail.Dialer
	host   string
	from   string
	logger *slog.Logger
}

func newSMTPSender(cfg Config, logger *slog.Logger) (*SMTPSender, error) {
	var missing []string
	if cfg.SMTPHost == "" {
		missing = append(missing, "SMTP_HOST")
	}
	if cfg.SMTPUser == "" {
		missing = append(missing, "SMTP_USER")
	}
	if cfg.SMTPPass == "" {
		missing = append(missing, "SMTP_PASS")
	}
	if len(missing) > 0 {
		return nil, domain.Errorf(domain.ECONFIG, "email.smtp",
			"incomplete SMTP configuration: %s required when MAIL_MODE is %q",
			strings.Join(missing, ", "), ModeSMTP)
	}

	from := cfg.From
	if from == "" {
		from = cfg.SMTPUser
	}

	d := mail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	d.Timeout = cfg.Timeout
	d.TLSConfig = &tls.Config{ServerName: cfg.SMTPHost}
	if cfg.SMTPSecure {
		d.SSL = true
	} else {
		d.StartTLSPolicy = mail.OpportunisticStartTLS
	}

	return &SMTPSender{
		dialer: d,
		host:   cfg.SMTPHost,
		from:   from,
		logger: logger,
	}, nil
}

// Send submits the message and returns the generated Message-ID header as
// the delivery identifier. SMTP itself hands back no identifier, so the
// gateway mints one and stamps it on the message before submission.
func (s *SMTPSender) Send(ctx context.Context, msg *domain.Message) (*Result, error) {
	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), s.host)

	m := mail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", messageID)

	// Prefer multipart/alternative when both bodies are present
	if msg.Text != "" {
		m.SetBody("text/plain", msg.Text)
		if msg.HTML != "" {
			m.AddAlternative("text/html", msg.HTML)
		}
	} else {
		m.SetBody("text/html", msg.HTML)
	}

	// DialAndSend blocks with no context support; run it in a goroutine so
	// the caller's deadline still bounds the request. The dialer's own
	// Timeout limits how long an abandoned attempt lingers.
	errc := make(chan error, 1)
	go func() { errc <- s.dialer.DialAndSend(m) }()

	select {
	case err := <-errc:
		if err != nil {
			s.logger.Error("smtp send failed",
				"host", s.host,
				"to", msg.To,
				"subject", msg.Subject,
				"error", err,
			)
			return nil, domain.Unavailable(err, "email.smtp", "smtp delivery failed")
		}
	case <-ctx.Done():
		s.logger.Error("smtp send timed out",
			"host", s.host,
			"to", msg.To,
			"error", ctx.Err(),
		)
		return nil, domain.Unavailable(ctx.Err(), "email.smtp", "smtp delivery timed out")
	}

	s.logger.Info("email sent",
		"transport", ModeSMTP,
		"to", msg.To,
		"message_id", messageID,
	)

	return &Result{MessageID: messageID}, nil
}

var _ Sender = (*SMTPSender)(nil)
