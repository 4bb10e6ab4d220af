package email

import (
	"context"
	"log/slog"

	"github.com/resend/resend-go/v3"

	"github.com/DukeRupert/mailgate/internal/domain"
)

// =============================================================================
// Resend API Transport
// =============================================================================

// ResendSender delivers mail through the Resend transactional-email API.
// The API key is the only mandatory setting; the sender address falls back
// to the Resend sandbox sender so the mode works out of the box.
type ResendSender struct {
	client *resend.Client
	from   string
	logger *slog.Logger
}

func newResendSender(cfg Config, logger *slog.Logger) (*ResendSender, error) {
	if cfg.ResendAPIKey == "" {
		return nil, domain.MissingConfig("email.resend", "RESEND_API_KEY", ModeAPI)
	}

	from := cfg.From
	if from == "" {
		from = DefaultAPIFrom
	}

	return &ResendSender{
		client: resend.NewClient(cfg.ResendAPIKey),
		from:   from,
		logger: logger,
	}, nil
}

// Send maps the message onto Resend's envelope and returns the
// provider-assigned id as the delivery identifier.
func (s *ResendSender) Send(ctx context.Context, msg *domain.Message) (*Result, error) {
	req := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Text,
		Html:    msg.HTML,
	}

	sent, err := s.client.Emails.SendWithContext(ctx, req)
	if err != nil {
		s.logger.Error("resend send failed",
			"to", msg.To,
			"subject", msg.Subject,
			"error", err,
		)
		return nil, domain.Unavailable(err, "email.resend", "resend send failed")
	}
	if sent == nil || sent.Id == "" {
		return nil, domain.Errorf(domain.EUNAVAILABLE, "email.resend", "resend returned no message id")
	}

	s.logger.Info("email sent",
		"transport", ModeAPI,
		"to", msg.To,
		"message_id", sent.Id,
	)

	return &Result{MessageID: sent.Id}, nil
}

var _ Sender = (*ResendSender)(nil)
