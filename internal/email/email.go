// Package email provides the outbound mail transports behind the gateway's
// /send endpoint.
//
// This package defines a Sender interface with implementations for:
// - Resend (transactional-email API, mode "api")
// - SMTP (any standard relay, mode "smtp")
// - Ethereal (disposable test mailbox with message previews, mode "ethereal")
package email

import (
	"context"
	"log/slog"
	"time"

	"github.com/DukeRupert/mailgate/internal/domain"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Sender is one outbound mail-delivery channel. Implementations must be
// safe for concurrent use; the HTTP layer may have any number of sends in
// flight at once.
type Sender interface {
	// Send submits a validated message and returns the delivery result.
	// The context bounds the whole network round trip.
	Send(ctx context.Context, msg *domain.Message) (*Result, error)
}

// Result describes one accepted delivery.
type Result struct {
	// MessageID is the opaque delivery identifier: the provider-assigned id
	// for Resend, the generated Message-ID header for SMTP, and the
	// server-assigned id for Ethereal.
	MessageID string

	// PreviewURL links to the captured message content. Only the Ethereal
	// transport produces one.
	PreviewURL string
}

// =============================================================================
// Configuration Types
// =============================================================================

// Mail delivery modes.
const (
	ModeAPI      = "api"
	ModeSMTP     = "smtp"
	ModeEthereal = "ethereal"
)

// Config holds the settings for every transport. Mode decides which subset
// is actually used; NewSender validates only the subset for the active mode.
type Config struct {
	Mode string

	// Resend API (mode "api")
	ResendAPIKey string

	// SMTP relay (mode "smtp")
	SMTPHost   string
	SMTPPort   int
	SMTPSecure bool
	SMTPUser   string
	SMTPPass   string

	// Sender address for api/smtp modes. Falls back to SMTPUser for SMTP
	// and to the Resend sandbox sender for the API.
	From string

	// Ethereal test account (mode "ethereal")
	EtherealUser string
	EtherealPass string

	// Upper bound on a single send attempt.
	Timeout time.Duration
}

const (
	// DefaultAPIFrom is the Resend sandbox sender, usable without a
	// verified domain. Real deployments set MAIL_FROM.
	DefaultAPIFrom = "Mailgate <onboarding@resend.dev>"

	// DefaultFromName is the display name used when only a bare address
	// is configured.
	DefaultFromName = "Mailgate"
)

// =============================================================================
// Transport Selection
// =============================================================================

// NewSender constructs the transport for the configured mode. Returns a
// domain.Error with code ECONFIG when a mandatory setting for that mode is
// missing; no network activity happens until Send is called.
//
// Construction is cheap, so the HTTP layer builds a fresh Sender per
// request rather than caching one across requests.
func NewSender(cfg Config, logger *slog.Logger) (Sender, error) {
	switch cfg.Mode {
	case ModeAPI:
		return newResendSender(cfg, logger)
	case ModeSMTP:
		return newSMTPSender(cfg, logger)
	case ModeEthereal:
		return newEtherealSender(cfg, logger)
	default:
		return nil, domain.Errorf(domain.ECONFIG, "email.select",
			"unknown MAIL_MODE %q (expected api, smtp, or ethereal)", cfg.Mode)
	}
}
