package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/DukeRupert/mailgate/internal/domain"
	"github.com/DukeRupert/mailgate/internal/email"
	"github.com/DukeRupert/mailgate/internal/metrics"
)

// maxBodyBytes bounds the request body; the gateway carries no attachments.
const maxBodyBytes = 1 << 20

// SendResponse is the uniform body of every /send reply. The delivery
// identifier is always "messageId" no matter which transport handled the
// request.
type SendResponse struct {
	OK         bool   `json:"ok"`
	MessageID  string `json:"messageId,omitempty"`
	PreviewURL string `json:"previewUrl,omitempty"`
	Error      string `json:"error,omitempty"`
}

// SendHandler accepts send-email requests and forwards them to the
// configured transport. A fresh transport is constructed per request;
// construction is cheap and keeps configuration failures scoped to the
// request that hit them.
type SendHandler struct {
	cfg    email.Config
	logger *slog.Logger

	// newSender is email.NewSender; tests swap it for a stub.
	newSender func(email.Config, *slog.Logger) (email.Sender, error)
}

// NewSendHandler creates the /send handler.
func NewSendHandler(cfg email.Config, logger *slog.Logger) *SendHandler {
	return &SendHandler{
		cfg:       cfg,
		logger:    logger,
		newSender: email.NewSender,
	}
}

func (h *SendHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var msg domain.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("send.decode", "request body must be a JSON object"))
		return
	}

	if err := msg.Validate(); err != nil {
		metrics.MailValidationFailures.Inc()
		ErrorResponse(w, r, h.logger, err)
		return
	}

	// Transport construction validates the active mode's settings; no
	// network call has happened yet when this fails.
	sender, err := h.newSender(h.cfg, h.logger)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	timeout := h.cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	start := time.Now()
	result, err := sender.Send(ctx, &msg)
	metrics.MailSendDuration.WithLabelValues(h.cfg.Mode).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.MailSendsTotal.WithLabelValues(h.cfg.Mode, "error").Inc()
		ErrorResponse(w, r, h.logger, err)
		return
	}
	metrics.MailSendsTotal.WithLabelValues(h.cfg.Mode, "success").Inc()

	writeJSON(w, http.StatusOK, SendResponse{
		OK:         true,
		MessageID:  result.MessageID,
		PreviewURL: result.PreviewURL,
	})
}
