package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DukeRupert/mailgate/internal/domain"
	"github.com/DukeRupert/mailgate/internal/email"
)

// =============================================================================
// Mock Sender Implementation
// =============================================================================

// mockSender implements the email.Sender interface for testing.
type mockSender struct {
	SendFunc func(ctx context.Context, msg *domain.Message) (*email.Result, error)
	calls    int
}

func (m *mockSender) Send(ctx context.Context, msg *domain.Message) (*email.Result, error) {
	m.calls++
	if m.SendFunc != nil {
		return m.SendFunc(ctx, msg)
	}
	return nil, errors.New("SendFunc not implemented")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestHandler wires a SendHandler to the given mock instead of a real
// transport.
func newTestHandler(mode string, mock *mockSender) *SendHandler {
	h := NewSendHandler(email.Config{Mode: mode}, testLogger())
	h.newSender = func(email.Config, *slog.Logger) (email.Sender, error) {
		return mock, nil
	}
	return h
}

func postSend(t *testing.T, h http.Handler, body string) (*httptest.ResponseRecorder, SendResponse) {
	t.Helper()

	req := httptest.NewRequest("POST", "/send", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	var resp SendResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not valid JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return rec, resp
}

// =============================================================================
// Validation
// =============================================================================

func TestSendHandler_RejectsIncompleteRequests(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantMention string
	}{
		{
			name:        "empty object",
			body:        `{}`,
			wantMention: "required fields",
		},
		{
			name:        "missing to",
			body:        `{"subject":"Hi","text":"hello"}`,
			wantMention: "to",
		},
		{
			name:        "missing subject",
			body:        `{"to":"a@b.com","text":"hello"}`,
			wantMention: "subject",
		},
		{
			name:        "missing both bodies",
			body:        `{"to":"a@b.com","subject":"Hi"}`,
			wantMention: "text or html",
		},
		{
			name:        "malformed json",
			body:        `{"to":`,
			wantMention: "JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockSender{}
			h := newTestHandler(email.ModeAPI, mock)

			rec, resp := postSend(t, h, tt.body)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
			if resp.OK {
				t.Error("expected ok=false")
			}
			if !strings.Contains(resp.Error, tt.wantMention) {
				t.Errorf("error should mention %q, got: %s", tt.wantMention, resp.Error)
			}
			if mock.calls != 0 {
				t.Errorf("no transport call may happen on validation failure, got %d", mock.calls)
			}
		})
	}
}

// =============================================================================
// Success Paths
// =============================================================================

func TestSendHandler_Success(t *testing.T) {
	mock := &mockSender{
		SendFunc: func(ctx context.Context, msg *domain.Message) (*email.Result, error) {
			if msg.To != "a@b.com" || msg.Subject != "Hi" || msg.Text != "hello" {
				t.Errorf("sender received wrong message: %+v", msg)
			}
			return &email.Result{MessageID: "msg-123"}, nil
		},
	}
	h := newTestHandler(email.ModeAPI, mock)

	rec, resp := postSend(t, h, `{"to":"a@b.com","subject":"Hi","text":"hello"}`)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !resp.OK {
		t.Error("expected ok=true")
	}
	if resp.MessageID != "msg-123" {
		t.Errorf("expected messageId msg-123, got %q", resp.MessageID)
	}
	if resp.PreviewURL != "" {
		t.Errorf("api transport must not produce a preview URL, got %q", resp.PreviewURL)
	}
	if mock.calls != 1 {
		t.Errorf("expected exactly one send, got %d", mock.calls)
	}
}

func TestSendHandler_EtherealIncludesPreviewURL(t *testing.T) {
	mock := &mockSender{
		SendFunc: func(ctx context.Context, msg *domain.Message) (*email.Result, error) {
			return &email.Result{
				MessageID:  "abc.def",
				PreviewURL: "https://ethereal.email/message/abc.def",
			}, nil
		},
	}
	h := newTestHandler(email.ModeEthereal, mock)

	rec, resp := postSend(t, h, `{"to":"a@b.com","subject":"Hi","text":"hello"}`)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if resp.PreviewURL == "" {
		t.Error("ethereal success must include a preview URL")
	}
}

// =============================================================================
// Configuration Failures (real selector, no stub)
// =============================================================================

func TestSendHandler_MissingAPIKey(t *testing.T) {
	h := NewSendHandler(email.Config{Mode: email.ModeAPI}, testLogger())

	rec, resp := postSend(t, h, `{"to":"a@b.com","subject":"Hi","text":"hello"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if resp.OK {
		t.Error("expected ok=false")
	}
	if !strings.Contains(resp.Error, "RESEND_API_KEY") {
		t.Errorf("error should name the missing credential, got: %s", resp.Error)
	}
}

func TestSendHandler_IncompleteSMTPConfig(t *testing.T) {
	h := NewSendHandler(email.Config{
		Mode:     email.ModeSMTP,
		SMTPUser: "mailer@example.com",
		SMTPPass: "secret",
		// SMTP_HOST intentionally absent
	}, testLogger())

	rec, resp := postSend(t, h, `{"to":"a@b.com","subject":"Hi","text":"hello"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(resp.Error, "SMTP") {
		t.Errorf("error should identify SMTP configuration, got: %s", resp.Error)
	}
}

// =============================================================================
// Transport Failures
// =============================================================================

func TestSendHandler_TransportFailure(t *testing.T) {
	mock := &mockSender{
		SendFunc: func(ctx context.Context, msg *domain.Message) (*email.Result, error) {
			return nil, domain.Unavailable(errors.New("connection refused"), "email.smtp", "smtp delivery failed")
		},
	}
	h := newTestHandler(email.ModeSMTP, mock)

	rec, resp := postSend(t, h, `{"to":"a@b.com","subject":"Hi","text":"hello"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if resp.OK {
		t.Error("expected ok=false")
	}
	if resp.Error != "smtp delivery failed" {
		t.Errorf("expected the transport's message, got: %s", resp.Error)
	}
	// The raw cause stays server-side
	if strings.Contains(resp.Error, "connection refused") {
		t.Errorf("underlying detail must not reach the client, got: %s", resp.Error)
	}
}

func TestSendHandler_UnstructuredFailureStaysGeneric(t *testing.T) {
	mock := &mockSender{
		SendFunc: func(ctx context.Context, msg *domain.Message) (*email.Result, error) {
			return nil, errors.New("dial tcp 10.1.2.3:587: i/o timeout")
		},
	}
	h := newTestHandler(email.ModeSMTP, mock)

	rec, resp := postSend(t, h, `{"to":"a@b.com","subject":"Hi","text":"hello"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if resp.Error != "error sending mail" {
		t.Errorf("unstructured errors should render generically, got: %s", resp.Error)
	}
}

func TestSendHandler_SendHasDeadline(t *testing.T) {
	mock := &mockSender{
		SendFunc: func(ctx context.Context, msg *domain.Message) (*email.Result, error) {
			if _, ok := ctx.Deadline(); !ok {
				t.Error("send context should carry a deadline")
			}
			return &email.Result{MessageID: "msg-1"}, nil
		},
	}
	h := newTestHandler(email.ModeAPI, mock)

	postSend(t, h, `{"to":"a@b.com","subject":"Hi","text":"hello"}`)
}
