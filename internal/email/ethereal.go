package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/DukeRupert/mailgate/internal/domain"
)

// =============================================================================
// Ethereal Test Transport
// =============================================================================

const (
	etherealHost = "smtp.ethereal.email"
	etherealPort = 587

	// Captured messages are viewable at this base followed by the id the
	// server assigns in its DATA acknowledgement.
	etherealPreviewBase = "https://ethereal.email/message/"

	// Display name for test messages; Ethereal only accepts the account
	// address itself as the envelope sender.
	etherealFromName = "Mailgate Test"
)

// msgidPattern matches the id Ethereal embeds in its acceptance line,
// e.g. "250 Accepted [STATUS=new MSGID=Zl9GQ8mn.abc123]".
var msgidPattern = regexp.MustCompile(`MSGID=([^\s\]]+)`)

// EtherealSender submits mail to an Ethereal disposable test account.
// Nothing is delivered to real recipients; the service captures the message
// and serves it at a preview URL instead.
//
// The go-mail dialer used by SMTPSender discards the server's DATA
// acknowledgement, which is where Ethereal reports the captured message's
// id. This transport drives the SMTP conversation through net/smtp's
// exported textproto connection so that line stays available.
type EtherealSender struct {
	user   string
	pass   string
	logger *slog.Logger
}

func newEtherealSender(cfg Config, logger *slog.Logger) (*EtherealSender, error) {
	if cfg.EtherealUser == "" || cfg.EtherealPass == "" {
		return nil, domain.Errorf(domain.ECONFIG, "email.ethereal",
			"ETHEREAL_USER and ETHEREAL_PASS are required when MAIL_MODE is %q", ModeEthereal)
	}
	return &EtherealSender{
		user:   cfg.EtherealUser,
		pass:   cfg.EtherealPass,
		logger: logger,
	}, nil
}

// Send submits the message to Ethereal and computes the preview URL from
// the id the server assigns on acceptance.
func (s *EtherealSender) Send(ctx context.Context, msg *domain.Message) (*Result, error) {
	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), etherealHost)
	raw := buildMessage(fmt.Sprintf("%s <%s>", etherealFromName, s.user), messageID, msg)

	banner, err := s.submit(ctx, msg.To, raw)
	if err != nil {
		s.logger.Error("ethereal send failed",
			"to", msg.To,
			"subject", msg.Subject,
			"error", err,
		)
		return nil, domain.Unavailable(err, "email.ethereal", "ethereal delivery failed")
	}

	result := &Result{MessageID: messageID}
	if m := msgidPattern.FindStringSubmatch(banner); m != nil {
		result.MessageID = m[1]
		result.PreviewURL = etherealPreviewBase + m[1]
	}

	s.logger.Info("email sent",
		"transport", ModeEthereal,
		"to", msg.To,
		"message_id", result.MessageID,
		"preview_url", result.PreviewURL,
	)

	return result, nil
}

// submit runs one SMTP conversation and returns the text of the server's
// DATA acknowledgement.
func (s *EtherealSender) submit(ctx context.Context, to string, raw []byte) (string, error) {
	addr := net.JoinHostPort(etherealHost, fmt.Sprintf("%d", etherealPort))

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", fmt.Errorf("dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, etherealHost)
	if err != nil {
		conn.Close()
		return "", fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	// Port 587 is plaintext until upgraded; Ethereal advertises STARTTLS.
	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: etherealHost}); err != nil {
			return "", fmt.Errorf("starttls: %w", err)
		}
	}

	auth := smtp.PlainAuth("", s.user, s.pass, etherealHost)
	if err := c.Auth(auth); err != nil {
		return "", fmt.Errorf("auth: %w", err)
	}

	if err := c.Mail(s.user); err != nil {
		return "", fmt.Errorf("mail from: %w", err)
	}
	if err := c.Rcpt(to); err != nil {
		return "", fmt.Errorf("rcpt to: %w", err)
	}

	// DATA by hand: net/smtp's Data() discards the acknowledgement line
	// that carries the MSGID.
	id, err := c.Text.Cmd("DATA")
	if err != nil {
		return "", fmt.Errorf("data: %w", err)
	}
	c.Text.StartResponse(id)
	_, _, err = c.Text.ReadResponse(354)
	c.Text.EndResponse(id)
	if err != nil {
		return "", fmt.Errorf("data: %w", err)
	}

	w := c.Text.DotWriter()
	if _, err := w.Write(raw); err != nil {
		w.Close()
		return "", fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("write message: %w", err)
	}

	_, banner, err := c.Text.ReadResponse(250)
	if err != nil {
		return "", fmt.Errorf("message rejected: %w", err)
	}

	_ = c.Quit()
	return banner, nil
}

// buildMessage constructs the raw RFC 5322 message with headers. Both
// bodies present yields multipart/alternative; a single body gets a plain
// single-part message.
func buildMessage(from, messageID string, msg *domain.Message) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("From: %s\r\n", from))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", msg.To))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	buf.WriteString(fmt.Sprintf("Message-ID: %s\r\n", messageID))
	buf.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z)))
	buf.WriteString("MIME-Version: 1.0\r\n")

	writePart := func(contentType, body string) {
		buf.WriteString(fmt.Sprintf("Content-Type: %s; charset=utf-8\r\n", contentType))
		buf.WriteString("\r\n")
		buf.WriteString(body)
		buf.WriteString("\r\n")
	}

	switch {
	case msg.Text != "" && msg.HTML != "":
		boundary := "===============MAILGATE_BOUNDARY==============="
		buf.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=%q\r\n", boundary))
		buf.WriteString("\r\n")

		buf.WriteString(fmt.Sprintf("--%s\r\n", boundary))
		writePart("text/plain", msg.Text)

		buf.WriteString(fmt.Sprintf("--%s\r\n", boundary))
		writePart("text/html", msg.HTML)

		buf.WriteString(fmt.Sprintf("--%s--\r\n", boundary))
	case msg.HTML != "":
		writePart("text/html", msg.HTML)
	default:
		writePart("text/plain", msg.Text)
	}

	return buf.Bytes()
}

var _ Sender = (*EtherealSender)(nil)
