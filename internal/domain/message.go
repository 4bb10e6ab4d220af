package domain

import "strings"

// Message is a single outbound email as submitted by a client.
// It lives for the duration of one request and is never stored.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text,omitempty"`
	HTML    string `json:"html,omitempty"`
}

// Validate checks that the message carries everything a transport needs:
// a recipient, a subject, and at least one body (text or html).
func (m *Message) Validate() error {
	var missing []string
	if strings.TrimSpace(m.To) == "" {
		missing = append(missing, "to")
	}
	if strings.TrimSpace(m.Subject) == "" {
		missing = append(missing, "subject")
	}
	if len(missing) > 0 {
		return Invalid("message.validate", "missing required fields: "+strings.Join(missing, ", "))
	}
	if m.Text == "" && m.HTML == "" {
		return Invalid("message.validate", "either text or html is required")
	}
	return nil
}
