package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		msg     Message
		wantErr string
	}{
		{
			name: "valid with text body",
			msg:  Message{To: "a@b.com", Subject: "Hi", Text: "hello"},
		},
		{
			name: "valid with html body",
			msg:  Message{To: "a@b.com", Subject: "Hi", HTML: "<p>hello</p>"},
		},
		{
			name: "valid with both bodies",
			msg:  Message{To: "a@b.com", Subject: "Hi", Text: "hello", HTML: "<p>hello</p>"},
		},
		{
			name:    "empty message",
			msg:     Message{},
			wantErr: "missing required fields: to, subject",
		},
		{
			name:    "missing to",
			msg:     Message{Subject: "Hi", Text: "hello"},
			wantErr: "missing required fields: to",
		},
		{
			name:    "missing subject",
			msg:     Message{To: "a@b.com", Text: "hello"},
			wantErr: "missing required fields: subject",
		},
		{
			name:    "whitespace-only to",
			msg:     Message{To: "   ", Subject: "Hi", Text: "hello"},
			wantErr: "missing required fields: to",
		},
		{
			name:    "missing both bodies",
			msg:     Message{To: "a@b.com", Subject: "Hi"},
			wantErr: "either text or html is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, EINVALID, ErrorCode(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestErrorHelpers(t *testing.T) {
	t.Run("config error names the setting, not its value", func(t *testing.T) {
		err := MissingConfig("email.select", "RESEND_API_KEY", "api")
		assert.Equal(t, ECONFIG, ErrorCode(err))
		assert.Contains(t, err.Error(), "RESEND_API_KEY")
	})

	t.Run("unstructured errors are not leaked to clients", func(t *testing.T) {
		err := Errorf(EINTERNAL, "email.send", "dial tcp 10.0.0.5:587: connection refused")
		assert.Equal(t, "error sending mail", ErrorMessage(err))
	})

	t.Run("unavailable keeps its message and wraps the cause", func(t *testing.T) {
		cause := Errorf(EINTERNAL, "", "boom")
		err := Unavailable(cause, "email.send", "smtp delivery failed")
		assert.Equal(t, EUNAVAILABLE, ErrorCode(err))
		assert.Equal(t, "smtp delivery failed", ErrorMessage(err))
	})
}
