package mail

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageValidate(t *testing.T) {
	valid := Message{To: "ada@example.com", Subject: "Hi", BodyHTML: "<p>hi</p>"}
	require.NoError(t, valid.Validate())

	testCases := []struct {
		name string
		msg  Message
	}{
		{name: "missing recipient", msg: Message{Subject: "Hi", BodyHTML: "<p>hi</p>"}},
		{name: "bad recipient", msg: Message{To: "not-an-address", Subject: "Hi", BodyHTML: "<p>hi</p>"}},
		{name: "missing subject", msg: Message{To: "ada@example.com", BodyHTML: "<p>hi</p>"}},
		{name: "missing body", msg: Message{To: "ada@example.com", Subject: "Hi"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.msg.Validate(), ErrInvalidMessage)
		})
	}
}

func TestBuildPasswordResetEmail(t *testing.T) {
	msg, err := BuildPasswordResetEmail("https://api.example.com/", "ada@example.com", "tok123")
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", msg.To)
	assert.Equal(t, "password-reset", msg.Tag)
	assert.Contains(t, msg.BodyHTML, "https://api.example.com/reset-redirect?token=tok123")
}

func TestBuildPasswordResetEmailRequiresToken(t *testing.T) {
	_, err := BuildPasswordResetEmail("https://api.example.com", "ada@example.com", "")
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestBuildPasswordResetEmailEscapesToken(t *testing.T) {
	msg, err := BuildPasswordResetEmail("https://api.example.com", "ada@example.com", "a b&c")
	require.NoError(t, err)
	assert.NotContains(t, msg.BodyHTML, "a b&c")
	assert.True(t, strings.Contains(msg.BodyHTML, "token=a+b%26c") || strings.Contains(msg.BodyHTML, "token=a%20b%26c"))
}

func TestLogSenderValidatesAndLogs(t *testing.T) {
	var buf bytes.Buffer
	sender := NewLogSender(slog.New(slog.NewJSONHandler(&buf, nil)))

	err := sender.Send(context.Background(), Message{To: "ada@example.com", Subject: "Hi", BodyHTML: "<p>hi</p>"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "ada@example.com")

	err = sender.Send(context.Background(), Message{})
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestNewPostmarkSenderRequiresConfig(t *testing.T) {
	_, err := NewPostmarkSender("", "no-reply@example.com")
	assert.Error(t, err)

	_, err = NewPostmarkSender("token", "")
	assert.Error(t, err)

	sender, err := NewPostmarkSender("token", "no-reply@example.com")
	require.NoError(t, err)
	assert.NotNil(t, sender)
}
