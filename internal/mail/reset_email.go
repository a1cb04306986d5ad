package mail

import (
	"fmt"
	"html/template"
	"net/url"
	"strings"
)

const passwordResetTag = "password-reset"

var resetTemplate = template.Must(template.New("password-reset").Parse(`<html>
<body>
  <p>Hello,</p>
  <p>We received a request to reset the password for your account. Tap the
  button below on your phone to choose a new password. The link expires in
  15 minutes.</p>
  <p><a href="{{.Link}}">Reset your password</a></p>
  <p>If you did not request this, you can safely ignore this email.</p>
</body>
</html>`))

// BuildPasswordResetEmail renders the reset email for a recipient. The link
// points at the server's reset-redirect endpoint, which bounces the holder
// into the mobile app.
func BuildPasswordResetEmail(baseURL, recipient, token string) (Message, error) {
	if token == "" {
		return Message{}, fmt.Errorf("%w: reset token is required", ErrInvalidMessage)
	}
	link := fmt.Sprintf("%s/reset-redirect?token=%s",
		strings.TrimRight(baseURL, "/"), url.QueryEscape(token))

	var body strings.Builder
	if err := resetTemplate.Execute(&body, struct{ Link string }{Link: link}); err != nil {
		return Message{}, fmt.Errorf("render reset email: %w", err)
	}

	msg := Message{
		To:       recipient,
		Subject:  "Reset your password",
		BodyHTML: body.String(),
		Tag:      passwordResetTag,
	}
	if err := msg.Validate(); err != nil {
		return Message{}, err
	}
	return msg, nil
}
