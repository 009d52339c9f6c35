package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"
)

const (
	VerificationSubject = "Verify your email"
	VerificationTag     = "email-verification"

	// VerificationPath is served by the HTTP API.
	VerificationPath = "/api/users/verify"
)

//go:embed templates/*.html
var templates embed.FS

var verificationTemplate = template.Must(template.ParseFS(templates, "templates/verification.html"))

// VerificationLink builds {baseURL}/api/users/verify?token={token}.
func VerificationLink(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + VerificationPath + "?token=" + url.QueryEscape(token)
}

// VerificationMailer renders the verification mail and hands it to an EmailSender.
type VerificationMailer struct {
	sender EmailSender
	tmpl   *template.Template
}

func NewVerificationMailer(sender EmailSender) *VerificationMailer {
	return &VerificationMailer{sender: sender, tmpl: verificationTemplate}
}

func (m *VerificationMailer) SendVerificationLink(ctx context.Context, to, link string) error {
	var body bytes.Buffer
	if err := m.tmpl.Execute(&body, struct{ Link string }{Link: link}); err != nil {
		return fmt.Errorf("render verification mail: %w", err)
	}

	return m.sender.SendEmail(ctx, SendEmailParams{
		SendTo:   to,
		Subject:  VerificationSubject,
		BodyHTML: body.String(),
		Tag:      VerificationTag,
	})
}
