package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

// PostmarkSettings configures the Postmark transport.
type PostmarkSettings struct {
	ServerToken  string
	AccountToken string
	SenderEmail  string
	SupportEmail string
}

type PostmarkSender struct {
	client   *postmark.Client
	settings PostmarkSettings
}

func NewPostmarkSender(s PostmarkSettings) (*PostmarkSender, error) {
	if s.ServerToken == "" {
		return nil, fmt.Errorf("%w: Postmark server token is required", ErrInvalidConfig)
	}
	if !validAddress(s.SenderEmail) {
		return nil, fmt.Errorf("%w: sender email must be a valid address", ErrInvalidConfig)
	}
	if s.SupportEmail != "" && !validAddress(s.SupportEmail) {
		return nil, fmt.Errorf("%w: support email must be a valid address", ErrInvalidConfig)
	}

	return &PostmarkSender{
		client:   postmark.NewClient(s.ServerToken, s.AccountToken),
		settings: s,
	}, nil
}

// SendEmail delivers through the Postmark transactional API. Replies go to
// the support address when one is configured.
func (c *PostmarkSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	resp, err := c.client.SendEmail(ctx, postmark.Email{
		From:     c.settings.SenderEmail,
		ReplyTo:  c.settings.SupportEmail,
		To:       params.SendTo,
		Subject:  params.Subject,
		Tag:      params.Tag,
		HTMLBody: params.BodyHTML,
	})
	if err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(
			ErrFailedToSendEmail,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message),
		)
	}
	return nil
}
