package mailer

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"quote-api/internal/common/errors"
)

// SESMailer delivers through AWS SES. Used by deployments that route mail
// inside their own AWS account instead of a transactional HTTP provider.
type SESMailer struct {
	client *ses.Client
}

func NewSESMailer(ctx context.Context, region string) (*SESMailer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &SESMailer{client: ses.NewFromConfig(cfg)}, nil
}

func (m *SESMailer) Send(ctx context.Context, email *Email) error {
	charset := "UTF-8"

	input := &ses.SendEmailInput{
		Source: &email.From,
		Destination: &types.Destination{
			ToAddresses: []string{email.To},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    &email.Subject,
				Charset: &charset,
			},
			Body: &types.Body{
				Html: &types.Content{
					Data:    &email.HTML,
					Charset: &charset,
				},
			},
		},
	}
	if email.ReplyTo != "" {
		input.ReplyToAddresses = []string{email.ReplyTo}
	}

	if _, err := m.client.SendEmail(ctx, input); err != nil {
		// SES SDK failures are treated as transient; the retry policy caps
		// the attempts either way.
		return errors.NewUpstreamError("ses", err)
	}
	return nil
}
