// internal/common/aws/ses.go

// Package aws holds the SES and SNS clients behind the assignment
// notification fan-out. Both expose a single plain-text send shaped for
// notifying a family member, not the raw SDK surface.
package aws

import (
	"context"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESClient sends plain-text notification emails to family members.
type SESClient struct {
	client *ses.Client
}

func NewSESClient(ctx context.Context, region string) (*SESClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &SESClient{client: ses.NewFromConfig(cfg)}, nil
}

// SendNotification delivers one plain-text email. HTML bodies and
// multi-recipient sends are out of scope for household notifications.
func (s *SESClient) SendNotification(ctx context.Context, from, to, subject, body string) error {
	_, err := s.client.SendEmail(ctx, buildEmailInput(from, to, subject, body))
	return err
}

func buildEmailInput(from, to, subject, body string) *ses.SendEmailInput {
	return &ses.SendEmailInput{
		Source: awssdk.String(from),
		Destination: &sestypes.Destination{
			ToAddresses: []string{to},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: awssdk.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: awssdk.String(body)},
			},
		},
	}
}
