// internal/agent/notify/notify.go

// Package notify fans out assignment notifications to family members over
// email and SMS. Delivery failures are logged and never block the action
// that triggered them.
package notify

import (
	"context"
	"fmt"
	"time"

	"household-agent/internal/common/aws"
	"household-agent/internal/common/config"
	"household-agent/internal/common/errors"
	"household-agent/internal/common/logger"
)

// Notifier tells a family member they were assigned a task.
type Notifier interface {
	TaskAssigned(ctx context.Context, assignee, title string, due *time.Time) error
}

// AWSNotifier delivers over SES email and SNS SMS, resolving contact
// endpoints from the configured recipient directory.
type AWSNotifier struct {
	cfg config.NotificationConfig
	ses *aws.SESClient
	sns *aws.SNSClient
	log logger.Logger
}

func NewAWSNotifier(cfg config.NotificationConfig, sesClient *aws.SESClient, snsClient *aws.SNSClient, log logger.Logger) *AWSNotifier {
	return &AWSNotifier{cfg: cfg, ses: sesClient, sns: snsClient, log: log}
}

func (n *AWSNotifier) TaskAssigned(ctx context.Context, assignee, title string, due *time.Time) error {
	recipient, ok := n.cfg.Recipients[assignee]
	if !ok {
		n.log.Debug("no contact endpoints for assignee", map[string]interface{}{
			"assignee": assignee,
		})
		return nil
	}

	body := fmt.Sprintf("You have been assigned a task: %s", title)
	if due != nil {
		body += fmt.Sprintf(" (due %s)", due.Format("Mon Jan 2 15:04 MST"))
	}

	var lastErr error
	if n.cfg.Email.Enabled && recipient.Email != "" {
		if err := n.sendEmail(ctx, recipient.Email, title, body); err != nil {
			n.log.WithError(err).Warn("email notification failed", map[string]interface{}{
				"assignee": assignee,
			})
			lastErr = errors.NewNotificationSendFailedError("email", err)
		}
	}
	if n.cfg.SMS.Enabled && recipient.Phone != "" {
		if err := n.sendSMS(ctx, recipient.Phone, body); err != nil {
			n.log.WithError(err).Warn("sms notification failed", map[string]interface{}{
				"assignee": assignee,
			})
			lastErr = errors.NewNotificationSendFailedError("sms", err)
		}
	}
	return lastErr
}

func (n *AWSNotifier) sendEmail(ctx context.Context, to, subject, body string) error {
	if n.ses == nil {
		return fmt.Errorf("ses client not configured")
	}
	return n.ses.SendNotification(ctx, n.cfg.Email.FromEmail, to, "New task: "+subject, body)
}

func (n *AWSNotifier) sendSMS(ctx context.Context, phone, body string) error {
	if n.sns == nil {
		return fmt.Errorf("sns client not configured")
	}
	return n.sns.SendSMS(ctx, phone, body, n.cfg.SMS.DefaultSMSSenderID)
}

// NopNotifier drops every notification. Used when notifications are
// disabled and by tests.
type NopNotifier struct{}

func (NopNotifier) TaskAssigned(ctx context.Context, assignee, title string, due *time.Time) error {
	return nil
}
