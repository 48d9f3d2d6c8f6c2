package notify

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/clinovahq/clinic-platform/pkg/logging"
)

// GmailConfig holds configuration for the Gmail API sender.
type GmailConfig struct {
	CredentialsFile string
	// Sender is the Gmail user id to send as; "me" uses the authenticated
	// account.
	Sender string
}

// GmailSender sends emails through the Gmail API using a service account.
type GmailSender struct {
	svc    *gmail.Service
	sender string
	logger *logging.Logger
}

// NewGmailSender creates a Gmail API email sender.
func NewGmailSender(ctx context.Context, cfg GmailConfig, logger *logging.Logger) (*GmailSender, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Sender == "" {
		cfg.Sender = "me"
	}
	svc, err := gmail.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(gmail.GmailSendScope),
	)
	if err != nil {
		return nil, fmt.Errorf("notify: create gmail service: %w", err)
	}
	return &GmailSender{svc: svc, sender: cfg.Sender, logger: logger}, nil
}

// Send builds an RFC 2822 message and dispatches it through the Gmail API.
func (s *GmailSender) Send(ctx context.Context, msg EmailMessage) error {
	body := msg.HTML
	contentType := "text/html; charset=utf-8"
	if body == "" {
		body = msg.Body
		contentType = "text/plain; charset=utf-8"
	}
	raw := strings.Join([]string{
		"Content-Type: " + contentType,
		"MIME-Version: 1.0",
		"To: " + msg.To,
		"Subject: " + msg.Subject,
		"",
		body,
	}, "\r\n")

	_, err := s.svc.Users.Messages.Send(s.sender, &gmail.Message{
		Raw: base64.RawURLEncoding.EncodeToString([]byte(raw)),
	}).Context(ctx).Do()
	if err != nil {
		s.logger.Error("gmail send failed", "error", err, "to", msg.To)
		return fmt.Errorf("notify: gmail send failed: %w", err)
	}

	s.logger.Info("email sent via gmail", "to", msg.To, "subject", msg.Subject)
	return nil
}

var _ EmailSender = (*GmailSender)(nil)
