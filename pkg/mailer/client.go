package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/leomarchetti/offerstack-backend/pkg/config"
	"github.com/leomarchetti/offerstack-backend/pkg/logger"
)

var (
	errAPIKeyRequired = errors.New("sendgrid api key is required")
	errFromRequired   = errors.New("sendgrid from address is required")
)

// Client sends transactional mail through SendGrid dynamic templates.
type Client struct {
	sg   *sendgrid.Client
	from string
}

// New bootstraps the SendGrid client with the configured key and sender.
func New(ctx context.Context, cfg config.SendgridConfig, logg *logger.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	from := strings.TrimSpace(cfg.DefaultFrom)
	if from == "" {
		return nil, errFromRequired
	}
	if logg != nil {
		logg.Info(ctx, "sendgrid client initialized")
	}
	return &Client{
		sg:   sendgrid.NewSendClient(apiKey),
		from: from,
	}, nil
}

// Send delivers one templated message to the recipient. The payload becomes
// the template's dynamic data.
func (c *Client) Send(ctx context.Context, recipient, templateID string, payload map[string]any) error {
	if c == nil || c.sg == nil {
		return errors.New("mailer not initialized")
	}
	if strings.TrimSpace(recipient) == "" {
		return errors.New("recipient is required")
	}

	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail("", c.from))
	message.SetTemplateID(templateID)

	personalization := mail.NewPersonalization()
	personalization.AddTos(mail.NewEmail("", recipient))
	for key, value := range payload {
		personalization.SetDynamicTemplateData(key, value)
	}
	message.AddPersonalizations(personalization)

	resp, err := c.sg.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sending mail to %s: %w", recipient, err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid rejected mail to %s: status %d", recipient, resp.StatusCode)
	}
	return nil
}
