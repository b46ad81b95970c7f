package actions

import (
	"context"
	"time"

	"ChintuIdrive/host-health-watchdog/clients"
	"ChintuIdrive/host-health-watchdog/conf"
)

const (
	ChannelEmail   = "email"
	ChannelWebhook = "webhook"
)

// SendTimeout bounds a single channel send.
const SendTimeout = 10 * time.Second

// Channel is one notification backend. A disabled channel is never sent to.
type Channel interface {
	Name() string
	Enabled() bool
	Send(ctx context.Context, subject, body string) error
}

type MailSender interface {
	SendMail(ctx context.Context, subject, body string) error
}

type JSONPoster interface {
	PostJSON(ctx context.Context, payload any) (int, error)
}

type EmailChannel struct {
	config *conf.SMTPConfig
	sender MailSender
}

func NewEmailChannel(config *conf.SMTPConfig, sender MailSender) *EmailChannel {
	return &EmailChannel{config: config, sender: sender}
}

func (ec *EmailChannel) Name() string { return ChannelEmail }

func (ec *EmailChannel) Enabled() bool { return ec.config.Enabled }

func (ec *EmailChannel) Send(ctx context.Context, subject, body string) error {
	return ec.sender.SendMail(ctx, subject, body)
}

// WebhookPayload is the Slack-compatible message shape posted to webhooks.
type WebhookPayload struct {
	Text        string              `json:"text"`
	Attachments []WebhookAttachment `json:"attachments"`
}

type WebhookAttachment struct {
	Text string `json:"text"`
}

type WebhookChannel struct {
	config *conf.WebhookConfig
	poster JSONPoster
}

func NewWebhookChannel(config *conf.WebhookConfig, poster JSONPoster) *WebhookChannel {
	return &WebhookChannel{config: config, poster: poster}
}

func (wc *WebhookChannel) Name() string { return ChannelWebhook }

func (wc *WebhookChannel) Enabled() bool { return wc.config.Enabled && wc.config.URL != "" }

func (wc *WebhookChannel) Send(ctx context.Context, subject, body string) error {
	payload := WebhookPayload{
		Text:        subject,
		Attachments: []WebhookAttachment{{Text: body}},
	}
	_, err := wc.poster.PostJSON(ctx, payload)
	return err
}

// NewChannels wires the email and webhook channels to their real clients.
func NewChannels(config *conf.NotificationConfig) []Channel {
	return []Channel{
		NewEmailChannel(config.SMTP, clients.NewSMTPClient(config.SMTP, SendTimeout)),
		NewWebhookChannel(config.Webhook, clients.NewWebhookClient(config.Webhook.URL, SendTimeout)),
	}
}
