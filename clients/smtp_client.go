package clients

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"ChintuIdrive/host-health-watchdog/conf"
)

type SMTPClient struct {
	config  *conf.SMTPConfig
	timeout time.Duration

	// tlsConfig overrides go-mail's STARTTLS settings when set.
	tlsConfig *tls.Config
}

func NewSMTPClient(config *conf.SMTPConfig, timeout time.Duration) *SMTPClient {
	return &SMTPClient{
		config:  config,
		timeout: timeout,
	}
}

// SendMail delivers one plain-text message to every configured recipient
// over a fresh connection. STARTTLS is mandatory; credentials are only sent
// when both user and password are set, using the strongest mechanism the
// server offers. The connection is closed before SendMail returns, whatever
// the outcome.
func (sc *SMTPClient) SendMail(ctx context.Context, subject, body string) error {
	msg, err := sc.buildMessage(subject, body)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(sc.config.Port),
		mail.WithTimeout(sc.timeout),
		mail.WithTLSPolicy(mail.TLSMandatory),
	}
	if sc.tlsConfig != nil {
		opts = append(opts, mail.WithTLSConfig(sc.tlsConfig))
	}
	if sc.config.User != "" && sc.config.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthAutoDiscover),
			mail.WithUsername(sc.config.User),
			mail.WithPassword(sc.config.Password),
		)
	}

	client, err := mail.NewClient(sc.config.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating smtp client for %s: %w", sc.config.Host, err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending mail via %s:%d: %w", sc.config.Host, sc.config.Port, err)
	}
	return nil
}

func (sc *SMTPClient) buildMessage(subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(sc.config.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", sc.config.From, err)
	}
	if err := msg.To(sc.config.To...); err != nil {
		return nil, fmt.Errorf("invalid recipients %v: %w", sc.config.To, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}
