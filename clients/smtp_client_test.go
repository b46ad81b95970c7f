package clients

import (
	"context"
	"crypto/tls"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ChintuIdrive/host-health-watchdog/conf"
)

func smtpConfig() *conf.SMTPConfig {
	return &conf.SMTPConfig{
		Enabled: true,
		Host:    "127.0.0.1",
		Port:    2525,
		User:    "alerts@example.com",
		From:    "alerts@example.com",
		To:      []string{"ops@example.com", "dev@example.com"},
	}
}

func TestBuildMessageKeepsRecipientOrder(t *testing.T) {
	client := NewSMTPClient(smtpConfig(), time.Second)
	msg, err := client.buildMessage("[ALERT] subject", "body")
	require.NoError(t, err)

	recipients, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"ops@example.com", "dev@example.com"}, recipients)
}

func TestSendMailRejectsInvalidSender(t *testing.T) {
	config := smtpConfig()
	config.From = "not an address"
	err := NewSMTPClient(config, time.Second).SendMail(context.Background(), "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid sender")
}

func TestSendMailConnectionRefused(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	config := smtpConfig()
	config.Port = port
	err = NewSMTPClient(config, time.Second).SendMail(context.Background(), "s", "b")
	require.Error(t, err)
}

func clientFor(server *scriptedSMTPServer, config *conf.SMTPConfig) *SMTPClient {
	config.Port = server.port()
	client := NewSMTPClient(config, 2*time.Second)
	client.tlsConfig = &tls.Config{InsecureSkipVerify: true}
	return client
}

func TestSendMailDeliversToEveryRecipientOverStartTLS(t *testing.T) {
	server := newScriptedSMTPServer(t, func(s *scriptedSMTPServer) { s.authMechs = "LOGIN" })
	config := smtpConfig()
	config.Password = "s3cret"

	err := clientFor(server, config).SendMail(context.Background(), "[ALERT] host down", "disk is full")
	require.NoError(t, err)
	server.waitClosed(t)

	session := server.session(t)
	assert.Equal(t, []string{"ops@example.com", "dev@example.com"}, session.recipients)
	assert.Equal(t, "alerts@example.com", session.authUser, "falls back to a mechanism the server offers")
	assert.Less(t, indexOf(session.commands, "STARTTLS"), indexOf(session.commands, "AUTH"))
	assert.Less(t, indexOf(session.commands, "AUTH"), indexOf(session.commands, "MAIL"))
	assert.Equal(t, 1, countOf(session.commands, "DATA"), "one message for all recipients")
	assert.Contains(t, session.data, "Subject: [ALERT] host down")
	assert.Contains(t, session.data, "disk is full")
}

func TestSendMailSkipsAuthWithoutPassword(t *testing.T) {
	server := newScriptedSMTPServer(t, func(s *scriptedSMTPServer) { s.authMechs = "PLAIN LOGIN" })
	config := smtpConfig()
	config.Password = ""

	err := clientFor(server, config).SendMail(context.Background(), "s", "b")
	require.NoError(t, err)
	server.waitClosed(t)

	session := server.session(t)
	assert.NotContains(t, session.commands, "AUTH")
	assert.Empty(t, session.authUser)
	assert.Contains(t, session.commands, "STARTTLS")
	assert.Len(t, session.recipients, 2)
}

func TestSendMailRequiresStartTLS(t *testing.T) {
	server := newScriptedSMTPServer(t, func(s *scriptedSMTPServer) { s.starttls = false })

	err := clientFor(server, smtpConfig()).SendMail(context.Background(), "s", "b")
	require.Error(t, err)
	server.waitClosed(t)

	session := server.session(t)
	assert.NotContains(t, session.commands, "MAIL")
	assert.NotContains(t, session.commands, "DATA")
}

func TestSendMailClosesConnectionOnRejectedRecipient(t *testing.T) {
	server := newScriptedSMTPServer(t, func(s *scriptedSMTPServer) { s.rejectRcpt = "dev@example.com" })

	err := clientFor(server, smtpConfig()).SendMail(context.Background(), "s", "b")
	require.Error(t, err)
	server.waitClosed(t)
}

func indexOf(commands []string, verb string) int {
	for i, c := range commands {
		if c == verb {
			return i
		}
	}
	return -1
}

func countOf(commands []string, verb string) int {
	n := 0
	for _, c := range commands {
		if c == verb {
			n++
		}
	}
	return n
}
