package clients

import (
	"crypto/tls"
	"encoding/base64"
	"net"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// smtpSession is what the scripted server saw on one connection.
type smtpSession struct {
	commands   []string
	recipients []string
	authUser   string
	data       string
}

// scriptedSMTPServer speaks just enough ESMTP for go-mail: EHLO, STARTTLS,
// AUTH LOGIN/PLAIN, MAIL, RCPT, DATA, RSET, NOOP and QUIT.
type scriptedSMTPServer struct {
	listener  net.Listener
	tlsConfig *tls.Config

	starttls   bool
	authMechs  string
	rejectRcpt string

	mu       sync.Mutex
	sessions []*smtpSession
	closed   chan struct{}
}

func newScriptedSMTPServer(t *testing.T, configure func(*scriptedSMTPServer)) *scriptedSMTPServer {
	t.Helper()

	certSource := httptest.NewTLSServer(http.NotFoundHandler())
	cert := certSource.TLS.Certificates[0]
	certSource.Close()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := &scriptedSMTPServer{
		listener:  listener,
		tlsConfig: &tls.Config{Certificates: []tls.Certificate{cert}},
		starttls:  true,
		closed:    make(chan struct{}, 8),
	}
	if configure != nil {
		configure(server)
	}
	go server.serve()
	t.Cleanup(func() { _ = listener.Close() })
	return server
}

func (s *scriptedSMTPServer) port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

func (s *scriptedSMTPServer) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

// waitClosed blocks until the server has seen a connection end.
func (s *scriptedSMTPServer) waitClosed(t *testing.T) {
	t.Helper()
	select {
	case <-s.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("smtp connection was not closed")
	}
}

func (s *scriptedSMTPServer) session(t *testing.T) smtpSession {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.Len(t, s.sessions, 1)
	return *s.sessions[0]
}

func (s *scriptedSMTPServer) update(session *smtpSession, fn func(*smtpSession)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(session)
}

func (s *scriptedSMTPServer) handle(conn net.Conn) {
	defer func() {
		_ = conn.Close()
		s.closed <- struct{}{}
	}()

	session := &smtpSession{}
	s.mu.Lock()
	s.sessions = append(s.sessions, session)
	s.mu.Unlock()

	tp := textproto.NewConn(conn)
	secured := false
	_ = tp.PrintfLine("220 localhost ESMTP ready")

	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		verb, arg, _ := strings.Cut(line, " ")
		verb = strings.ToUpper(verb)
		s.update(session, func(ss *smtpSession) { ss.commands = append(ss.commands, verb) })

		switch verb {
		case "EHLO", "HELO":
			ext := []string{"localhost"}
			if s.starttls && !secured {
				ext = append(ext, "STARTTLS")
			}
			if secured && s.authMechs != "" {
				ext = append(ext, "AUTH "+s.authMechs)
			}
			ext = append(ext, "8BITMIME")
			for i, e := range ext {
				sep := "-"
				if i == len(ext)-1 {
					sep = " "
				}
				_ = tp.PrintfLine("250%s%s", sep, e)
			}
		case "STARTTLS":
			_ = tp.PrintfLine("220 2.0.0 ready to start TLS")
			tlsConn := tls.Server(conn, s.tlsConfig)
			if err := tlsConn.Handshake(); err != nil {
				return
			}
			conn = tlsConn
			tp = textproto.NewConn(conn)
			secured = true
		case "AUTH":
			user, ok := s.authenticate(tp, strings.Fields(arg))
			if !ok {
				_ = tp.PrintfLine("504 5.5.4 mechanism not supported")
				continue
			}
			s.update(session, func(ss *smtpSession) { ss.authUser = user })
			_ = tp.PrintfLine("235 2.7.0 authentication successful")
		case "RCPT":
			addr := mailboxOf(arg)
			if addr == s.rejectRcpt {
				_ = tp.PrintfLine("550 5.1.1 no such user")
				continue
			}
			s.update(session, func(ss *smtpSession) { ss.recipients = append(ss.recipients, addr) })
			_ = tp.PrintfLine("250 2.1.5 ok")
		case "DATA":
			_ = tp.PrintfLine("354 end data with <CR><LF>.<CR><LF>")
			lines, err := tp.ReadDotLines()
			if err != nil {
				return
			}
			s.update(session, func(ss *smtpSession) { ss.data = strings.Join(lines, "\n") })
			_ = tp.PrintfLine("250 2.0.0 queued")
		case "QUIT":
			_ = tp.PrintfLine("221 2.0.0 bye")
			return
		default:
			_ = tp.PrintfLine("250 2.0.0 ok")
		}
	}
}

func (s *scriptedSMTPServer) authenticate(tp *textproto.Conn, fields []string) (string, bool) {
	if len(fields) == 0 {
		return "", false
	}
	readResponse := func(challenge string) string {
		_ = tp.PrintfLine("334 %s", challenge)
		line, _ := tp.ReadLine()
		return line
	}
	decode := func(encoded string) string {
		raw, _ := base64.StdEncoding.DecodeString(encoded)
		return string(raw)
	}

	switch strings.ToUpper(fields[0]) {
	case "LOGIN":
		var user string
		if len(fields) > 1 {
			user = decode(fields[1])
		} else {
			user = decode(readResponse(base64.StdEncoding.EncodeToString([]byte("Username:"))))
		}
		readResponse(base64.StdEncoding.EncodeToString([]byte("Password:")))
		return user, true
	case "PLAIN":
		var encoded string
		if len(fields) > 1 {
			encoded = fields[1]
		} else {
			encoded = readResponse("")
		}
		parts := strings.Split(decode(encoded), "\x00")
		if len(parts) != 3 {
			return "", false
		}
		return parts[1], true
	default:
		return "", false
	}
}

// mailboxOf extracts the address from a "TO:<addr> ..." argument.
func mailboxOf(arg string) string {
	start := strings.Index(arg, "<")
	end := strings.Index(arg, ">")
	if start < 0 || end < start {
		return strings.TrimSpace(arg)
	}
	return arg[start+1 : end]
}
