package mailbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/xid"
)

// Session is a client session over one IMAP account. Call Setup (or one of
// its variants), then Connect. The zero value is ready for Setup.
//
// A Session is not safe for concurrent use.
type Session struct {
	// Dialer opens the connection. Nil selects the go-imap backed dialer.
	Dialer Dialer
	// Sender handles SendMail. Nil makes SendMail return ErrSendUnavailable.
	Sender Sender

	server   string
	username string
	password string
	port     int
	options  string
	address  string
	oauth2   bool

	id        xid.ID
	client    Client
	readOnly  bool
	folder    string
	lastError string
	count     int
	cache     map[uint32]*Message
}

// Setup stores the credentials using DefaultOptions. No network activity
// takes place.
func (s *Session) Setup(server, username, password string, port int) {
	s.SetupWithOptions(server, username, password, port, DefaultOptions)
}

// SetupWithOptions stores the credentials and builds the address token
// "{" + server + options + "}". No network activity takes place.
func (s *Session) SetupWithOptions(server, username, password string, port int, options string) {
	s.server = server
	s.username = username
	s.password = password
	s.port = port
	s.options = options
	s.address = BuildAddress(server, options)
	s.oauth2 = false
	if s.id.IsNil() {
		s.id = xid.New()
	}
}

// SetupOAuth2 is SetupWithOptions for servers that take an OAuth 2.0
// access token through SASL XOAUTH2 instead of a password.
func (s *Session) SetupOAuth2(server, username, accessToken string, port int, options string) {
	s.SetupWithOptions(server, username, accessToken, port, options)
	s.oauth2 = true
}

// Address returns the address token built by Setup.
func (s *Session) Address() string {
	return s.address
}

// Connected reports whether the session holds an open connection. A
// command aborted by its context closes the connection, after which
// Connected is false until the next Connect.
func (s *Session) Connected() bool {
	return s.client != nil
}

// Connect opens the session and selects the mailbox named in the address
// token, or DefaultMailbox. Failures wrap ErrConnectionFailed.
func (s *Session) Connect(ctx context.Context) error {
	if s.address == "" {
		return s.fail(fmt.Errorf("mailbox connect: %w: session is not set up", ErrConnectionFailed))
	}
	addr, err := ParseAddress(s.address, s.port)
	if err != nil {
		return s.fail(fmt.Errorf("mailbox connect: %w: %w", ErrConnectionFailed, err))
	}

	if s.client != nil {
		_ = s.Close()
	}

	dialer := s.Dialer
	if dialer == nil {
		dialer = imapDialer{log: sessionLogger(s.logID(), "")}
	}

	verbose(s.log(), "establishing connection", "address", s.address, "security", addr.Security)
	c, err := dialer.Dial(ctx, addr, Credentials{
		Username: s.username,
		Password: s.password,
		OAuth2:   s.oauth2,
	})
	observe("connect", err)
	if err != nil {
		s.log().Error("failed to establish connection", "address", s.address, "error", err)
		return s.fail(fmt.Errorf("mailbox connect %s: %w: %w", addr.HostPort(), ErrConnectionFailed, err))
	}

	folder := addr.Mailbox
	if folder == "" {
		folder = DefaultMailbox
	}
	err = c.Select(ctx, folder, addr.ReadOnly)
	observe("select", err)
	if err != nil {
		_ = c.Close()
		return s.fail(fmt.Errorf("mailbox connect: %w: select %q: %w", ErrConnectionFailed, folder, err))
	}

	s.client = c
	s.folder = folder
	s.readOnly = addr.ReadOnly
	s.cache = nil
	s.count = 0
	return nil
}

// Close drops the message cache and count and releases the connection.
// Closing a closed session is a no-op.
func (s *Session) Close() error {
	s.cache = nil
	s.count = 0
	if s.client == nil {
		return nil
	}

	verbose(s.log(), "closing connection")
	err := s.client.Close()
	s.client = nil
	s.folder = ""
	if err != nil {
		return s.fail(fmt.Errorf("mailbox close: %w", err))
	}
	return nil
}

// logID returns the session id used in log lines.
func (s *Session) logID() string {
	if s.id.IsNil() {
		s.id = xid.New()
	}
	return s.id.String()
}

// settle records the outcome of one client call. A call cut short by a
// cancelled or expired context has already closed the connection, so the
// session lets go of the client and reads as disconnected.
func (s *Session) settle(op string, err error) {
	observe(op, err)
	if s.client == nil || !aborted(err) {
		return
	}

	s.log().Warn("connection closed by aborted command", "op", op, "error", err)
	_ = s.client.Close()
	s.client = nil
	s.folder = ""
	s.cache = nil
	s.count = 0
}

func aborted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
