package mailbox

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"mime"
	"net"
	"strings"

	retry "github.com/StirlingMarketingGroup/go-retry"
	"github.com/emersion/go-imap/v2/imapclient"
	"golang.org/x/net/html/charset"
)

// imapDialer opens go-imap clients. It is the Dialer used when a Session
// has none configured.
type imapDialer struct {
	log Logger
}

// tlsConfig returns the TLS settings for addr
func tlsConfig(addr Address) *tls.Config {
	return &tls.Config{
		ServerName:         addr.Host,
		InsecureSkipVerify: TLSSkipVerify || addr.NoValidateCert,
	}
}

// dialHost establishes the connection to the IMAP server, completing the
// TLS handshake for implicit TLS addresses
func dialHost(ctx context.Context, addr Address) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr.HostPort())
	if err != nil {
		return nil, err
	}
	if addr.Security != SecurityTLS {
		return conn, nil
	}

	tlsConn := tls.Client(conn, tlsConfig(addr))
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return tlsConn, nil
}

// charsetReader decodes encoded-word headers in any charset known to the
// WHATWG encoding list
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	label = strings.Replace(label, "windows-", "cp", -1)
	encoding, _ := charset.Lookup(label)
	if encoding == nil {
		return nil, fmt.Errorf("unknown charset %q", label)
	}
	return encoding.NewDecoder().Reader(input), nil
}

// Dial connects and authenticates. Only establishing the connection is
// retried, RetryCount times; authentication failures are returned at once.
func (d imapDialer) Dial(ctx context.Context, addr Address, creds Credentials) (Client, error) {
	options := &imapclient.Options{
		TLSConfig:   tlsConfig(addr),
		WordDecoder: &mime.WordDecoder{CharsetReader: charsetReader},
	}
	if addr.Debug || (Verbose && !SkipResponses) {
		options.DebugWriter = &traceWriter{log: d.log, secret: creds.Password}
	}

	var c *imapclient.Client
	err := retry.Retry(func() error {
		conn, err := dialHost(ctx, addr)
		if err != nil {
			return err
		}
		if addr.Security == SecurityStartTLS {
			c, err = imapclient.NewStartTLS(conn, options)
			if err != nil {
				_ = conn.Close()
				return err
			}
			return nil
		}
		c = imapclient.New(conn, options)
		return nil
	}, RetryCount, func(err error) error {
		d.log.Warn("failed to connect, retrying shortly", "error", err)
		return nil
	}, func() error {
		verbose(d.log, "retrying connection now")
		return ctx.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr.HostPort(), err)
	}

	err = run(ctx, c, func() error { return authenticate(c, creds) })
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	return &imapClient{c: c, log: d.log}, nil
}
