package mailbox

import (
	"fmt"

	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-sasl"
	"github.com/sqs/go-xoauth2"
)

// xoauth2Client is a SASL client for the XOAUTH2 mechanism.
type xoauth2Client struct {
	username string
	token    string
}

var _ sasl.Client = (*xoauth2Client)(nil)

func (c *xoauth2Client) Start() (mech string, ir []byte, err error) {
	return "XOAUTH2", []byte(xoauth2.OAuth2String(c.username, c.token)), nil
}

// Next answers the error challenge a server sends on failure with an empty
// response, after which the server fails the command.
func (c *xoauth2Client) Next(challenge []byte) ([]byte, error) {
	return []byte{}, nil
}

// authenticate logs in with a password or an OAuth 2.0 access token.
// Authentication is never retried.
func authenticate(c *imapclient.Client, creds Credentials) error {
	if creds.OAuth2 {
		if err := c.Authenticate(&xoauth2Client{username: creds.Username, token: creds.Password}); err != nil {
			return fmt.Errorf("authenticate xoauth2: %w", err)
		}
		return nil
	}
	if err := c.Login(creds.Username, creds.Password).Wait(); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return nil
}
