package mailbox

import "context"

// Credentials are handed to a Dialer when a session connects.
type Credentials struct {
	Username string
	Password string
	// OAuth2 makes Password an access token used with SASL XOAUTH2.
	OAuth2 bool
}

// Dialer opens a Client. The zero Session uses the go-imap backed dialer.
type Dialer interface {
	Dial(ctx context.Context, addr Address, creds Credentials) (Client, error)
}

// FetchItems selects what Fetch retrieves for each message.
type FetchItems struct {
	Header    bool
	Structure bool
	Body      bool
	// Peek fetches the body without setting \Seen.
	Peek bool
}

// FetchResult is one message returned by Fetch. Fields not requested are
// left nil.
type FetchResult struct {
	Index     uint32
	Header    *Header
	Structure *Structure
	Body      []byte
}

// Client is the set of IMAP primitives a Session is built on. Indices are
// message sequence numbers in the selected mailbox.
type Client interface {
	// Select opens mailbox, read-only when readOnly is set.
	Select(ctx context.Context, mailbox string, readOnly bool) error
	// List returns the names of all mailboxes matching pattern.
	List(ctx context.Context, pattern string) ([]string, error)
	// NumMessages returns the message count of the selected mailbox.
	NumMessages(ctx context.Context) (uint32, error)
	Fetch(ctx context.Context, indices []uint32, items FetchItems) ([]*FetchResult, error)
	// FetchPart returns the still transfer-encoded content of a top-level
	// body part, numbered from 1.
	FetchPart(ctx context.Context, index uint32, part int, peek bool) ([]byte, error)
	Move(ctx context.Context, index uint32, mailbox string) error
	Expunge(ctx context.Context) error
	// Search runs a criteria string such as "UNSEEN FROM bob" and returns
	// matching indices.
	Search(ctx context.Context, criteria string) ([]uint32, error)
	Close() error
}
