package mailbox

import "time"

// Verbose outputs every command and its response with the IMAP server
var Verbose = false

// SkipResponses skips printing server responses in verbose mode
var SkipResponses = false

// RetryCount is the number of extra dial attempts made by Connect. The
// default of zero makes a single attempt.
var RetryCount = 0

// DialTimeout defines how long to wait when establishing a new connection.
// Zero means no timeout.
var DialTimeout time.Duration

// CommandTimeout defines how long to wait for a command to complete.
// Zero means no timeout.
var CommandTimeout time.Duration

// TLSSkipVerify disables certificate verification when establishing new
// connections. Use with caution; skipping verification exposes the
// connection to man-in-the-middle attacks.
var TLSSkipVerify bool

const (
	// DefaultOptions is the option suffix used by Setup.
	DefaultOptions = "/imap2/tls"

	// DefaultPerPage is the page size GetMailbox uses when none is given.
	DefaultPerPage = 100

	// DefaultMoveFolder is where MoveMail files messages when no folder is given.
	DefaultMoveFolder = "INBOX.Processed"

	// DefaultMailbox is selected right after connecting when the address
	// token names no mailbox.
	DefaultMailbox = "INBOX"
)
