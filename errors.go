package mailbox

import "errors"

// Sentinel errors returned (usually wrapped) by Session operations. Use
// errors.Is to test for them.
var (
	ErrNotConnected        = errors.New("mailbox: not connected")
	ErrConnectionFailed    = errors.New("mailbox: connection failed")
	ErrFolderSelectFailed  = errors.New("mailbox: folder select failed")
	ErrListFailed          = errors.New("mailbox: folder list failed")
	ErrNoMorePages         = errors.New("mailbox: no more pages")
	ErrFetchFailed         = errors.New("mailbox: fetch failed")
	ErrNotCached           = errors.New("mailbox: message not cached")
	ErrSearchFailed        = errors.New("mailbox: search failed")
	ErrMoveFailed          = errors.New("mailbox: move failed")
	ErrUnsupportedEncoding = errors.New("mailbox: unsupported transfer encoding")
	ErrSendUnavailable     = errors.New("mailbox: no sender configured")
)

// msgChangeMailboxFailed is the diagnostic recorded when a folder cannot be
// selected.
const msgChangeMailboxFailed = "Failed to change Mailbox"

// LastError returns the description of the most recent failure, or "" if
// no operation has failed since the session was set up.
func (s *Session) LastError() string {
	return s.lastError
}

// fail records err as the last error and returns it unchanged.
func (s *Session) fail(err error) error {
	if err != nil {
		s.lastError = err.Error()
	}
	return err
}
