package mailbox

import "strings"

// Standard IMAP message flags
const (
	FlagSeen     = `\Seen`
	FlagAnswered = `\Answered`
	FlagFlagged  = `\Flagged`
	FlagDeleted  = `\Deleted`
	FlagDraft    = `\Draft`
)

// HasFlag reports whether the message carries flag, ignoring case.
func (h *Header) HasFlag(flag string) bool {
	if h == nil {
		return false
	}
	for _, f := range h.Flags {
		if strings.EqualFold(f, flag) {
			return true
		}
	}
	return false
}

// Seen reports whether the message has been read.
func (h *Header) Seen() bool { return h.HasFlag(FlagSeen) }

// Answered reports whether the message has been replied to.
func (h *Header) Answered() bool { return h.HasFlag(FlagAnswered) }

// Flagged reports whether the message is flagged for attention.
func (h *Header) Flagged() bool { return h.HasFlag(FlagFlagged) }

// Deleted reports whether the message is marked for deletion.
func (h *Header) Deleted() bool { return h.HasFlag(FlagDeleted) }

// Draft reports whether the message is a draft.
func (h *Header) Draft() bool { return h.HasFlag(FlagDraft) }
