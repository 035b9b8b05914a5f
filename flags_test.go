package mailbox

import "testing"

func TestHeaderFlags(t *testing.T) {
	h := &Header{Flags: []string{`\seen`, `\Flagged`, "$Invoice"}}

	if !h.Seen() || !h.Flagged() {
		t.Error("Seen or Flagged not reported")
	}
	if h.Answered() || h.Deleted() || h.Draft() {
		t.Error("unset flag reported")
	}
	if !h.HasFlag("$invoice") {
		t.Error("HasFlag($invoice) = false")
	}

	var nilHeader *Header
	if nilHeader.Seen() {
		t.Error("nil header reported Seen")
	}
}
