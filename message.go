package mailbox

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	humanize "github.com/dustin/go-humanize"
)

// EmailAddresses represents a map of email addresses to display names
type EmailAddresses map[string]string

// Header is the metadata the server reports for a message.
type Header struct {
	Flags     []string
	Received  time.Time
	Sent      time.Time
	Size      uint64
	Subject   string
	MessageID string
	From      EmailAddresses
	Sender    EmailAddresses
	ReplyTo   EmailAddresses
	To        EmailAddresses
	CC        EmailAddresses
	BCC       EmailAddresses
}

// Message is a cached message record. Index is only meaningful within the
// fetch generation that produced it.
type Message struct {
	Index  uint32
	Header *Header
	// Body is the raw RFC 5322 message, nil until fetched.
	Body      []byte
	Structure *Structure

	attachments map[int]*Attachment
}

// PageOptions controls GetMailbox. Zero values select page 1 and
// DefaultPerPage messages per page.
type PageOptions struct {
	Page    int
	PerPage int
	// Body also fetches the raw message body.
	Body bool
	// Peek fetches the body without marking the message as read.
	Peek bool
}

// String returns a formatted string representation of EmailAddresses
func (e EmailAddresses) String() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	emails := strings.Builder{}
	for i, e2 := range keys {
		n := e[e2]
		if i != 0 {
			emails.WriteString(", ")
		}
		if len(n) != 0 {
			if strings.ContainsRune(n, ',') {
				emails.WriteString(fmt.Sprintf(`"%s" <%s>`, strings.ReplaceAll(n, `"`, `\"`), e2))
			} else {
				emails.WriteString(fmt.Sprintf(`%s <%s>`, n, e2))
			}
		} else {
			emails.WriteString(e2)
		}
	}
	return emails.String()
}

// String returns a formatted string representation of a Message
func (m Message) String() string {
	msg := strings.Builder{}

	msg.WriteString(fmt.Sprintf("Index: %d\n", m.Index))
	if h := m.Header; h != nil {
		msg.WriteString(fmt.Sprintf("Subject: %s\n", h.Subject))
		if len(h.From) != 0 {
			msg.WriteString(fmt.Sprintf("From: %s\n", h.From))
		}
		if len(h.To) != 0 {
			msg.WriteString(fmt.Sprintf("To: %s\n", h.To))
		}
		if len(h.CC) != 0 {
			msg.WriteString(fmt.Sprintf("CC: %s\n", h.CC))
		}
		if !h.Sent.IsZero() {
			msg.WriteString(fmt.Sprintf("Date: %s\n", h.Sent.Format(time.RFC1123Z)))
		}
		msg.WriteString(fmt.Sprintf("Size: %s\n", humanize.Bytes(h.Size)))
	}
	if m.Body != nil {
		msg.WriteString(fmt.Sprintf("Body: %s\n", humanize.Bytes(uint64(len(m.Body)))))
	}
	if m.Structure != nil && len(m.Structure.Parts) != 0 {
		msg.WriteString(fmt.Sprintf("Parts: %d\n", len(m.Structure.Parts)))
	}

	return msg.String()
}

// CountMail asks the server how many messages the current folder holds,
// stores the count and returns it.
func (s *Session) CountMail(ctx context.Context) (int, error) {
	if s.client == nil {
		return 0, s.fail(fmt.Errorf("mailbox count: %w", ErrNotConnected))
	}
	n, err := s.client.NumMessages(ctx)
	s.settle("count", err)
	if err != nil {
		return 0, s.fail(fmt.Errorf("mailbox count: %w: %w", ErrFetchFailed, err))
	}
	s.count = int(n)
	return s.count, nil
}

// GetMailbox fetches one page of the current folder and replaces the
// message cache with it. Headers and structures are always fetched; bodies
// only when opts.Body is set. A page past the end returns ErrNoMorePages
// and leaves the cache alone.
func (s *Session) GetMailbox(ctx context.Context, opts PageOptions) ([]*Message, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PerPage < 1 {
		opts.PerPage = DefaultPerPage
	}

	count, err := s.CountMail(ctx)
	if err != nil {
		return nil, err
	}

	start, end, ok := pageWindow(count, opts.Page, opts.PerPage)
	if !ok {
		return nil, s.fail(fmt.Errorf("mailbox page %d of %d messages: %w", opts.Page, count, ErrNoMorePages))
	}

	indices := make([]uint32, 0, end-start+1)
	for idx := start; idx <= end; idx++ {
		indices = append(indices, uint32(idx))
	}

	verbose(s.log(), "fetching page", "page", opts.Page, "first", start, "last", end)

	results, err := s.fetch(ctx, indices, FetchItems{
		Header:    true,
		Structure: true,
		Body:      opts.Body,
		Peek:      opts.Peek,
	})
	if err != nil {
		return nil, err
	}

	s.replaceCache(results)
	return s.Messages(), nil
}

// GetMail returns the cached record for index. It never touches the network.
func (s *Session) GetMail(index uint32) (*Message, bool) {
	m, ok := s.cache[index]
	if !ok || m == nil {
		return nil, false
	}
	return m, true
}

// GetMailBody fetches and stores the raw body of a cached message. An
// index that is not cached returns ErrNotCached without side effects.
func (s *Session) GetMailBody(ctx context.Context, index uint32, peek bool) error {
	m, ok := s.GetMail(index)
	if !ok {
		return fmt.Errorf("mailbox body %d: %w", index, ErrNotCached)
	}

	results, err := s.fetch(ctx, []uint32{index}, FetchItems{Body: true, Peek: peek})
	if err != nil {
		return err
	}
	for _, r := range results {
		if r.Index == index && r.Body != nil {
			m.Body = r.Body
			return nil
		}
	}
	return s.fail(fmt.Errorf("mailbox body %d: %w: no body returned", index, ErrFetchFailed))
}

// Messages returns the cached records ordered by index.
func (s *Session) Messages() []*Message {
	msgs := make([]*Message, 0, len(s.cache))
	for _, m := range s.cache {
		msgs = append(msgs, m)
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].Index < msgs[j].Index })
	return msgs
}

// MoveMail moves the message at index to folder (DefaultMoveFolder when
// empty), expunges the current folder and reloads the first page. Only the
// move itself decides the returned error; expunge and reload failures are
// logged and recorded in LastError.
func (s *Session) MoveMail(ctx context.Context, index uint32, folder string) error {
	if s.client == nil {
		return s.fail(fmt.Errorf("mailbox move: %w", ErrNotConnected))
	}
	if folder == "" {
		folder = DefaultMoveFolder
	}

	moveErr := s.client.Move(ctx, index, folder)
	s.settle("move", moveErr)
	if s.client == nil {
		return s.fail(fmt.Errorf("mailbox move %d to %q: %w: %w", index, folder, ErrMoveFailed, moveErr))
	}

	err := s.client.Expunge(ctx)
	s.settle("expunge", err)
	if err != nil {
		s.log().Warn("expunge after move failed", "error", err)
		_ = s.fail(fmt.Errorf("mailbox expunge: %w", err))
	}

	if _, err := s.GetMailbox(ctx, PageOptions{}); err != nil {
		s.log().Warn("reload after move failed", "error", err)
	}

	if moveErr != nil {
		return s.fail(fmt.Errorf("mailbox move %d to %q: %w: %w", index, folder, ErrMoveFailed, moveErr))
	}
	return nil
}

// fetch runs a Fetch on the open client, recording failures.
func (s *Session) fetch(ctx context.Context, indices []uint32, items FetchItems) ([]*FetchResult, error) {
	if s.client == nil {
		return nil, s.fail(fmt.Errorf("mailbox fetch: %w", ErrNotConnected))
	}
	if len(indices) == 0 {
		return nil, nil
	}
	results, err := s.client.Fetch(ctx, indices, items)
	s.settle("fetch", err)
	if err != nil {
		return nil, s.fail(fmt.Errorf("mailbox fetch: %w: %w", ErrFetchFailed, err))
	}
	metricFetchedMessages.Add(float64(len(results)))
	return results, nil
}

// replaceCache starts a new fetch generation from results. Records without
// a structure are dropped so that every cached entry is complete.
func (s *Session) replaceCache(results []*FetchResult) {
	cache := make(map[uint32]*Message, len(results))
	for _, r := range results {
		if r == nil || r.Structure == nil {
			continue
		}
		cache[r.Index] = &Message{
			Index:     r.Index,
			Header:    r.Header,
			Body:      r.Body,
			Structure: r.Structure,
		}
	}
	s.cache = cache
}
