package mailbox

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
)

// fakeMessage is one message held by fakeClient.
type fakeMessage struct {
	header    *Header
	structure *Structure
	body      []byte
	parts     map[int][]byte
}

// fakeClient is an in-memory Client that records every call.
type fakeClient struct {
	folders   []string
	listErr   error
	selectErr map[string]error
	selected  string
	readOnly  bool

	messages  map[uint32]*fakeMessage
	countErr  error
	fetchErr  error
	partErr   error
	searchErr error
	moveErr   error
	expErr    error

	searchResults []uint32

	closed     int
	selects    []string
	criteria   []string
	fetched    [][]uint32
	fetchItems []FetchItems
	parts      []string
	moves      []string
	expunges   int
}

var _ Client = (*fakeClient)(nil)

// newFakeClient returns a client whose selected folder holds n plain
// messages numbered 1..n.
func newFakeClient(n int) *fakeClient {
	c := &fakeClient{
		folders:  []string{"INBOX", "INBOX.Sent", "INBOX.Drafts"},
		messages: make(map[uint32]*fakeMessage, n),
	}
	for i := 1; i <= n; i++ {
		c.messages[uint32(i)] = &fakeMessage{
			header:    &Header{Subject: fmt.Sprintf("message %d", i)},
			structure: &Structure{Type: "text", Subtype: "plain"},
			body:      []byte(fmt.Sprintf("Subject: message %d\r\n\r\nbody %d\r\n", i, i)),
		}
	}
	return c
}

func (c *fakeClient) Select(_ context.Context, mailbox string, readOnly bool) error {
	c.selects = append(c.selects, mailbox)
	if err := c.selectErr[mailbox]; err != nil {
		return err
	}
	c.selected = mailbox
	c.readOnly = readOnly
	return nil
}

func (c *fakeClient) List(_ context.Context, pattern string) ([]string, error) {
	if pattern != "*" {
		return nil, fmt.Errorf("unexpected pattern %q", pattern)
	}
	if c.listErr != nil {
		return nil, c.listErr
	}
	return append([]string(nil), c.folders...), nil
}

func (c *fakeClient) NumMessages(context.Context) (uint32, error) {
	if c.countErr != nil {
		return 0, c.countErr
	}
	return uint32(len(c.messages)), nil
}

func (c *fakeClient) Fetch(_ context.Context, indices []uint32, items FetchItems) ([]*FetchResult, error) {
	c.fetched = append(c.fetched, append([]uint32(nil), indices...))
	c.fetchItems = append(c.fetchItems, items)
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}

	var results []*FetchResult
	for _, idx := range indices {
		m, ok := c.messages[idx]
		if !ok {
			continue
		}
		r := &FetchResult{Index: idx}
		if items.Header {
			r.Header = m.header
		}
		if items.Structure {
			r.Structure = m.structure
		}
		if items.Body {
			r.Body = m.body
		}
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })
	return results, nil
}

func (c *fakeClient) FetchPart(_ context.Context, index uint32, part int, peek bool) ([]byte, error) {
	c.parts = append(c.parts, fmt.Sprintf("%d/%d", index, part))
	if c.partErr != nil {
		return nil, c.partErr
	}
	m, ok := c.messages[index]
	if !ok {
		return nil, fmt.Errorf("message %d not found", index)
	}
	data, ok := m.parts[part]
	if !ok {
		return nil, fmt.Errorf("message %d has no part %d", index, part)
	}
	return data, nil
}

func (c *fakeClient) Move(_ context.Context, index uint32, mailbox string) error {
	c.moves = append(c.moves, fmt.Sprintf("%d>%s", index, mailbox))
	if c.moveErr != nil {
		return c.moveErr
	}
	delete(c.messages, index)
	return nil
}

func (c *fakeClient) Expunge(context.Context) error {
	c.expunges++
	return c.expErr
}

func (c *fakeClient) Search(_ context.Context, criteria string) ([]uint32, error) {
	c.criteria = append(c.criteria, criteria)
	if c.searchErr != nil {
		return nil, c.searchErr
	}
	return c.searchResults, nil
}

func (c *fakeClient) Close() error {
	c.closed++
	return nil
}

// fakeDialer hands out a prepared client.
type fakeDialer struct {
	client *fakeClient
	err    error

	addr  Address
	creds Credentials
	dials int
}

func (d *fakeDialer) Dial(_ context.Context, addr Address, creds Credentials) (Client, error) {
	d.dials++
	d.addr = addr
	d.creds = creds
	if d.err != nil {
		return nil, d.err
	}
	return d.client, nil
}

var errFake = errors.New("fake failure")

// connectedSession returns a session connected to c.
func connectedSession(t *testing.T, c *fakeClient) *Session {
	t.Helper()
	s := &Session{Dialer: &fakeDialer{client: c}}
	s.Setup("imap.example.com", "user", "secret", 143)
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	return s
}

// cachedIndices lists the indices currently cached by s.
func cachedIndices(s *Session) []uint32 {
	var indices []uint32
	for _, m := range s.Messages() {
		indices = append(indices, m.Index)
	}
	return indices
}
