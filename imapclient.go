package mailbox

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// imapClient implements Client on top of go-imap.
type imapClient struct {
	c   *imapclient.Client
	log Logger
}

var _ Client = (*imapClient)(nil)

func (ic *imapClient) Select(ctx context.Context, mailbox string, readOnly bool) error {
	return run(ctx, ic.c, func() error {
		_, err := ic.c.Select(mailbox, &imap.SelectOptions{ReadOnly: readOnly}).Wait()
		return err
	})
}

func (ic *imapClient) List(ctx context.Context, pattern string) (folders []string, err error) {
	err = run(ctx, ic.c, func() error {
		boxes, err := ic.c.List("", pattern, nil).Collect()
		if err != nil {
			return err
		}
		folders = make([]string, 0, len(boxes))
		for _, b := range boxes {
			folders = append(folders, b.Mailbox)
		}
		return nil
	})
	return folders, err
}

// NumMessages sends a NOOP so pending EXISTS updates are applied, then
// reads the count tracked for the selected mailbox.
func (ic *imapClient) NumMessages(ctx context.Context) (n uint32, err error) {
	err = run(ctx, ic.c, func() error {
		if err := ic.c.Noop().Wait(); err != nil {
			return err
		}
		mbox := ic.c.Mailbox()
		if mbox == nil {
			return fmt.Errorf("no mailbox selected")
		}
		n = mbox.NumMessages
		return nil
	})
	return n, err
}

func (ic *imapClient) Fetch(ctx context.Context, indices []uint32, items FetchItems) (results []*FetchResult, err error) {
	options := &imap.FetchOptions{
		Envelope:     items.Header,
		Flags:        items.Header,
		InternalDate: items.Header,
		RFC822Size:   items.Header,
	}
	if items.Structure {
		options.BodyStructure = &imap.FetchItemBodyStructure{Extended: true}
	}
	var section *imap.FetchItemBodySection
	if items.Body {
		section = &imap.FetchItemBodySection{Peek: items.Peek}
		options.BodySection = []*imap.FetchItemBodySection{section}
	}

	err = run(ctx, ic.c, func() error {
		msgs, err := ic.c.Fetch(imap.SeqSetNum(indices...), options).Collect()
		if err != nil {
			return err
		}
		results = make([]*FetchResult, 0, len(msgs))
		for _, buf := range msgs {
			r := &FetchResult{Index: buf.SeqNum}
			if items.Header {
				r.Header = headerFromBuffer(buf)
			}
			if items.Structure && buf.BodyStructure != nil {
				r.Structure = structureFromIMAP(buf.BodyStructure)
			}
			if section != nil {
				r.Body = buf.FindBodySection(section)
			}
			results = append(results, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })
	return results, nil
}

func (ic *imapClient) FetchPart(ctx context.Context, index uint32, part int, peek bool) (data []byte, err error) {
	section := &imap.FetchItemBodySection{Part: []int{part}, Peek: peek}
	options := &imap.FetchOptions{BodySection: []*imap.FetchItemBodySection{section}}

	err = run(ctx, ic.c, func() error {
		msgs, err := ic.c.Fetch(imap.SeqSetNum(index), options).Collect()
		if err != nil {
			return err
		}
		if len(msgs) == 0 {
			return fmt.Errorf("message %d not found", index)
		}
		data = msgs[0].FindBodySection(section)
		if data == nil {
			return fmt.Errorf("message %d has no part %d", index, part)
		}
		return nil
	})
	return data, err
}

func (ic *imapClient) Move(ctx context.Context, index uint32, mailbox string) error {
	return run(ctx, ic.c, func() error {
		_, err := ic.c.Move(imap.SeqSetNum(index), mailbox).Wait()
		return err
	})
}

func (ic *imapClient) Expunge(ctx context.Context) error {
	return run(ctx, ic.c, func() error {
		return ic.c.Expunge().Close()
	})
}

func (ic *imapClient) Search(ctx context.Context, criteria string) (indices []uint32, err error) {
	sc, err := ParseCriteria(criteria)
	if err != nil {
		return nil, err
	}
	err = run(ctx, ic.c, func() error {
		data, err := ic.c.Search(sc, nil).Wait()
		if err != nil {
			return err
		}
		indices = data.AllSeqNums()
		return nil
	})
	return indices, err
}

// Close logs out and closes the connection.
func (ic *imapClient) Close() error {
	if err := ic.c.Logout().Wait(); err != nil {
		verbose(ic.log, "logout failed", "error", err)
	}
	return ic.c.Close()
}

// headerFromBuffer extracts a Header from a FetchMessageBuffer.
func headerFromBuffer(buf *imapclient.FetchMessageBuffer) *Header {
	h := &Header{
		Received: buf.InternalDate.UTC(),
		Size:     uint64(buf.RFC822Size),
	}
	for _, f := range buf.Flags {
		h.Flags = append(h.Flags, string(f))
	}

	if env := buf.Envelope; env != nil {
		h.Subject = env.Subject
		h.Sent = env.Date
		h.MessageID = env.MessageID
		h.From = emailAddresses(env.From)
		h.Sender = emailAddresses(env.Sender)
		h.ReplyTo = emailAddresses(env.ReplyTo)
		h.To = emailAddresses(env.To)
		h.CC = emailAddresses(env.Cc)
		h.BCC = emailAddresses(env.Bcc)
	}
	return h
}

func emailAddresses(list []imap.Address) EmailAddresses {
	addrs := make(EmailAddresses, len(list))
	for _, a := range list {
		if a.IsGroupStart() || a.IsGroupEnd() {
			continue
		}
		addrs[strings.ToLower(a.Addr())] = a.Name
	}
	return addrs
}
