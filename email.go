package mailbox

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"
	humanize "github.com/dustin/go-humanize"
	"github.com/jhillyerd/enmime/v2"
)

// Email is the parsed content of a message body.
type Email struct {
	Subject   string
	MessageID string
	From      EmailAddresses
	To        EmailAddresses
	ReplyTo   EmailAddresses
	CC        EmailAddresses
	BCC       EmailAddresses
	Text      string
	HTML      string
	// Files holds every attachment and inline part, at any MIME depth.
	Files []File
}

// File is an attachment or inline part found while parsing a body.
type File struct {
	Name     string
	MimeType string
	Content  []byte
}

// String returns a formatted string representation of an Email
func (e Email) String() string {
	email := strings.Builder{}

	email.WriteString(fmt.Sprintf("Subject: %s\n", e.Subject))

	if len(e.To) != 0 {
		email.WriteString(fmt.Sprintf("To: %s\n", e.To))
	}
	if len(e.From) != 0 {
		email.WriteString(fmt.Sprintf("From: %s\n", e.From))
	}
	if len(e.CC) != 0 {
		email.WriteString(fmt.Sprintf("CC: %s\n", e.CC))
	}
	if len(e.BCC) != 0 {
		email.WriteString(fmt.Sprintf("BCC: %s\n", e.BCC))
	}
	if len(e.ReplyTo) != 0 {
		email.WriteString(fmt.Sprintf("ReplyTo: %s\n", e.ReplyTo))
	}
	if len(e.Text) != 0 {
		if len(e.Text) > 20 {
			email.WriteString(fmt.Sprintf("Text: %s...", e.Text[:20]))
		} else {
			email.WriteString(fmt.Sprintf("Text: %s", e.Text))
		}
		email.WriteString(fmt.Sprintf("(%s)\n", humanize.Bytes(uint64(len(e.Text)))))
	}
	if len(e.HTML) != 0 {
		if len(e.HTML) > 20 {
			email.WriteString(fmt.Sprintf("HTML: %s...", e.HTML[:20]))
		} else {
			email.WriteString(fmt.Sprintf("HTML: %s", e.HTML))
		}
		email.WriteString(fmt.Sprintf(" (%s)\n", humanize.Bytes(uint64(len(e.HTML)))))
	}

	if len(e.Files) != 0 {
		email.WriteString(fmt.Sprintf("%d File(s): %s\n", len(e.Files), e.Files))
	}

	return email.String()
}

// String returns a formatted string representation of a File
func (f File) String() string {
	return fmt.Sprintf("%s (%s %s)", f.Name, f.MimeType, humanize.Bytes(uint64(len(f.Content))))
}

// ParseMail parses the raw body of a cached message. The body must have
// been fetched with GetMailBody or GetMailbox.
func (s *Session) ParseMail(index uint32) (*Email, error) {
	m, ok := s.GetMail(index)
	if !ok {
		return nil, fmt.Errorf("mailbox parse %d: %w", index, ErrNotCached)
	}
	if m.Body == nil {
		return nil, fmt.Errorf("mailbox parse %d: body not fetched", index)
	}

	e, err := parseEmail(m.Body)
	if err != nil {
		if Verbose {
			s.log().Debug("email body could not be parsed", "index", index, "error", err)
			s.log().Debug("unparsable body", "dump", spew.Sdump(m.Body))
		}
		return nil, s.fail(fmt.Errorf("mailbox parse %d: %w", index, err))
	}
	return e, nil
}

func parseEmail(raw []byte) (*Email, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	e := &Email{
		Subject:   env.GetHeader("Subject"),
		MessageID: strings.Trim(env.GetHeader("Message-ID"), "<>"),
		Text:      env.Text,
		HTML:      env.HTML,
	}

	for _, a := range env.Attachments {
		e.Files = append(e.Files, File{Name: a.FileName, MimeType: a.ContentType, Content: a.Content})
	}
	for _, a := range env.Inlines {
		e.Files = append(e.Files, File{Name: a.FileName, MimeType: a.ContentType, Content: a.Content})
	}

	for _, a := range []struct {
		dest   *EmailAddresses
		header string
	}{
		{&e.From, "From"},
		{&e.ReplyTo, "Reply-To"},
		{&e.To, "To"},
		{&e.CC, "Cc"},
		{&e.BCC, "Bcc"},
	} {
		alist, _ := env.AddressList(a.header)
		*a.dest = make(EmailAddresses, len(alist))
		for _, addr := range alist {
			(*a.dest)[strings.ToLower(addr.Address)] = addr.Name
		}
	}

	return e, nil
}
