package mailbox

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-message/textproto"
)

// Sender delivers outbound mail. Recipient arguments are comma separated
// address lists; cc and bcc may be empty.
type Sender interface {
	Send(ctx context.Context, to, subject, body, cc, bcc string) error
}

// SendMail hands a message to the session's Sender.
func (s *Session) SendMail(ctx context.Context, to, subject, body, cc, bcc string) error {
	if s.Sender == nil {
		return s.fail(fmt.Errorf("mailbox send: %w", ErrSendUnavailable))
	}
	err := s.Sender.Send(ctx, to, subject, body, cc, bcc)
	observe("send", err)
	if err != nil {
		return s.fail(fmt.Errorf("mailbox send: %w", err))
	}
	return nil
}

// SMTPSender sends plain text mail through an SMTP relay.
type SMTPSender struct {
	// Addr is the relay's "host:port".
	Addr string
	// From is the sender address, e.g. "Reports <reports@example.com>".
	From string
	// Auth is optional.
	Auth smtp.Auth
}

// Send implements Sender.
func (m *SMTPSender) Send(ctx context.Context, to, subject, body, cc, bcc string) error {
	from, err := mail.ParseAddress(m.From)
	if err != nil {
		return fmt.Errorf("smtp from %q: %w", m.From, err)
	}

	var h mail.Header
	h.SetDate(time.Now())
	h.SetAddressList("From", []*mail.Address{from})
	h.SetSubject(subject)
	h.Set("Content-Type", "text/plain; charset=utf-8")

	var rcpts []string
	for _, field := range []struct {
		key  string
		list string
	}{
		{"To", to},
		{"Cc", cc},
		{"Bcc", bcc},
	} {
		if strings.TrimSpace(field.list) == "" {
			continue
		}
		addrs, err := mail.ParseAddressList(field.list)
		if err != nil {
			return fmt.Errorf("smtp %s %q: %w", strings.ToLower(field.key), field.list, err)
		}
		// Bcc recipients get the message but never see the header.
		if field.key != "Bcc" {
			h.SetAddressList(field.key, addrs)
		}
		for _, a := range addrs {
			rcpts = append(rcpts, a.Address)
		}
	}
	if len(rcpts) == 0 {
		return fmt.Errorf("smtp: no recipients")
	}

	var msg bytes.Buffer
	if err := textproto.WriteHeader(&msg, h.Header.Header); err != nil {
		return fmt.Errorf("smtp header: %w", err)
	}
	msg.WriteString(body)

	if err := ctx.Err(); err != nil {
		return err
	}
	return smtp.SendMail(m.Addr, m.Auth, from.Address, rcpts, msg.Bytes())
}
