package mailbox

import (
	"context"
	"fmt"

	humanize "github.com/dustin/go-humanize"
)

// Attachment is a decoded top-level body part that carries a file name.
type Attachment struct {
	// Part is the 1-based body part number the content was fetched from.
	Part int
	// Filename comes from the Content-Disposition "filename" parameter.
	Filename string
	// Name comes from the Content-Type "name" parameter.
	Name     string
	Content  []byte
	Encoding Encoding
	// IsAttachment is set when either name parameter is present.
	IsAttachment bool
}

// String returns a formatted string representation of an Attachment
func (a Attachment) String() string {
	name := a.Filename
	if name == "" {
		name = a.Name
	}
	return fmt.Sprintf("%s (part %d, %s %s)", name, a.Part, a.Encoding, humanize.Bytes(uint64(len(a.Content))))
}

// GetAttachments decodes the attachments of a cached message. Only the
// top-level parts of its structure are examined; a part is an attachment
// when it has a disposition and a "filename" or "name" parameter. Parts are
// fetched lazily and kept on the message. Messages that are not cached
// yield no attachments; they are never fetched here.
//
// A part in a transfer encoding Decode does not support is returned with
// an empty payload.
func (s *Session) GetAttachments(ctx context.Context, index uint32) ([]Attachment, error) {
	m, ok := s.GetMail(index)
	if !ok || m.Structure == nil || len(m.Structure.Parts) == 0 {
		return nil, nil
	}

	var attachments []Attachment
	for i, part := range m.Structure.Parts {
		if part.Disposition == "" {
			continue
		}
		if a, ok := m.attachments[i]; ok {
			attachments = append(attachments, *a)
			continue
		}

		a := Attachment{Part: i + 1, Encoding: part.Encoding}
		if v, ok := findParam(part.DParameters, "filename"); ok {
			a.Filename = v
			a.IsAttachment = true
		}
		if v, ok := findParam(part.Parameters, "name"); ok {
			a.Name = v
			a.IsAttachment = true
		}
		if !a.IsAttachment {
			continue
		}

		if CanDecode(part.Encoding) {
			raw, err := s.fetchPart(ctx, index, a.Part)
			if err != nil {
				return attachments, err
			}
			a.Content, err = Decode(part.Encoding, raw)
			if err != nil {
				return attachments, s.fail(fmt.Errorf("mailbox attachment %d part %d: %w", index, a.Part, err))
			}
			metricAttachmentBytes.Add(float64(len(a.Content)))
		} else {
			verbose(s.log(), "attachment encoding not supported, leaving it empty",
				"index", index, "part", a.Part, "encoding", part.Encoding)
		}

		if m.attachments == nil {
			m.attachments = make(map[int]*Attachment)
		}
		m.attachments[i] = &a
		attachments = append(attachments, a)
	}

	return attachments, nil
}

// fetchPart retrieves the encoded content of one top-level body part.
func (s *Session) fetchPart(ctx context.Context, index uint32, part int) ([]byte, error) {
	if s.client == nil {
		return nil, s.fail(fmt.Errorf("mailbox attachment %d part %d: %w", index, part, ErrNotConnected))
	}
	raw, err := s.client.FetchPart(ctx, index, part, false)
	s.settle("part", err)
	if err != nil {
		return nil, s.fail(fmt.Errorf("mailbox attachment %d part %d: %w: %w", index, part, ErrFetchFailed, err))
	}
	return raw, nil
}
