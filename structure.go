package mailbox

import (
	"sort"
	"strings"

	"github.com/emersion/go-imap/v2"
)

// Encoding is a body part's Content-Transfer-Encoding.
type Encoding uint8

const (
	Enc7Bit Encoding = iota
	Enc8Bit
	EncBinary
	EncBase64
	EncQuotedPrintable
	EncOther
)

// ParseEncoding maps a Content-Transfer-Encoding value to an Encoding. An
// empty value is 7BIT, anything unknown is EncOther.
func ParseEncoding(s string) Encoding {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "7BIT":
		return Enc7Bit
	case "8BIT":
		return Enc8Bit
	case "BINARY":
		return EncBinary
	case "BASE64":
		return EncBase64
	case "QUOTED-PRINTABLE":
		return EncQuotedPrintable
	}
	return EncOther
}

func (e Encoding) String() string {
	switch e {
	case Enc7Bit:
		return "7BIT"
	case Enc8Bit:
		return "8BIT"
	case EncBinary:
		return "BINARY"
	case EncBase64:
		return "BASE64"
	case EncQuotedPrintable:
		return "QUOTED-PRINTABLE"
	}
	return "OTHER"
}

// Param is one attribute/value pair of a Content-Type or
// Content-Disposition header.
type Param struct {
	Attribute string
	Value     string
}

// Structure is a node of a message's MIME tree.
type Structure struct {
	Type        string
	Subtype     string
	Disposition string
	// DParameters are the Content-Disposition parameters.
	DParameters []Param
	// Parameters are the Content-Type parameters.
	Parameters []Param
	Encoding   Encoding
	Size       uint32
	Parts      []*Structure
}

// findParam returns the value of the first parameter named attr, matched
// case-insensitively.
func findParam(params []Param, attr string) (string, bool) {
	for _, p := range params {
		if strings.EqualFold(p.Attribute, attr) {
			return p.Value, true
		}
	}
	return "", false
}

// paramList turns a parameter map into a list sorted by attribute.
func paramList(m map[string]string) []Param {
	if len(m) == 0 {
		return nil
	}
	params := make([]Param, 0, len(m))
	for k, v := range m {
		params = append(params, Param{Attribute: k, Value: v})
	}
	sort.Slice(params, func(i, j int) bool { return params[i].Attribute < params[j].Attribute })
	return params
}

// structureFromIMAP converts a BODYSTRUCTURE returned by go-imap.
func structureFromIMAP(bs imap.BodyStructure) *Structure {
	switch bs := bs.(type) {
	case *imap.BodyStructureSinglePart:
		s := &Structure{
			Type:       strings.ToLower(bs.Type),
			Subtype:    strings.ToLower(bs.Subtype),
			Parameters: paramList(bs.Params),
			Encoding:   ParseEncoding(bs.Encoding),
			Size:       bs.Size,
		}
		if bs.Extended != nil && bs.Extended.Disposition != nil {
			s.Disposition = strings.ToLower(bs.Extended.Disposition.Value)
			s.DParameters = paramList(bs.Extended.Disposition.Params)
		}
		return s
	case *imap.BodyStructureMultiPart:
		s := &Structure{
			Type:    "multipart",
			Subtype: strings.ToLower(bs.Subtype),
		}
		if bs.Extended != nil {
			s.Parameters = paramList(bs.Extended.Params)
			if bs.Extended.Disposition != nil {
				s.Disposition = strings.ToLower(bs.Extended.Disposition.Value)
				s.DParameters = paramList(bs.Extended.Disposition.Params)
			}
		}
		for _, child := range bs.Children {
			if c := structureFromIMAP(child); c != nil {
				s.Parts = append(s.Parts, c)
			}
		}
		return s
	}
	return nil
}
