package mailbox

import (
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
)

// dateLayouts are the date forms accepted by BEFORE, ON and SINCE.
var dateLayouts = []string{
	"_2-Jan-2006",
	"2-Jan-2006",
	"2 Jan 2006",
	"2 January 2006",
	"2006-01-02",
}

// ParseCriteria translates a search criteria string in the classic c-client
// language into go-imap search criteria. Keys are matched
// case-insensitively; arguments may be double quoted. RECENT, NEW and OLD
// are not available in IMAP4rev2 and are rejected.
func ParseCriteria(criteria string) (*imap.SearchCriteria, error) {
	sc := &imap.SearchCriteria{}
	t := tokenizer{s: criteria}

	for {
		key, ok := t.next()
		if !ok {
			break
		}

		switch k := strings.ToUpper(key); k {
		case "ALL":
		case "ANSWERED":
			sc.Flag = append(sc.Flag, imap.FlagAnswered)
		case "DELETED":
			sc.Flag = append(sc.Flag, imap.FlagDeleted)
		case "FLAGGED":
			sc.Flag = append(sc.Flag, imap.FlagFlagged)
		case "SEEN":
			sc.Flag = append(sc.Flag, imap.FlagSeen)
		case "UNANSWERED":
			sc.NotFlag = append(sc.NotFlag, imap.FlagAnswered)
		case "UNDELETED":
			sc.NotFlag = append(sc.NotFlag, imap.FlagDeleted)
		case "UNFLAGGED":
			sc.NotFlag = append(sc.NotFlag, imap.FlagFlagged)
		case "UNSEEN":
			sc.NotFlag = append(sc.NotFlag, imap.FlagSeen)
		case "KEYWORD", "UNKEYWORD":
			arg, err := t.arg(k)
			if err != nil {
				return nil, err
			}
			if k == "KEYWORD" {
				sc.Flag = append(sc.Flag, imap.Flag(arg))
			} else {
				sc.NotFlag = append(sc.NotFlag, imap.Flag(arg))
			}
		case "BCC", "CC", "FROM", "SUBJECT", "TO":
			arg, err := t.arg(k)
			if err != nil {
				return nil, err
			}
			sc.Header = append(sc.Header, imap.SearchCriteriaHeaderField{Key: k, Value: arg})
		case "BODY":
			arg, err := t.arg(k)
			if err != nil {
				return nil, err
			}
			sc.Body = append(sc.Body, arg)
		case "TEXT":
			arg, err := t.arg(k)
			if err != nil {
				return nil, err
			}
			sc.Text = append(sc.Text, arg)
		case "BEFORE", "ON", "SINCE":
			arg, err := t.arg(k)
			if err != nil {
				return nil, err
			}
			day, err := parseSearchDate(arg)
			if err != nil {
				return nil, fmt.Errorf("search %s: %w", k, err)
			}
			switch k {
			case "BEFORE":
				sc.Before = earliest(sc.Before, day)
			case "SINCE":
				sc.Since = latest(sc.Since, day)
			case "ON":
				sc.Since = latest(sc.Since, day)
				sc.Before = earliest(sc.Before, day.AddDate(0, 0, 1))
			}
		case "RECENT", "NEW", "OLD":
			return nil, fmt.Errorf("search key %s is not supported", k)
		default:
			return nil, fmt.Errorf("unknown search key %q", key)
		}
	}

	if t.err != nil {
		return nil, t.err
	}
	return sc, nil
}

func parseSearchDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func earliest(cur, t time.Time) time.Time {
	if cur.IsZero() || t.Before(cur) {
		return t
	}
	return cur
}

func latest(cur, t time.Time) time.Time {
	if cur.IsZero() || t.After(cur) {
		return t
	}
	return cur
}

// tokenizer splits a criteria string on spaces, keeping double quoted
// strings together. Inside quotes a backslash escapes the next byte.
type tokenizer struct {
	s   string
	i   int
	err error
}

func (t *tokenizer) next() (string, bool) {
	for t.i < len(t.s) && (t.s[t.i] == ' ' || t.s[t.i] == '\t') {
		t.i++
	}
	if t.i >= len(t.s) || t.err != nil {
		return "", false
	}

	if t.s[t.i] != '"' {
		start := t.i
		for t.i < len(t.s) && t.s[t.i] != ' ' && t.s[t.i] != '\t' {
			t.i++
		}
		return t.s[start:t.i], true
	}

	var b strings.Builder
	t.i++ // opening quote
	for t.i < len(t.s) {
		c := t.s[t.i]
		switch {
		case c == '\\' && t.i+1 < len(t.s):
			b.WriteByte(t.s[t.i+1])
			t.i += 2
		case c == '"':
			t.i++
			return b.String(), true
		default:
			b.WriteByte(c)
			t.i++
		}
	}
	t.err = fmt.Errorf("unterminated quoted string in %q", t.s)
	return "", false
}

// arg reads the argument of key.
func (t *tokenizer) arg(key string) (string, error) {
	v, ok := t.next()
	if !ok {
		if t.err != nil {
			return "", t.err
		}
		return "", fmt.Errorf("search key %s needs an argument", key)
	}
	return v, nil
}
