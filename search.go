package mailbox

import (
	"context"
	"fmt"
)

// SearchMail runs criteria against the selected folder and returns the
// matching indices. The criteria string is handed to the Client as is, for
// example "UNSEEN SINCE 1-Jan-2024" or `SUBJECT "invoice" FROM bob`.
func (s *Session) SearchMail(ctx context.Context, criteria string) ([]uint32, error) {
	if s.client == nil {
		return nil, s.fail(fmt.Errorf("mailbox search: %w", ErrNotConnected))
	}

	indices, err := s.client.Search(ctx, criteria)
	s.settle("search", err)
	if err != nil {
		return nil, s.fail(fmt.Errorf("mailbox search %q: %w: %w", criteria, ErrSearchFailed, err))
	}
	verbose(s.log(), "search complete", "criteria", criteria, "matches", len(indices))
	return indices, nil
}

// unreadCriteria builds the search for unread messages, optionally limited
// to one sender.
func unreadCriteria(from string) string {
	if from == "" {
		return "UNSEEN"
	}
	return "UNSEEN FROM " + from
}

// GetUnreadMessages searches for unread messages, optionally only those
// from a sender, and replaces the message cache with exactly the matches.
// Bodies are not fetched.
func (s *Session) GetUnreadMessages(ctx context.Context, from string) ([]*Message, error) {
	indices, err := s.SearchMail(ctx, unreadCriteria(from))
	if err != nil {
		return nil, err
	}

	results, err := s.fetch(ctx, indices, FetchItems{Header: true, Structure: true})
	if err != nil {
		return nil, err
	}

	s.replaceCache(results)
	return s.Messages(), nil
}
