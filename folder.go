package mailbox

import (
	"context"
	"fmt"
	"strings"
)

// Mailbox returns the name of the selected folder, "" when disconnected.
func (s *Session) Mailbox() string {
	return s.folder
}

// ListMailboxes returns every folder under the account root. When the
// session is not connected it returns ErrNotConnected without contacting
// the server; a server failure returns nil and an error wrapping
// ErrListFailed.
func (s *Session) ListMailboxes(ctx context.Context) ([]string, error) {
	if s.client == nil {
		return nil, fmt.Errorf("mailbox list: %w", ErrNotConnected)
	}

	folders, err := s.client.List(ctx, "*")
	s.settle("list", err)
	if err != nil {
		s.log().Warn("folder list failed", "error", err)
		return nil, s.fail(fmt.Errorf("mailbox list: %w: %w", ErrListFailed, err))
	}
	return folders, nil
}

// ChangeMailbox selects folder on the existing connection. On success the
// message cache is dropped, since its indices belong to the old folder.
func (s *Session) ChangeMailbox(ctx context.Context, folder string) error {
	if s.client == nil {
		s.lastError = msgChangeMailboxFailed
		return fmt.Errorf("mailbox change %q: %w: %w", folder, ErrFolderSelectFailed, ErrNotConnected)
	}

	err := s.client.Select(ctx, folder, s.readOnly)
	s.settle("select", err)
	if err != nil {
		s.log().Warn("failed to change mailbox", "target", folder, "error", err)
		s.lastError = msgChangeMailboxFailed
		return fmt.Errorf("mailbox change %q: %w: %w", folder, ErrFolderSelectFailed, err)
	}

	s.folder = folder
	s.cache = nil
	s.count = 0
	return nil
}

// SelectMailbox changes to the first folder whose name contains substr,
// ignoring case.
func (s *Session) SelectMailbox(ctx context.Context, substr string) error {
	folders, err := s.ListMailboxes(ctx)
	if err != nil {
		return fmt.Errorf("mailbox select %q: %w: %w", substr, ErrFolderSelectFailed, err)
	}

	folder, ok := matchFolder(folders, substr)
	if !ok {
		return s.fail(fmt.Errorf("mailbox select %q: %w: no matching folder", substr, ErrFolderSelectFailed))
	}
	return s.ChangeMailbox(ctx, folder)
}

// matchFolder returns the first folder containing substr, ignoring case.
func matchFolder(folders []string, substr string) (string, bool) {
	needle := strings.ToLower(substr)
	for _, f := range folders {
		if strings.Contains(strings.ToLower(f), needle) {
			return f, true
		}
	}
	return "", false
}
