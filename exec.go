package mailbox

import (
	"context"

	"github.com/emersion/go-imap/v2/imapclient"
)

// run executes one blocking command. If ctx ends (or CommandTimeout
// elapses) first, the connection is closed so the command fails instead of
// hanging, and the context error is returned.
func run(ctx context.Context, c *imapclient.Client, fn func() error) error {
	if CommandTimeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, CommandTimeout)
		defer cancel()
	}
	if ctx.Done() == nil {
		return fn()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		_ = c.Close()
		<-done
		return ctx.Err()
	}
}
