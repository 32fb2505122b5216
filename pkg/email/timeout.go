package email

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type timeoutSender struct {
	next    EmailSender
	timeout time.Duration
}

// WithTimeout bounds every SendEmail call of next by d.
// A send that runs past the deadline fails with ErrSendTimeout even if the
// underlying provider ignores context cancellation.
func WithTimeout(next EmailSender, d time.Duration) EmailSender {
	if d <= 0 {
		return next
	}
	return &timeoutSender{next: next, timeout: d}
}

func (s *timeoutSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic during send: %v", r)
			}
		}()
		done <- s.next.SendEmail(ctx, params)
	}()

	select {
	case err := <-done:
		if err != nil && errors.Is(err, context.DeadlineExceeded) {
			return errors.Join(ErrSendTimeout, err)
		}
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: no response after %s", ErrSendTimeout, s.timeout)
		}
		return ctx.Err()
	}
}
