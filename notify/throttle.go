package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/MrEthical07/goCred/account"
	"golang.org/x/time/rate"
)

// Throttled shapes outbound delivery to a provider's sending rate. Calls
// wait for a token; a cancelled context surfaces as a delivery error.
type Throttled struct {
	next    Notifier
	limiter *rate.Limiter
}

// NewThrottled allows perSecond sends with the given burst.
func NewThrottled(next Notifier, perSecond float64, burst int) *Throttled {
	if burst <= 0 {
		burst = 1
	}
	return &Throttled{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (t *Throttled) wait(ctx context.Context) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("notify throttle: %w", err)
	}
	return nil
}

func (t *Throttled) SendOTP(ctx context.Context, acct *account.Account, channel account.Channel, code string, expiry time.Time) error {
	if err := t.wait(ctx); err != nil {
		return err
	}
	return t.next.SendOTP(ctx, acct, channel, code, expiry)
}

func (t *Throttled) SendResetLink(ctx context.Context, acct *account.Account, token string, expiry time.Time) error {
	if err := t.wait(ctx); err != nil {
		return err
	}
	return t.next.SendResetLink(ctx, acct, token, expiry)
}

func (t *Throttled) SendResetConfirmation(ctx context.Context, acct *account.Account) error {
	if err := t.wait(ctx); err != nil {
		return err
	}
	return t.next.SendResetConfirmation(ctx, acct)
}

func (t *Throttled) SendPasswordChanged(ctx context.Context, acct *account.Account) error {
	if err := t.wait(ctx); err != nil {
		return err
	}
	return t.next.SendPasswordChanged(ctx, acct)
}

func (t *Throttled) SendVerification(ctx context.Context, acct *account.Account, token string, expiry time.Time) error {
	if err := t.wait(ctx); err != nil {
		return err
	}
	return t.next.SendVerification(ctx, acct, token, expiry)
}

func (t *Throttled) SendWelcome(ctx context.Context, acct *account.Account) error {
	if err := t.wait(ctx); err != nil {
		return err
	}
	return t.next.SendWelcome(ctx, acct)
}

var _ Notifier = (*Throttled)(nil)
