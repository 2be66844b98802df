// Package notify delivers one-time codes, reset links and account notices.
//
// The engine depends only on [Notifier]. [Router] is the stock
// implementation: it renders messages from templates and hands them to an
// [EmailSender] or [SMSSender]. notify/kafka publishes the same messages as
// events for an external delivery service.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goCred/account"
)

var (
	// ErrChannelUnavailable is returned when no sender or address exists for
	// the requested channel.
	ErrChannelUnavailable = errors.New("notification channel unavailable")
)

// Notifier is the outbound delivery boundary. Implementations receive a copy
// of the account and must not retain it.
type Notifier interface {
	SendOTP(ctx context.Context, acct *account.Account, channel account.Channel, code string, expiry time.Time) error
	SendResetLink(ctx context.Context, acct *account.Account, token string, expiry time.Time) error
	SendResetConfirmation(ctx context.Context, acct *account.Account) error
	SendPasswordChanged(ctx context.Context, acct *account.Account) error
	SendVerification(ctx context.Context, acct *account.Account, token string, expiry time.Time) error
	SendWelcome(ctx context.Context, acct *account.Account) error
}

// EmailSender transmits one HTML email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
}

// SMSSender transmits one text message.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Nop discards every notification.
type Nop struct{}

func (Nop) SendOTP(context.Context, *account.Account, account.Channel, string, time.Time) error {
	return nil
}
func (Nop) SendResetLink(context.Context, *account.Account, string, time.Time) error    { return nil }
func (Nop) SendResetConfirmation(context.Context, *account.Account) error               { return nil }
func (Nop) SendPasswordChanged(context.Context, *account.Account) error                 { return nil }
func (Nop) SendVerification(context.Context, *account.Account, string, time.Time) error { return nil }
func (Nop) SendWelcome(context.Context, *account.Account) error                         { return nil }
