package notify

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/goCred/account"
)

const (
	ResetPath  = "/reset-password"
	VerifyPath = "/verify-email"
)

// Router renders messages and dispatches them by channel.
type Router struct {
	Email   EmailSender
	SMS     SMSSender
	BaseURL string
	// Now is used to render relative expiry in SMS bodies.
	Now func() time.Time
}

var defaultTemplates = parseTemplates()

func NewRouter(email EmailSender, sms SMSSender, baseURL string) *Router {
	return &Router{
		Email:   email,
		SMS:     sms,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Now:     time.Now,
	}
}

type emailData struct {
	Subject string
	Name    string
	Code    string
	Link    string
	Expiry  string
}

func (r *Router) SendOTP(ctx context.Context, acct *account.Account, channel account.Channel, code string, expiry time.Time) error {
	switch channel {
	case account.ChannelSMS:
		if r.SMS == nil || acct.PhoneNumber == "" {
			return ErrChannelUnavailable
		}
		now := time.Now
		if r.Now != nil {
			now = r.Now
		}
		minutes := int(math.Ceil(expiry.Sub(now()).Minutes()))
		if minutes < 1 {
			minutes = 1
		}
		body, err := defaultTemplates.renderSMS(struct {
			Code    string
			Minutes int
		}{code, minutes})
		if err != nil {
			return err
		}
		return r.SMS.SendSMS(ctx, acct.PhoneNumber, body)
	case account.ChannelEmail, "":
		return r.email(ctx, acct, "otp", "Your verification code", emailData{Code: code, Expiry: formatExpiry(expiry)})
	default:
		return fmt.Errorf("%w: %s", ErrChannelUnavailable, channel)
	}
}

func (r *Router) SendResetLink(ctx context.Context, acct *account.Account, token string, expiry time.Time) error {
	return r.email(ctx, acct, "reset", "Reset your password", emailData{
		Link:   r.link(ResetPath, token),
		Expiry: formatExpiry(expiry),
	})
}

func (r *Router) SendResetConfirmation(ctx context.Context, acct *account.Account) error {
	return r.email(ctx, acct, "reset_confirmation", "Your password was reset", emailData{})
}

func (r *Router) SendPasswordChanged(ctx context.Context, acct *account.Account) error {
	return r.email(ctx, acct, "password_changed", "Your password was changed", emailData{})
}

func (r *Router) SendVerification(ctx context.Context, acct *account.Account, token string, expiry time.Time) error {
	return r.email(ctx, acct, "verification", "Confirm your email address", emailData{
		Link:   r.link(VerifyPath, token),
		Expiry: formatExpiry(expiry),
	})
}

func (r *Router) SendWelcome(ctx context.Context, acct *account.Account) error {
	return r.email(ctx, acct, "welcome", "Welcome", emailData{})
}

func (r *Router) email(ctx context.Context, acct *account.Account, name, subject string, data emailData) error {
	if r.Email == nil || acct.Email == "" {
		return ErrChannelUnavailable
	}
	data.Subject = subject
	data.Name = acct.DisplayName()
	body, err := defaultTemplates.renderEmail(name, data)
	if err != nil {
		return err
	}
	return r.Email.SendEmail(ctx, acct.Email, subject, body)
}

func (r *Router) link(path, token string) string {
	return r.BaseURL + path + "?token=" + url.QueryEscape(token)
}

func formatExpiry(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04 UTC")
}

var _ Notifier = (*Router)(nil)
