package flows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goCred/account"
	"github.com/MrEthical07/goCred/notify"
	"github.com/MrEthical07/goCred/password"
	"go.uber.org/zap"
)

// maxRetries bounds the read-modify-write loop per operation.
const maxRetries = 4

// Metrics carries metric IDs used by flows.
type Metrics struct {
	AuthSuccess              int
	AuthFailure              int
	AuthLocked               int
	AuthNotFound             int
	OTPRequest               int
	OTPVerifySuccess         int
	OTPVerifyFailure         int
	PasswordChangeSuccess    int
	PasswordChangeFailure    int
	PasswordResetRequest     int
	PasswordResetSuccess     int
	PasswordResetFailure     int
	TwoFactorEnable          int
	TwoFactorDisable         int
	AccountRegister          int
	AccountUnlock            int
	EmailVerificationRequest int
	EmailVerificationSuccess int
	DeliveryFailure          int
	RateLimited              int
	ConcurrentRetry          int
	HashUpgrade              int
}

// Events carries audit event names used by flows.
type Events struct {
	AuthSuccess              string
	AuthFailure              string
	OTPRequest               string
	OTPVerify                string
	PasswordChange           string
	PasswordResetRequest     string
	PasswordResetConfirm     string
	TwoFactorEnable          string
	TwoFactorDisable         string
	AccountRegister          string
	AccountUnlock            string
	AccountStatusChange      string
	EmailVerificationRequest string
	EmailVerificationConfirm string
	PhoneVerify              string
	RateLimited              string
}

// Errors carries host-level sentinel errors returned by flows.
type Errors struct {
	EngineNotReady        error
	NotFound              error
	AccountDisabled       error
	AccountExpired        error
	AccountLocked         error
	InvalidCredentials    error
	OTPRequired           error
	InvalidOrExpiredOTP   error
	InvalidOrExpiredToken error
	SamePassword          error
	PasswordPolicy        error
	DeliveryFailed        error
	ChannelUnavailable    error
	DuplicateAccount      error
	InvalidRequest        error
	RateLimited           error
	ConcurrentUpdate      error
	StoreUnavailable      error
	TwoFactorEnabled      error
}

// Common is embedded in every flow dependency set.
type Common struct {
	Store  account.Store
	Hasher password.Hasher
	Notify notify.Notifier
	Logger *zap.Logger
	Now    func() time.Time

	MinPasswordLength int

	// SleepEnumerationDelay pads unknown-account paths to the latency of
	// known-account paths.
	SleepEnumerationDelay func(context.Context) error
	ClientIPFromContext   func(context.Context) string

	MetricInc func(int)
	EmitAudit func(ctx context.Context, eventType string, success bool, accountID int64, identifier string, err error, meta func() map[string]string)

	Metrics Metrics
	Events  Events
	Errors  Errors
}

func normalizeCommon(c *Common) {
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Notify == nil {
		c.Notify = notify.Nop{}
	}
	if c.SleepEnumerationDelay == nil {
		c.SleepEnumerationDelay = func(context.Context) error { return nil }
	}
	if c.ClientIPFromContext == nil {
		c.ClientIPFromContext = func(context.Context) string { return "" }
	}
	if c.MetricInc == nil {
		c.MetricInc = func(int) {}
	}
	if c.EmitAudit == nil {
		c.EmitAudit = func(context.Context, string, bool, int64, string, error, func() map[string]string) {}
	}
}

func (c *Common) ready() bool {
	return c.Store != nil && c.Hasher != nil
}

// storeError maps a store failure onto the host taxonomy. Context errors
// pass through untouched.
func (c *Common) storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, account.ErrNotFound):
		return c.Errors.NotFound
	case errors.Is(err, account.ErrDuplicate):
		return c.Errors.DuplicateAccount
	default:
		return fmt.Errorf("%w: %v", c.Errors.StoreUnavailable, err)
	}
}

// checkPassword applies the length policy. The hasher enforces the upper
// bound.
func (c *Common) checkPassword(plaintext string) error {
	if plaintext == "" || len(plaintext) < c.MinPasswordLength {
		return c.Errors.PasswordPolicy
	}
	return nil
}

func (c *Common) hash(plaintext string) (string, error) {
	digest, err := c.Hasher.Hash(plaintext)
	if err != nil {
		if errors.Is(err, password.ErrPasswordTooLong) || errors.Is(err, password.ErrEmptyPassword) {
			return "", c.Errors.PasswordPolicy
		}
		return "", err
	}
	return digest, nil
}

// verify reports a mismatch for digests the hasher cannot parse.
func (c *Common) verify(plaintext, digest string) bool {
	ok, err := c.Hasher.Verify(plaintext, digest)
	return err == nil && ok
}

// deliveryFailed logs err, counts it and wraps it in the DeliveryFailed
// sentinel.
func (c *Common) deliveryFailed(acct *account.Account, what string, err error) error {
	c.MetricInc(c.Metrics.DeliveryFailure)
	c.Logger.Warn("notification delivery failed",
		zap.Int64("account_id", acct.ID),
		zap.String("notification", what),
		zap.Error(err),
	)
	return fmt.Errorf("%w: %v", c.Errors.DeliveryFailed, err)
}

// mutate runs fn against a copy of the account and saves the copy when fn
// reports a change. On a version conflict the account is reloaded and fn is
// evaluated again, so every decision fn makes is taken on the stored state
// it ends up overwriting. fn's error is returned after the save succeeds;
// when fn reports no change the error is returned without saving.
func (c *Common) mutate(ctx context.Context, initial *account.Account, fn func(a *account.Account) (bool, error)) (*account.Account, error) {
	current := initial
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			c.MetricInc(c.Metrics.ConcurrentRetry)
			fresh, err := c.Store.FindByID(ctx, initial.ID)
			if err != nil {
				return nil, c.storeError(err)
			}
			current = fresh
		}

		next := current.Clone()
		changed, outcome := fn(next)
		if !changed {
			return current, outcome
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next.UpdatedAt = c.Now()
		saved, err := c.Store.Save(ctx, next)
		if errors.Is(err, account.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, c.storeError(err)
		}
		return saved, outcome
	}
	return nil, c.Errors.ConcurrentUpdate
}
