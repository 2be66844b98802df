package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goCred/account"
	"github.com/MrEthical07/goCred/internal/lockout"
	"github.com/MrEthical07/goCred/internal/otp"
)

// OTPDeps captures one-time code dependencies.
type OTPDeps struct {
	Common

	Lockout lockout.Policy
	TTL     time.Duration
	Digits  int

	// Throttle returns a non-nil error when identifier has exhausted its
	// request budget. Optional.
	Throttle func(ctx context.Context, identifier, ip string) error
}

func normalizeOTPDeps(deps *OTPDeps) {
	normalizeCommon(&deps.Common)
	if deps.TTL <= 0 {
		deps.TTL = otp.DefaultTTL
	}
	if deps.Digits == 0 {
		deps.Digits = otp.DefaultDigits
	}
}

// RunRequestOTP issues a fresh code for the account behind identifier and
// hands it to the notifier. The code is persisted before delivery. Unknown,
// disabled and expired accounts get the same nil result after an
// enumeration delay and no mutation.
func RunRequestOTP(ctx context.Context, identifier string, channel account.Channel, deps OTPDeps) error {
	normalizeOTPDeps(&deps)
	if deps.Store == nil {
		return deps.Errors.EngineNotReady
	}
	if identifier == "" {
		return deps.Errors.InvalidRequest
	}
	if _, ok := account.ParseChannel(string(channel)); !ok {
		return deps.Errors.InvalidRequest
	}

	if deps.Throttle != nil {
		if err := deps.Throttle(ctx, identifier, deps.ClientIPFromContext(ctx)); err != nil {
			deps.MetricInc(deps.Metrics.RateLimited)
			deps.EmitAudit(ctx, deps.Events.RateLimited, false, 0, identifier, err, func() map[string]string {
				return map[string]string{"operation": "otp_request"}
			})
			return err
		}
	}

	acct, err := deps.Store.FindByUsernameOrEmail(ctx, identifier)
	if err != nil && !errors.Is(err, account.ErrNotFound) {
		return deps.storeError(err)
	}
	if err != nil || !acct.Enabled || !acct.AccountNonExpired {
		if sleepErr := deps.SleepEnumerationDelay(ctx); sleepErr != nil {
			return sleepErr
		}
		deps.MetricInc(deps.Metrics.OTPRequest)
		deps.EmitAudit(ctx, deps.Events.OTPRequest, true, 0, identifier, nil, func() map[string]string {
			return map[string]string{"enumeration_safe": "true"}
		})
		return nil
	}

	if channel == account.ChannelSMS && acct.PhoneNumber == "" {
		deps.EmitAudit(ctx, deps.Events.OTPRequest, false, acct.ID, identifier, deps.Errors.ChannelUnavailable, func() map[string]string {
			return map[string]string{"channel": string(channel)}
		})
		return deps.Errors.ChannelUnavailable
	}

	ch, err := otp.Issue(deps.Now(), deps.TTL, deps.Digits)
	if err != nil {
		return err
	}

	saved, err := deps.mutate(ctx, acct, func(a *account.Account) (bool, error) {
		otp.Apply(a, ch)
		return true, nil
	})
	if err != nil {
		return err
	}

	deps.MetricInc(deps.Metrics.OTPRequest)
	if err := deps.Notify.SendOTP(ctx, saved, channel, ch.Code, ch.Expiry); err != nil {
		failed := deps.deliveryFailed(saved, "otp", err)
		deps.EmitAudit(ctx, deps.Events.OTPRequest, false, saved.ID, identifier, failed, func() map[string]string {
			return map[string]string{"channel": string(channel)}
		})
		return failed
	}

	deps.EmitAudit(ctx, deps.Events.OTPRequest, true, saved.ID, identifier, nil, func() map[string]string {
		return map[string]string{"channel": string(channel)}
	})
	return nil
}

// RunVerifyOTP checks code against the outstanding code of the account
// behind identifier. A match clears the code in the same save, so the same
// code verifies at most once even under concurrent calls. A mismatch counts
// as a failed attempt.
func RunVerifyOTP(ctx context.Context, identifier, code string, deps OTPDeps) error {
	normalizeOTPDeps(&deps)
	if deps.Store == nil {
		return deps.Errors.EngineNotReady
	}
	if identifier == "" {
		return deps.Errors.NotFound
	}

	acct, err := deps.Store.FindByUsernameOrEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			deps.MetricInc(deps.Metrics.OTPVerifyFailure)
			deps.EmitAudit(ctx, deps.Events.OTPVerify, false, 0, identifier, deps.Errors.NotFound, nil)
			return deps.Errors.NotFound
		}
		return deps.storeError(err)
	}

	now := deps.Now()
	saved, err := deps.mutate(ctx, acct, func(a *account.Account) (bool, error) {
		if deps.Lockout.IsLocked(a, now) {
			deps.Lockout.OnFailure(a, now)
			return true, deps.Errors.AccountLocked
		}
		if otp.Verify(a, code, now) {
			otp.Clear(a)
			return true, nil
		}
		deps.Lockout.OnFailure(a, now)
		return true, deps.Errors.InvalidOrExpiredOTP
	})
	if err != nil {
		deps.MetricInc(deps.Metrics.OTPVerifyFailure)
		var accountID int64
		if saved != nil {
			accountID = saved.ID
		}
		deps.EmitAudit(ctx, deps.Events.OTPVerify, false, accountID, identifier, err, nil)
		return err
	}

	deps.MetricInc(deps.Metrics.OTPVerifySuccess)
	deps.EmitAudit(ctx, deps.Events.OTPVerify, true, saved.ID, identifier, nil, nil)
	return nil
}
