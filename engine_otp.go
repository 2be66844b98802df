package goCred

import (
	"context"

	internalflows "github.com/MrEthical07/goCred/internal/flows"
)

// RequestOTP issues a fresh one-time code for the account behind
// identifier and delivers it on channel. Re-issuing overwrites any
// outstanding code.
//
// An unknown, disabled or expired account returns nil after the same
// bounded delay, so the response does not reveal whether the account
// exists. ErrChannelUnavailable is returned before any change when sms is
// requested for an account without a phone number. ErrDeliveryFailed means
// the code was stored but not delivered; calling again is safe.
func (e *Engine) RequestOTP(ctx context.Context, identifier string, channel Channel) error {
	return internalflows.RunRequestOTP(ctx, identifier, channel, e.otpFlowDeps())
}

// VerifyOTP checks code against the account's outstanding code. A match
// clears the code, so a code verifies at most once even when two calls race.
// A mismatch counts toward the lock.
func (e *Engine) VerifyOTP(ctx context.Context, identifier, code string) error {
	return internalflows.RunVerifyOTP(ctx, identifier, code, e.otpFlowDeps())
}

func (e *Engine) otpFlowDeps() internalflows.OTPDeps {
	deps := internalflows.OTPDeps{Common: e.common()}
	if e == nil {
		return deps
	}
	deps.Lockout = e.lockout
	deps.TTL = e.config.OTP.TTL
	deps.Digits = e.config.OTP.Digits
	if e.limiter != nil {
		deps.Throttle = func(ctx context.Context, identifier, ip string) error {
			return e.throttled(e.limiter.AllowOTPRequest(ctx, identifier, ip))
		}
	}
	return deps
}
