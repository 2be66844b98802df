package goCred

import (
	"errors"

	"github.com/MrEthical07/goCred/notify"
)

var (
	// ErrNotFound is returned when no account matches the identifier.
	ErrNotFound = errors.New("account not found")
	// ErrAccountDisabled is returned for accounts switched off by an administrator.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrAccountExpired is returned for accounts past their validity period.
	ErrAccountExpired = errors.New("account expired")
	// ErrAccountLocked is returned while a lockout is in effect.
	ErrAccountLocked = errors.New("account locked")
	// ErrInvalidCredentials is returned when the password does not verify.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrOTPRequired is returned when two-factor is on and no code was supplied.
	ErrOTPRequired = errors.New("one-time code required")
	// ErrInvalidOrExpiredOTP covers a wrong, consumed or expired one-time code.
	ErrInvalidOrExpiredOTP = errors.New("invalid or expired one-time code")
	// ErrInvalidOrExpiredToken covers an unknown, consumed or expired reset or verification token.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	// ErrSamePassword is returned when the new password equals the current one.
	ErrSamePassword = errors.New("new password must be different from current password")
	// ErrDeliveryFailed is returned when state was saved but the notifier failed.
	ErrDeliveryFailed = errors.New("notification delivery failed")

	// ErrChannelUnavailable is returned when the account cannot receive on the requested channel.
	ErrChannelUnavailable = notify.ErrChannelUnavailable
	// ErrDuplicateAccount is returned when the username or email is taken.
	ErrDuplicateAccount = errors.New("account already exists")
	// ErrInvalidRequest is returned for malformed input.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrPasswordPolicy is returned when a new password is too short or too long.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrTwoFactorEnabled is returned by EnableTwoFactor when a secret is already set.
	ErrTwoFactorEnabled = errors.New("two-factor already enabled")
	// ErrRateLimited is returned when a request throttle budget is exhausted.
	ErrRateLimited = errors.New("rate limited")
	// ErrConcurrentUpdate is returned after repeated version conflicts on one account.
	ErrConcurrentUpdate = errors.New("concurrent update")
	// ErrTokenInvalid is returned by ParseIdentity.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrEngineNotReady is returned by a zero or partially built Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrStoreUnavailable wraps credential store failures. It is the only
	// fatal class.
	ErrStoreUnavailable = errors.New("credential store unavailable")
)
