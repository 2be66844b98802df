package goCred

import "errors"

const (
	msgLoginFailed      = "Invalid username or password."
	msgAccountLocked    = "Too many failed attempts. Try again later."
	msgOTPRequired      = "A verification code is required."
	msgInvalidOTP       = "The verification code is invalid or has expired."
	msgInvalidToken     = "The link is invalid or has expired."
	msgSamePassword     = "The new password must differ from the current one."
	msgPasswordPolicy   = "The password does not meet the requirements."
	msgDeliveryFailed   = "We could not send the message. Please try again."
	msgChannel          = "This delivery method is not available for your account."
	msgDuplicate        = "An account with these details already exists."
	msgInvalidRequest   = "The request is invalid."
	msgRateLimited      = "Too many requests. Try again later."
	msgTwoFactorEnabled = "Two-factor authentication is already enabled."
	msgUnavailable      = "The service is temporarily unavailable."
)

// PublicMessage returns a user-facing message for err. Unknown accounts,
// disabled or expired accounts and wrong passwords share one message so a
// caller cannot tell them apart; lock, code and token failures stay
// distinct. Returns "" for nil.
func PublicMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrAccountDisabled),
		errors.Is(err, ErrAccountExpired),
		errors.Is(err, ErrInvalidCredentials):
		return msgLoginFailed
	case errors.Is(err, ErrAccountLocked):
		return msgAccountLocked
	case errors.Is(err, ErrOTPRequired):
		return msgOTPRequired
	case errors.Is(err, ErrInvalidOrExpiredOTP):
		return msgInvalidOTP
	case errors.Is(err, ErrInvalidOrExpiredToken),
		errors.Is(err, ErrTokenInvalid):
		return msgInvalidToken
	case errors.Is(err, ErrSamePassword):
		return msgSamePassword
	case errors.Is(err, ErrPasswordPolicy):
		return msgPasswordPolicy
	case errors.Is(err, ErrDeliveryFailed):
		return msgDeliveryFailed
	case errors.Is(err, ErrChannelUnavailable):
		return msgChannel
	case errors.Is(err, ErrDuplicateAccount):
		return msgDuplicate
	case errors.Is(err, ErrInvalidRequest):
		return msgInvalidRequest
	case errors.Is(err, ErrRateLimited):
		return msgRateLimited
	case errors.Is(err, ErrTwoFactorEnabled):
		return msgTwoFactorEnabled
	default:
		return msgUnavailable
	}
}
