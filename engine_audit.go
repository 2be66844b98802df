package goCred

import (
	"context"
	"errors"
	"strings"

	"github.com/MrEthical07/goCred/notify"
)

const (
	auditEventAuthenticateSuccess      = "authenticate_success"
	auditEventAuthenticateFailure      = "authenticate_failure"
	auditEventOTPRequest               = "otp_request"
	auditEventOTPVerify                = "otp_verify"
	auditEventPasswordChange           = "password_change"
	auditEventPasswordResetRequest     = "password_reset_request"
	auditEventPasswordResetConfirm     = "password_reset_confirm"
	auditEventTwoFactorEnable          = "two_factor_enable"
	auditEventTwoFactorDisable         = "two_factor_disable"
	auditEventAccountRegister          = "account_register"
	auditEventAccountUnlock            = "account_unlock"
	auditEventAccountStatusChange      = "account_status_change"
	auditEventEmailVerificationRequest = "email_verification_request"
	auditEventEmailVerificationConfirm = "email_verification_confirm"
	auditEventPhoneVerify              = "phone_verify"
	auditEventRateLimited              = "rate_limited"
)

// AuditErrorCode is the stable error label written to [AuditEvent].Error.
type AuditErrorCode string

const (
	auditErrNotFound           AuditErrorCode = "not_found"
	auditErrAccountDisabled    AuditErrorCode = "account_disabled"
	auditErrAccountExpired     AuditErrorCode = "account_expired"
	auditErrAccountLocked      AuditErrorCode = "account_locked"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrOTPRequired        AuditErrorCode = "otp_required"
	auditErrInvalidOTP         AuditErrorCode = "invalid_otp"
	auditErrInvalidToken       AuditErrorCode = "invalid_token"
	auditErrSamePassword       AuditErrorCode = "same_password"
	auditErrPasswordPolicy     AuditErrorCode = "password_policy"
	auditErrDeliveryFailed     AuditErrorCode = "delivery_failed"
	auditErrChannelUnavailable AuditErrorCode = "channel_unavailable"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrInvalidRequest     AuditErrorCode = "invalid_request"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrConcurrentUpdate   AuditErrorCode = "concurrent_update"
	auditErrTwoFactorEnabled   AuditErrorCode = "two_factor_enabled"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	accountID int64,
	identifier string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	meta := metaFrom(ctx)
	event := AuditEvent{
		Timestamp:  e.now().UTC(),
		EventType:  eventType,
		AccountID:  formatAccountID(accountID),
		Identifier: maskIdentifier(identifier),
		IP:         meta.clientIP,
		UserAgent:  meta.userAgent,
		RequestID:  meta.requestID,
		Success:    success,
		Metadata:   metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

// maskIdentifier keeps usernames and masks email addresses.
func maskIdentifier(identifier string) string {
	if strings.Contains(identifier, "@") {
		return notify.MaskEmail(identifier)
	}
	return identifier
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return auditErrNotFound
	case errors.Is(err, ErrAccountDisabled):
		return auditErrAccountDisabled
	case errors.Is(err, ErrAccountExpired):
		return auditErrAccountExpired
	case errors.Is(err, ErrAccountLocked):
		return auditErrAccountLocked
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrOTPRequired):
		return auditErrOTPRequired
	case errors.Is(err, ErrInvalidOrExpiredOTP):
		return auditErrInvalidOTP
	case errors.Is(err, ErrInvalidOrExpiredToken),
		errors.Is(err, ErrTokenInvalid):
		return auditErrInvalidToken
	case errors.Is(err, ErrSamePassword):
		return auditErrSamePassword
	case errors.Is(err, ErrPasswordPolicy):
		return auditErrPasswordPolicy
	case errors.Is(err, ErrDeliveryFailed):
		return auditErrDeliveryFailed
	case errors.Is(err, ErrChannelUnavailable):
		return auditErrChannelUnavailable
	case errors.Is(err, ErrDuplicateAccount):
		return auditErrDuplicate
	case errors.Is(err, ErrInvalidRequest):
		return auditErrInvalidRequest
	case errors.Is(err, ErrRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrConcurrentUpdate):
		return auditErrConcurrentUpdate
	case errors.Is(err, ErrTwoFactorEnabled):
		return auditErrTwoFactorEnabled
	case errors.Is(err, ErrStoreUnavailable),
		errors.Is(err, ErrEngineNotReady):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
