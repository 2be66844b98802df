package internaldefs

import (
	goCred "github.com/MrEthical07/goCred"
)

// CounterDef names one engine counter for export.
type CounterDef struct {
	ID   goCred.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for export.
type HistogramDef struct {
	ID   goCred.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: goCred.MetricAuthenticateSuccess, Name: "gocred_authenticate_success_total", Help: "Successful authentications."},
	{ID: goCred.MetricAuthenticateFailure, Name: "gocred_authenticate_failure_total", Help: "Authentications rejected after account lookup."},
	{ID: goCred.MetricAuthenticateLocked, Name: "gocred_authenticate_locked_total", Help: "Authentications rejected because the account is locked."},
	{ID: goCred.MetricAuthenticateNotFound, Name: "gocred_authenticate_not_found_total", Help: "Authentications for unknown identifiers."},
	{ID: goCred.MetricOTPRequest, Name: "gocred_otp_request_total", Help: "One-time codes issued."},
	{ID: goCred.MetricOTPVerifySuccess, Name: "gocred_otp_verify_success_total", Help: "Accepted one-time codes."},
	{ID: goCred.MetricOTPVerifyFailure, Name: "gocred_otp_verify_failure_total", Help: "Rejected one-time codes."},
	{ID: goCred.MetricPasswordChangeSuccess, Name: "gocred_password_change_success_total", Help: "Successful password changes."},
	{ID: goCred.MetricPasswordChangeFailure, Name: "gocred_password_change_failure_total", Help: "Rejected password changes."},
	{ID: goCred.MetricPasswordResetRequest, Name: "gocred_password_reset_request_total", Help: "Password reset tokens issued."},
	{ID: goCred.MetricPasswordResetSuccess, Name: "gocred_password_reset_success_total", Help: "Completed password resets."},
	{ID: goCred.MetricPasswordResetFailure, Name: "gocred_password_reset_failure_total", Help: "Rejected password resets."},
	{ID: goCred.MetricTwoFactorEnable, Name: "gocred_two_factor_enable_total", Help: "Two-factor enrollments."},
	{ID: goCred.MetricTwoFactorDisable, Name: "gocred_two_factor_disable_total", Help: "Two-factor removals."},
	{ID: goCred.MetricAccountRegister, Name: "gocred_account_register_total", Help: "Registered accounts."},
	{ID: goCred.MetricAccountUnlock, Name: "gocred_account_unlock_total", Help: "Administrative unlocks."},
	{ID: goCred.MetricEmailVerificationRequest, Name: "gocred_email_verification_request_total", Help: "Email verification tokens issued."},
	{ID: goCred.MetricEmailVerificationSuccess, Name: "gocred_email_verification_success_total", Help: "Verified email addresses."},
	{ID: goCred.MetricDeliveryFailure, Name: "gocred_delivery_failure_total", Help: "Notifier delivery failures."},
	{ID: goCred.MetricRateLimited, Name: "gocred_rate_limited_total", Help: "Requests denied by a throttle."},
	{ID: goCred.MetricConcurrentRetry, Name: "gocred_concurrent_retry_total", Help: "Store writes retried after a version conflict."},
	{ID: goCred.MetricHashUpgrade, Name: "gocred_hash_upgrade_total", Help: "Password digests rehashed on login."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goCred.MetricAuthenticateLatency, Name: "gocred_authenticate_latency_seconds", Help: "Authenticate latency."},
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const AuditDroppedName = "gocred_audit_dropped_total"

// AuditDroppedHelp describes [AuditDroppedName].
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."

// HistogramUpperBounds are the finite bucket bounds in seconds. The last
// engine bucket is +Inf.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket for exporters without native
// histogram bucket labels.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the engine bucket layout.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
