package goCred

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/MrEthical07/goCred/account"
	"github.com/MrEthical07/goCred/internal"
	internalaudit "github.com/MrEthical07/goCred/internal/audit"
	internalflows "github.com/MrEthical07/goCred/internal/flows"
	"github.com/MrEthical07/goCred/internal/lockout"
	internalmetrics "github.com/MrEthical07/goCred/internal/metrics"
	"github.com/MrEthical07/goCred/internal/otp"
	"github.com/MrEthical07/goCred/internal/rate"
	"github.com/MrEthical07/goCred/jwt"
	"github.com/MrEthical07/goCred/notify"
	"github.com/MrEthical07/goCred/password"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
)

// Engine owns the credential lifecycle. It keeps no per-request or session
// state; all account state lives in the store. Engine methods are safe for
// concurrent use after [Builder.Build].
type Engine struct {
	config      Config
	store       account.Store
	hasher      password.Hasher
	notifier    notify.Notifier
	logger      *zap.Logger
	lockout     lockout.Policy
	dummyDigest string
	ids         *snowflake.Node
	tokens      *jwt.Manager
	limiter     *rate.Limiter
	audit       *internalaudit.Dispatcher
	auditFile   *internalaudit.RotatingFileSink
	metrics     *internalmetrics.Set
	now         func() time.Time
}

// Close drains the audit dispatcher and closes any audit file.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
	if e.auditFile != nil {
		if err := e.auditFile.Close(); err != nil {
			e.logger.Warn("close audit file", zap.Error(err))
		}
	}
}

// AuditDropped returns the number of audit events dropped because the
// buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of all counters and the authenticate
// latency histogram.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return snapshotMetrics(nil)
	}
	return snapshotMetrics(e.metrics)
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(int(id))
}

// Authenticate decides whether identifier (username or email), password
// and an optional one-time code grant a session. otpCode == "" means no
// code was presented.
//
// Checks run in order: the account exists, is enabled, is not expired, is
// not locked, the password verifies and, with two-factor on, the code
// verifies. Every failure after the lookup counts toward the lock; an
// unknown identifier changes nothing.
//
// The identity token is signed after the outcome is saved. Build refuses a
// token config without signing material, so a signing error here means the
// key itself is broken; the login stays recorded and the error is returned.
func (e *Engine) Authenticate(ctx context.Context, identifier, password, otpCode string) (*AuthResult, error) {
	start := time.Now()
	out, err := internalflows.RunAuthenticate(ctx, identifier, password, otpCode, e.authenticateFlowDeps())
	if e != nil && e.metrics != nil {
		e.metrics.Observe(int(MetricAuthenticateLatency), time.Since(start))
	}
	if err != nil {
		return nil, err
	}

	result := &AuthResult{
		Account:                out.Account,
		Identity:               identityOf(out.Account),
		PasswordChangeRequired: !out.Account.CredentialsCurrent,
		SecondFactor:           out.SecondFactor,
	}
	if e.tokens != nil {
		token, expiry, err := e.tokens.Issue(jwt.Subject{
			AccountID:              out.Account.ID,
			Username:               out.Account.Username,
			Role:                   string(out.Account.Role),
			PasswordChangeRequired: result.PasswordChangeRequired,
		}, e.now())
		if err != nil {
			return nil, err
		}
		result.Token = token
		result.TokenExpiry = expiry
	}
	return result, nil
}

func identityOf(a *account.Account) Identity {
	return Identity{
		AccountID:              a.ID,
		Username:               a.Username,
		Role:                   a.Role,
		PasswordChangeRequired: !a.CredentialsCurrent,
	}
}

func (e *Engine) authenticateFlowDeps() internalflows.AuthenticateDeps {
	deps := internalflows.AuthenticateDeps{Common: e.common()}
	if e == nil {
		return deps
	}
	deps.Lockout = e.lockout
	deps.UpgradeOnLogin = e.config.Password.UpgradeOnLogin
	deps.AcceptTOTP = e.config.OTP.AcceptTOTP
	deps.TOTP = e.totpConfig()
	deps.DummyDigest = e.dummyDigest
	return deps
}

func (e *Engine) totpConfig() otp.TOTPConfig {
	return otp.TOTPConfig{
		Issuer: e.config.OTP.Issuer,
		Period: e.config.OTP.Period,
		Skew:   e.config.OTP.Skew,
	}
}

var (
	flowMetrics = internalflows.Metrics{
		AuthSuccess:              int(MetricAuthenticateSuccess),
		AuthFailure:              int(MetricAuthenticateFailure),
		AuthLocked:               int(MetricAuthenticateLocked),
		AuthNotFound:             int(MetricAuthenticateNotFound),
		OTPRequest:               int(MetricOTPRequest),
		OTPVerifySuccess:         int(MetricOTPVerifySuccess),
		OTPVerifyFailure:         int(MetricOTPVerifyFailure),
		PasswordChangeSuccess:    int(MetricPasswordChangeSuccess),
		PasswordChangeFailure:    int(MetricPasswordChangeFailure),
		PasswordResetRequest:     int(MetricPasswordResetRequest),
		PasswordResetSuccess:     int(MetricPasswordResetSuccess),
		PasswordResetFailure:     int(MetricPasswordResetFailure),
		TwoFactorEnable:          int(MetricTwoFactorEnable),
		TwoFactorDisable:         int(MetricTwoFactorDisable),
		AccountRegister:          int(MetricAccountRegister),
		AccountUnlock:            int(MetricAccountUnlock),
		EmailVerificationRequest: int(MetricEmailVerificationRequest),
		EmailVerificationSuccess: int(MetricEmailVerificationSuccess),
		DeliveryFailure:          int(MetricDeliveryFailure),
		RateLimited:              int(MetricRateLimited),
		ConcurrentRetry:          int(MetricConcurrentRetry),
		HashUpgrade:              int(MetricHashUpgrade),
	}

	flowEvents = internalflows.Events{
		AuthSuccess:              auditEventAuthenticateSuccess,
		AuthFailure:              auditEventAuthenticateFailure,
		OTPRequest:               auditEventOTPRequest,
		OTPVerify:                auditEventOTPVerify,
		PasswordChange:           auditEventPasswordChange,
		PasswordResetRequest:     auditEventPasswordResetRequest,
		PasswordResetConfirm:     auditEventPasswordResetConfirm,
		TwoFactorEnable:          auditEventTwoFactorEnable,
		TwoFactorDisable:         auditEventTwoFactorDisable,
		AccountRegister:          auditEventAccountRegister,
		AccountUnlock:            auditEventAccountUnlock,
		AccountStatusChange:      auditEventAccountStatusChange,
		EmailVerificationRequest: auditEventEmailVerificationRequest,
		EmailVerificationConfirm: auditEventEmailVerificationConfirm,
		PhoneVerify:              auditEventPhoneVerify,
		RateLimited:              auditEventRateLimited,
	}

	flowErrors = internalflows.Errors{
		EngineNotReady:        ErrEngineNotReady,
		NotFound:              ErrNotFound,
		AccountDisabled:       ErrAccountDisabled,
		AccountExpired:        ErrAccountExpired,
		AccountLocked:         ErrAccountLocked,
		InvalidCredentials:    ErrInvalidCredentials,
		OTPRequired:           ErrOTPRequired,
		InvalidOrExpiredOTP:   ErrInvalidOrExpiredOTP,
		InvalidOrExpiredToken: ErrInvalidOrExpiredToken,
		SamePassword:          ErrSamePassword,
		PasswordPolicy:        ErrPasswordPolicy,
		DeliveryFailed:        ErrDeliveryFailed,
		ChannelUnavailable:    ErrChannelUnavailable,
		DuplicateAccount:      ErrDuplicateAccount,
		InvalidRequest:        ErrInvalidRequest,
		RateLimited:           ErrRateLimited,
		ConcurrentUpdate:      ErrConcurrentUpdate,
		StoreUnavailable:      ErrStoreUnavailable,
		TwoFactorEnabled:      ErrTwoFactorEnabled,
	}
)

// common builds the dependency set shared by every flow. A nil or zero
// Engine yields a set the flows reject with ErrEngineNotReady.
func (e *Engine) common() internalflows.Common {
	c := internalflows.Common{
		Metrics: flowMetrics,
		Events:  flowEvents,
		Errors:  flowErrors,
	}
	if e == nil {
		return c
	}

	c.Store = e.store
	c.Hasher = e.hasher
	c.Notify = e.notifier
	c.Logger = e.logger
	c.Now = e.now
	c.MinPasswordLength = e.config.Password.MinLength
	c.SleepEnumerationDelay = e.sleepEnumerationDelay
	c.ClientIPFromContext = clientIPFromContext
	c.MetricInc = func(id int) {
		e.metricInc(MetricID(id))
	}
	c.EmitAudit = e.emitAudit
	return c
}

// sleepEnumerationDelay pads unknown-account request paths by a random
// duration in the configured range. It returns early with ctx's error.
func (e *Engine) sleepEnumerationDelay(ctx context.Context) error {
	lo, hi := e.config.Throttle.EnumerationDelayMin, e.config.Throttle.EnumerationDelayMax
	delay, err := internal.RandomDuration(lo, hi)
	if err != nil {
		delay = lo
	}
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// throttled maps a limiter result. Redis failures fail open.
func (e *Engine) throttled(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, rate.ErrRateLimited):
		return ErrRateLimited
	default:
		e.logger.Warn("request throttle unavailable", zap.Error(err))
		return nil
	}
}

func formatAccountID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
