package flows

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/goCred/account"
	"github.com/MrEthical07/goCred/internal/lockout"
	"github.com/MrEthical07/goCred/internal/reset"
	"go.uber.org/zap"
)

// PasswordResetDeps captures password-reset dependencies.
type PasswordResetDeps struct {
	Common

	TTL time.Duration

	// Throttle returns a non-nil error when email has exhausted its request
	// budget. Optional.
	Throttle func(ctx context.Context, email, ip string) error
}

func normalizePasswordResetDeps(deps *PasswordResetDeps) {
	normalizeCommon(&deps.Common)
	if deps.TTL <= 0 {
		deps.TTL = reset.DefaultResetTTL
	}
}

// RunRequestPasswordReset issues a reset token for the account registered
// under email and sends the link. Unknown or disabled accounts get the same
// nil result: the flow sleeps the enumeration delay and generates a
// throwaway token so both paths do comparable work.
func RunRequestPasswordReset(ctx context.Context, email string, deps PasswordResetDeps) error {
	normalizePasswordResetDeps(&deps)
	if deps.Store == nil {
		return deps.Errors.EngineNotReady
	}
	email = strings.TrimSpace(email)
	if email == "" {
		deps.EmitAudit(ctx, deps.Events.PasswordResetRequest, false, 0, "", deps.Errors.InvalidRequest, func() map[string]string {
			return map[string]string{"reason": "empty_email"}
		})
		return deps.Errors.InvalidRequest
	}

	if deps.Throttle != nil {
		if err := deps.Throttle(ctx, email, deps.ClientIPFromContext(ctx)); err != nil {
			deps.MetricInc(deps.Metrics.RateLimited)
			deps.EmitAudit(ctx, deps.Events.RateLimited, false, 0, email, err, func() map[string]string {
				return map[string]string{"operation": "password_reset_request"}
			})
			return err
		}
	}

	acct, err := deps.Store.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, account.ErrNotFound) {
		return deps.storeError(err)
	}
	if err != nil || !acct.Enabled {
		if sleepErr := deps.SleepEnumerationDelay(ctx); sleepErr != nil {
			return sleepErr
		}
		if _, genErr := reset.NewTicket(deps.Now(), deps.TTL); genErr != nil {
			return genErr
		}
		deps.MetricInc(deps.Metrics.PasswordResetRequest)
		deps.EmitAudit(ctx, deps.Events.PasswordResetRequest, true, 0, email, nil, func() map[string]string {
			return map[string]string{"enumeration_safe": "true"}
		})
		return nil
	}

	ticket, err := reset.NewTicket(deps.Now(), deps.TTL)
	if err != nil {
		return err
	}
	saved, err := deps.mutate(ctx, acct, func(a *account.Account) (bool, error) {
		reset.ApplyReset(a, ticket)
		return true, nil
	})
	if err != nil {
		deps.EmitAudit(ctx, deps.Events.PasswordResetRequest, false, acct.ID, email, err, nil)
		return err
	}

	deps.MetricInc(deps.Metrics.PasswordResetRequest)
	if err := deps.Notify.SendResetLink(ctx, saved, ticket.Token, ticket.Expiry); err != nil {
		failed := deps.deliveryFailed(saved, "reset_link", err)
		deps.EmitAudit(ctx, deps.Events.PasswordResetRequest, false, saved.ID, email, failed, nil)
		return failed
	}
	deps.EmitAudit(ctx, deps.Events.PasswordResetRequest, true, saved.ID, email, nil, nil)
	return nil
}

// RunValidateResetToken returns the account holding token when the token
// has not expired. Lookups never clear stale tokens.
func RunValidateResetToken(ctx context.Context, token string, deps PasswordResetDeps) (*account.Account, error) {
	normalizePasswordResetDeps(&deps)
	if deps.Store == nil {
		return nil, deps.Errors.EngineNotReady
	}
	return deps.lookupToken(ctx, token, deps.Now())
}

func (d *PasswordResetDeps) lookupToken(ctx context.Context, token string, now time.Time) (*account.Account, error) {
	digest := reset.Digest(token)
	if digest == "" {
		return nil, d.Errors.InvalidOrExpiredToken
	}
	acct, err := d.Store.FindByResetToken(ctx, digest)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return nil, d.Errors.InvalidOrExpiredToken
		}
		return nil, d.storeError(err)
	}
	if !reset.ResetValid(acct, digest, now) {
		return nil, d.Errors.InvalidOrExpiredToken
	}
	return acct, nil
}

// RunResetPassword consumes token and sets newPassword in a single save that
// also clears the token pair and the lockout state. A consumed or expired
// token returns InvalidOrExpiredToken.
func RunResetPassword(ctx context.Context, token, newPassword string, deps PasswordResetDeps) error {
	normalizePasswordResetDeps(&deps)
	if !deps.ready() {
		return deps.Errors.EngineNotReady
	}

	fail := func(accountID int64, err error) error {
		deps.MetricInc(deps.Metrics.PasswordResetFailure)
		deps.EmitAudit(ctx, deps.Events.PasswordResetConfirm, false, accountID, "", err, nil)
		return err
	}

	now := deps.Now()
	acct, err := deps.lookupToken(ctx, token, now)
	if err != nil {
		return fail(0, err)
	}
	if err := deps.checkPassword(newPassword); err != nil {
		return fail(acct.ID, err)
	}
	digest, err := deps.hash(newPassword)
	if err != nil {
		return fail(acct.ID, err)
	}

	tokenDigest := reset.Digest(token)
	saved, err := deps.mutate(ctx, acct, func(a *account.Account) (bool, error) {
		if !reset.ResetValid(a, tokenDigest, now) {
			return false, deps.Errors.InvalidOrExpiredToken
		}
		a.PasswordHash = digest
		a.CredentialsCurrent = true
		reset.ClearReset(a)
		lockout.Reset(a)
		return true, nil
	})
	if err != nil {
		return fail(acct.ID, err)
	}

	deps.MetricInc(deps.Metrics.PasswordResetSuccess)
	deps.EmitAudit(ctx, deps.Events.PasswordResetConfirm, true, saved.ID, saved.Email, nil, nil)

	if err := deps.Notify.SendResetConfirmation(ctx, saved); err != nil {
		deps.MetricInc(deps.Metrics.DeliveryFailure)
		deps.Logger.Warn("reset confirmation not delivered",
			zap.Int64("account_id", saved.ID),
			zap.Error(err),
		)
	}
	return nil
}
