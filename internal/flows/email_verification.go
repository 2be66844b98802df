package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goCred/account"
	"github.com/MrEthical07/goCred/internal/reset"
)

// EmailVerificationDeps captures email-verification dependencies.
type EmailVerificationDeps struct {
	Common
	TTL time.Duration
}

func normalizeEmailVerificationDeps(deps *EmailVerificationDeps) {
	normalizeCommon(&deps.Common)
	if deps.TTL <= 0 {
		deps.TTL = reset.DefaultVerificationTTL
	}
}

// RunRequestEmailVerification stores a fresh verification token for
// accountID and sends it. Already verified accounts are left untouched.
func RunRequestEmailVerification(ctx context.Context, accountID int64, deps EmailVerificationDeps) error {
	normalizeEmailVerificationDeps(&deps)
	if deps.Store == nil {
		return deps.Errors.EngineNotReady
	}

	acct, err := deps.Store.FindByID(ctx, accountID)
	if err != nil {
		return deps.storeError(err)
	}
	return deps.issue(ctx, acct)
}

func (d *EmailVerificationDeps) issue(ctx context.Context, acct *account.Account) error {
	if acct.EmailVerified {
		return nil
	}

	ticket, err := reset.NewTicket(d.Now(), d.TTL)
	if err != nil {
		return err
	}
	saved, err := d.mutate(ctx, acct, func(a *account.Account) (bool, error) {
		if a.EmailVerified {
			return false, nil
		}
		reset.ApplyVerification(a, ticket)
		return true, nil
	})
	if err != nil {
		d.EmitAudit(ctx, d.Events.EmailVerificationRequest, false, acct.ID, acct.Email, err, nil)
		return err
	}
	if saved.EmailVerified {
		return nil
	}

	d.MetricInc(d.Metrics.EmailVerificationRequest)
	if err := d.Notify.SendVerification(ctx, saved, ticket.Token, ticket.Expiry); err != nil {
		failed := d.deliveryFailed(saved, "verification", err)
		d.EmitAudit(ctx, d.Events.EmailVerificationRequest, false, saved.ID, saved.Email, failed, nil)
		return failed
	}
	d.EmitAudit(ctx, d.Events.EmailVerificationRequest, true, saved.ID, saved.Email, nil, nil)
	return nil
}

// RunVerifyEmail consumes a verification token and marks the email as
// verified in the same save.
func RunVerifyEmail(ctx context.Context, token string, deps EmailVerificationDeps) (*account.Account, error) {
	normalizeEmailVerificationDeps(&deps)
	if deps.Store == nil {
		return nil, deps.Errors.EngineNotReady
	}

	fail := func(accountID int64, err error) (*account.Account, error) {
		deps.EmitAudit(ctx, deps.Events.EmailVerificationConfirm, false, accountID, "", err, nil)
		return nil, err
	}

	digest := reset.Digest(token)
	if digest == "" {
		return fail(0, deps.Errors.InvalidOrExpiredToken)
	}
	acct, err := deps.Store.FindByVerificationToken(ctx, digest)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return fail(0, deps.Errors.InvalidOrExpiredToken)
		}
		return nil, deps.storeError(err)
	}

	now := deps.Now()
	saved, err := deps.mutate(ctx, acct, func(a *account.Account) (bool, error) {
		if !reset.VerificationValid(a, digest, now) {
			return false, deps.Errors.InvalidOrExpiredToken
		}
		reset.ClearVerification(a)
		a.EmailVerified = true
		return true, nil
	})
	if err != nil {
		return fail(acct.ID, err)
	}

	deps.MetricInc(deps.Metrics.EmailVerificationSuccess)
	deps.EmitAudit(ctx, deps.Events.EmailVerificationConfirm, true, saved.ID, saved.Email, nil, nil)
	return saved, nil
}
