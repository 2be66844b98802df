package flows

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/MrEthical07/goCred/account"
	"github.com/MrEthical07/goCred/internal/lockout"
	"github.com/MrEthical07/goCred/internal/reset"
	"go.uber.org/zap"
)

// ChangePasswordDeps captures change-password dependencies.
type ChangePasswordDeps struct {
	Common
	Lockout lockout.Policy
}

// RunChangePassword replaces the password of accountID after verifying
// current. A wrong current password counts as a failed attempt. Reusing the
// current password returns SamePassword without mutation.
func RunChangePassword(ctx context.Context, accountID int64, current, next string, deps ChangePasswordDeps) error {
	normalizeCommon(&deps.Common)
	if !deps.ready() {
		return deps.Errors.EngineNotReady
	}

	acct, err := deps.Store.FindByID(ctx, accountID)
	if err != nil {
		return deps.storeError(err)
	}

	fail := func(err error, reason string) error {
		deps.MetricInc(deps.Metrics.PasswordChangeFailure)
		deps.EmitAudit(ctx, deps.Events.PasswordChange, false, accountID, acct.Username, err, func() map[string]string {
			return map[string]string{"reason": reason}
		})
		return err
	}

	now := deps.Now()
	if deps.Lockout.IsLocked(acct, now) {
		return fail(deps.Errors.AccountLocked, "locked")
	}

	if err := deps.checkPassword(next); err != nil {
		return fail(err, "policy")
	}

	verifiedDigest := acct.PasswordHash
	currentOK := current != "" && deps.verify(current, verifiedDigest)
	var digest string

	saved, err := deps.mutate(ctx, acct, func(a *account.Account) (bool, error) {
		if a.PasswordHash != verifiedDigest {
			verifiedDigest = a.PasswordHash
			currentOK = current != "" && deps.verify(current, verifiedDigest)
		}
		if !currentOK {
			deps.Lockout.OnFailure(a, now)
			return true, deps.Errors.InvalidCredentials
		}
		if subtle.ConstantTimeCompare([]byte(current), []byte(next)) == 1 {
			return false, deps.Errors.SamePassword
		}
		if digest == "" {
			var err error
			if digest, err = deps.hash(next); err != nil {
				return false, err
			}
		}
		a.PasswordHash = digest
		a.CredentialsCurrent = true
		reset.ClearReset(a)
		return true, nil
	})
	if err != nil {
		return fail(err, reasonFor(err, deps.Errors))
	}

	deps.MetricInc(deps.Metrics.PasswordChangeSuccess)
	deps.EmitAudit(ctx, deps.Events.PasswordChange, true, saved.ID, saved.Username, nil, nil)

	if err := deps.Notify.SendPasswordChanged(ctx, saved); err != nil {
		deps.MetricInc(deps.Metrics.DeliveryFailure)
		deps.Logger.Warn("password change notice not delivered",
			zap.Int64("account_id", saved.ID),
			zap.Error(err),
		)
	}
	return nil
}

func reasonFor(err error, errs Errors) string {
	switch {
	case errors.Is(err, errs.InvalidCredentials):
		return "password_mismatch"
	case errors.Is(err, errs.SamePassword):
		return "same_password"
	case errors.Is(err, errs.PasswordPolicy):
		return "policy"
	}
	return "error"
}
