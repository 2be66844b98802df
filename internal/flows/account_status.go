package flows

import (
	"context"
	"strconv"
	"strings"

	"github.com/MrEthical07/goCred/account"
	"github.com/MrEthical07/goCred/internal/lockout"
)

// AccountAdminDeps captures administrative account operations.
type AccountAdminDeps struct {
	Common
}

// RunUnlockAccount clears the failure counter and any lock on accountID.
func RunUnlockAccount(ctx context.Context, accountID int64, deps AccountAdminDeps) error {
	normalizeCommon(&deps.Common)
	return deps.update(ctx, accountID, deps.Events.AccountUnlock, func(a *account.Account) bool {
		if a.FailedLoginAttempts == 0 && a.AccountLockedUntil == nil {
			return false
		}
		lockout.Reset(a)
		return true
	}, func(*account.Account) { deps.MetricInc(deps.Metrics.AccountUnlock) }, nil)
}

// RunSetAccountEnabled flips the enabled gate on accountID.
func RunSetAccountEnabled(ctx context.Context, accountID int64, enabled bool, deps AccountAdminDeps) error {
	normalizeCommon(&deps.Common)
	return deps.update(ctx, accountID, deps.Events.AccountStatusChange, func(a *account.Account) bool {
		if a.Enabled == enabled {
			return false
		}
		a.Enabled = enabled
		return true
	}, nil, map[string]string{"enabled": strconv.FormatBool(enabled)})
}

// RunVerifyPhone records phone as the verified number of accountID.
func RunVerifyPhone(ctx context.Context, accountID int64, phone string, deps AccountAdminDeps) error {
	normalizeCommon(&deps.Common)
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return deps.Errors.InvalidRequest
	}
	return deps.update(ctx, accountID, deps.Events.PhoneVerify, func(a *account.Account) bool {
		if a.PhoneVerified && a.PhoneNumber == phone {
			return false
		}
		a.PhoneNumber = phone
		a.PhoneVerified = true
		return true
	}, nil, nil)
}

// RunAccount fetches accountID without changing it.
func RunAccount(ctx context.Context, accountID int64, deps AccountAdminDeps) (*account.Account, error) {
	normalizeCommon(&deps.Common)
	if deps.Store == nil {
		return nil, deps.Errors.EngineNotReady
	}
	acct, err := deps.Store.FindByID(ctx, accountID)
	if err != nil {
		return nil, deps.storeError(err)
	}
	return acct, nil
}

// RunLockedAccounts lists accounts whose lock is active now.
func RunLockedAccounts(ctx context.Context, deps AccountAdminDeps) ([]*account.Account, error) {
	normalizeCommon(&deps.Common)
	if deps.Store == nil {
		return nil, deps.Errors.EngineNotReady
	}
	locked, err := deps.Store.FindLocked(ctx, deps.Now())
	if err != nil {
		return nil, deps.storeError(err)
	}
	return locked, nil
}

func (d *AccountAdminDeps) update(ctx context.Context, accountID int64, event string, apply func(*account.Account) bool, onChange func(*account.Account), meta map[string]string) error {
	if d.Store == nil {
		return d.Errors.EngineNotReady
	}
	acct, err := d.Store.FindByID(ctx, accountID)
	if err != nil {
		return d.storeError(err)
	}

	changed := false
	saved, err := d.mutate(ctx, acct, func(a *account.Account) (bool, error) {
		changed = apply(a)
		return changed, nil
	})
	if err != nil {
		d.EmitAudit(ctx, event, false, accountID, acct.Username, err, nil)
		return err
	}
	if !changed {
		return nil
	}
	if onChange != nil {
		onChange(saved)
	}
	d.EmitAudit(ctx, event, true, saved.ID, saved.Username, nil, func() map[string]string { return meta })
	return nil
}
