package goCred

import (
	"context"

	internalflows "github.com/MrEthical07/goCred/internal/flows"
)

// UnlockAccount clears the failure counter and any lock.
func (e *Engine) UnlockAccount(ctx context.Context, accountID int64) error {
	return internalflows.RunUnlockAccount(ctx, accountID, e.adminFlowDeps())
}

// EnableAccount re-opens a disabled account.
func (e *Engine) EnableAccount(ctx context.Context, accountID int64) error {
	return internalflows.RunSetAccountEnabled(ctx, accountID, true, e.adminFlowDeps())
}

// DisableAccount closes an account; Authenticate then fails with
// ErrAccountDisabled. Accounts are never deleted.
func (e *Engine) DisableAccount(ctx context.Context, accountID int64) error {
	return internalflows.RunSetAccountEnabled(ctx, accountID, false, e.adminFlowDeps())
}

// VerifyPhone records phone as the account's verified number, enabling the
// sms channel.
func (e *Engine) VerifyPhone(ctx context.Context, accountID int64, phone string) error {
	return internalflows.RunVerifyPhone(ctx, accountID, phone, e.adminFlowDeps())
}

// LockedAccounts lists accounts whose lock is in effect now.
func (e *Engine) LockedAccounts(ctx context.Context) ([]*Account, error) {
	return internalflows.RunLockedAccounts(ctx, e.adminFlowDeps())
}

func (e *Engine) adminFlowDeps() internalflows.AccountAdminDeps {
	return internalflows.AccountAdminDeps{Common: e.common()}
}
