package goCred

import (
	"context"

	internalflows "github.com/MrEthical07/goCred/internal/flows"
)

// RequestEmailVerification issues a single-use verification token and
// mails it. Already verified accounts are left alone.
func (e *Engine) RequestEmailVerification(ctx context.Context, accountID int64) error {
	return internalflows.RunRequestEmailVerification(ctx, accountID, e.emailVerificationFlowDeps())
}

// VerifyEmail consumes token and marks the owning account's email as
// verified.
func (e *Engine) VerifyEmail(ctx context.Context, token string) (*Account, error) {
	return internalflows.RunVerifyEmail(ctx, token, e.emailVerificationFlowDeps())
}

func (e *Engine) emailVerificationFlowDeps() internalflows.EmailVerificationDeps {
	deps := internalflows.EmailVerificationDeps{Common: e.common()}
	if e == nil {
		return deps
	}
	deps.TTL = e.config.EmailVerification.TTL
	return deps
}
