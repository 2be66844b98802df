package goCred

import (
	"context"

	internalflows "github.com/MrEthical07/goCred/internal/flows"
)

// Register creates an enabled account with the given credentials. The
// username must not contain whitespace or '@' and the email must be a bare
// address. ErrDuplicateAccount is returned when either is taken.
//
// The welcome message and, with EmailVerification.SendOnRegister, the
// verification token are sent after creation; their failures are logged
// and do not fail the registration.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*Account, error) {
	return internalflows.RunRegister(ctx, internalflows.RegisterRequest{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Role:        req.Role,
	}, e.registerFlowDeps())
}

// ChangePassword replaces the password of accountID after verifying
// current. ErrSamePassword is returned when next equals current; a wrong
// current password counts toward the lock.
func (e *Engine) ChangePassword(ctx context.Context, accountID int64, current, next string) error {
	return internalflows.RunChangePassword(ctx, accountID, current, next, e.changePasswordFlowDeps())
}

func (e *Engine) registerFlowDeps() internalflows.RegisterDeps {
	deps := internalflows.RegisterDeps{Common: e.common()}
	if e == nil {
		return deps
	}
	deps.DefaultRole, _ = ParseRole(e.config.Account.DefaultRole)
	deps.SendWelcome = e.config.Account.SendWelcome
	deps.RequireEmailCheck = e.config.EmailVerification.SendOnRegister
	if e.ids != nil {
		deps.NewID = func() int64 { return e.ids.Generate().Int64() }
	}
	verification := e.emailVerificationFlowDeps()
	deps.Verification = &verification
	return deps
}

func (e *Engine) changePasswordFlowDeps() internalflows.ChangePasswordDeps {
	deps := internalflows.ChangePasswordDeps{Common: e.common()}
	if e == nil {
		return deps
	}
	deps.Lockout = e.lockout
	return deps
}
