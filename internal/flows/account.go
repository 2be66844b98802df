package flows

import (
	"context"
	"net/mail"
	"strings"

	"github.com/MrEthical07/goCred/account"
	"go.uber.org/zap"
)

type RegisterRequest struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
	Role        account.Role
}

type RegisterDeps struct {
	Common

	DefaultRole       account.Role
	SendWelcome       bool
	RequireEmailCheck bool
	NewID             func() int64

	// Verification issues and sends the email-verification token for a
	// newly created account. Optional.
	Verification *EmailVerificationDeps
}

// RunRegister creates an enabled account with every lockout, code and token
// field empty. Notification failures after creation are logged and do not
// fail the registration.
func RunRegister(ctx context.Context, req RegisterRequest, deps RegisterDeps) (*account.Account, error) {
	normalizeCommon(&deps.Common)
	if !deps.ready() {
		return nil, deps.Errors.EngineNotReady
	}

	fail := func(err error, reason string) (*account.Account, error) {
		deps.EmitAudit(ctx, deps.Events.AccountRegister, false, 0, req.Username, err, func() map[string]string {
			return map[string]string{"reason": reason}
		})
		return nil, err
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || strings.ContainsAny(req.Username, " \t\r\n@") {
		return fail(deps.Errors.InvalidRequest, "username")
	}
	if addr, err := mail.ParseAddress(req.Email); err != nil || addr.Address != req.Email {
		return fail(deps.Errors.InvalidRequest, "email")
	}

	role := req.Role
	if role == "" {
		role = deps.DefaultRole
	}
	if role == "" {
		role = account.RoleUser
	}
	if !role.Valid() {
		return fail(deps.Errors.InvalidRequest, "role")
	}

	if err := deps.checkPassword(req.Password); err != nil {
		return fail(err, "policy")
	}
	digest, err := deps.hash(req.Password)
	if err != nil {
		return fail(err, "policy")
	}

	now := deps.Now()
	acct := &account.Account{
		Username:           req.Username,
		Email:              req.Email,
		FirstName:          strings.TrimSpace(req.FirstName),
		LastName:           strings.TrimSpace(req.LastName),
		PhoneNumber:        strings.TrimSpace(req.PhoneNumber),
		Role:               role,
		PasswordHash:       digest,
		CredentialsCurrent: true,
		Enabled:            true,
		AccountNonExpired:  true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if deps.NewID != nil {
		acct.ID = deps.NewID()
	}

	created, err := deps.Store.Create(ctx, acct)
	if err != nil {
		mapped := deps.storeError(err)
		if mapped == deps.Errors.DuplicateAccount {
			return fail(mapped, "duplicate")
		}
		return nil, mapped
	}

	deps.MetricInc(deps.Metrics.AccountRegister)
	deps.EmitAudit(ctx, deps.Events.AccountRegister, true, created.ID, created.Username, nil, func() map[string]string {
		return map[string]string{"role": string(created.Role)}
	})

	if deps.SendWelcome {
		if err := deps.Notify.SendWelcome(ctx, created); err != nil {
			deps.MetricInc(deps.Metrics.DeliveryFailure)
			deps.Logger.Warn("welcome message not delivered",
				zap.Int64("account_id", created.ID),
				zap.Error(err),
			)
		}
	}
	if deps.RequireEmailCheck && deps.Verification != nil {
		v := *deps.Verification
		normalizeEmailVerificationDeps(&v)
		if err := v.issue(ctx, created); err != nil {
			deps.Logger.Warn("email verification not issued",
				zap.Int64("account_id", created.ID),
				zap.Error(err),
			)
		} else if fresh, err := deps.Store.FindByID(ctx, created.ID); err == nil {
			created = fresh
		}
	}
	return created, nil
}
