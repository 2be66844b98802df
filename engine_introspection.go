package goCred

import (
	"context"
	"strings"

	internalflows "github.com/MrEthical07/goCred/internal/flows"
)

// Account returns a copy of the stored account.
func (e *Engine) Account(ctx context.Context, accountID int64) (*Account, error) {
	return internalflows.RunAccount(ctx, accountID, e.adminFlowDeps())
}

// ParseIdentity verifies a token issued by Authenticate and returns the
// identity it carries. Any verification failure yields ErrTokenInvalid.
func (e *Engine) ParseIdentity(ctx context.Context, token string) (Identity, error) {
	if e == nil || e.tokens == nil {
		return Identity{}, ErrEngineNotReady
	}
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrTokenInvalid
	}

	subject, err := e.tokens.Parse(token, e.now())
	if err != nil {
		return Identity{}, ErrTokenInvalid
	}
	identity := Identity{
		AccountID:              subject.AccountID,
		Username:               subject.Username,
		PasswordChangeRequired: subject.PasswordChangeRequired,
	}
	if subject.Role != "" {
		role, ok := ParseRole(subject.Role)
		if !ok {
			return Identity{}, ErrTokenInvalid
		}
		identity.Role = role
	}
	return identity, nil
}
