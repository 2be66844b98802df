package middleware

import (
	"context"
	"net/http"
	"strings"

	goCred "github.com/MrEthical07/goCred"
)

type identityKey struct{}

// IdentityFromContext returns the identity a guard admitted.
func IdentityFromContext(ctx context.Context) (goCred.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(goCred.Identity)
	return id, ok
}

// policy is what a guard demands of a verified identity.
type policy struct {
	roles        []goCred.Role
	currentCreds bool
}

// Guard admits requests with a valid bearer identity token holding one of
// roles, or any role when none are given. It answers 401 when the token is
// missing or invalid and 403 when the role is insufficient.
func Guard(engine *goCred.Engine, roles ...goCred.Role) func(http.Handler) http.Handler {
	return policy{roles: roles}.middleware(engine)
}

// RequireCurrentCredentials is Guard that also answers 403 for accounts
// that must change their password first.
func RequireCurrentCredentials(engine *goCred.Engine, roles ...goCred.Role) func(http.Handler) http.Handler {
	return policy{roles: roles, currentCreds: true}.middleware(engine)
}

func RequireAdmin(engine *goCred.Engine) func(http.Handler) http.Handler {
	return RequireCurrentCredentials(engine, goCred.RoleAdmin)
}

func (p policy) middleware(engine *goCred.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, status := p.admit(engine, r)
			if status != http.StatusOK {
				http.Error(w, http.StatusText(status), status)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, identity)))
		})
	}
}

func (p policy) admit(engine *goCred.Engine, r *http.Request) (goCred.Identity, int) {
	token := bearerToken(r.Header.Get("Authorization"))
	if engine == nil || token == "" {
		return goCred.Identity{}, http.StatusUnauthorized
	}
	identity, err := engine.ParseIdentity(r.Context(), token)
	switch {
	case err != nil:
		return goCred.Identity{}, http.StatusUnauthorized
	case !goCred.Authorize(identity, p.roles...):
		return goCred.Identity{}, http.StatusForbidden
	case p.currentCreds && identity.PasswordChangeRequired:
		return goCred.Identity{}, http.StatusForbidden
	}
	return identity, http.StatusOK
}

// bearerToken extracts the credential of a Bearer authorization header.
// The scheme is case-insensitive.
func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
