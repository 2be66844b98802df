// Package reset issues single-use opaque tokens that prove control of an
// account's email address: password-reset tokens and email-verification
// tokens. Only the SHA-256 digest of a token is ever placed on the account.
package reset

import (
	"time"

	"github.com/MrEthical07/goCred/account"
	"github.com/MrEthical07/goCred/internal"
	"github.com/google/uuid"
)

const (
	DefaultResetTTL        = time.Hour
	DefaultVerificationTTL = 24 * time.Hour
)

// Ticket is an issued token. Token is delivered; Digest is stored.
type Ticket struct {
	Token  string
	Digest string
	Expiry time.Time
}

// NewTicket returns a random UUIDv4 token valid until now+ttl.
func NewTicket(now time.Time, ttl time.Duration) (Ticket, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return Ticket{}, err
	}
	token := id.String()
	return Ticket{
		Token:  token,
		Digest: internal.DigestToken(token),
		Expiry: now.Add(ttl),
	}, nil
}

// Digest maps a presented token to its stored form. Malformed tokens map to
// the empty string, which matches no account.
func Digest(token string) string {
	if _, err := uuid.Parse(token); err != nil {
		return ""
	}
	return internal.DigestToken(token)
}

func ApplyReset(a *account.Account, t Ticket) {
	digest := t.Digest
	expiry := t.Expiry
	a.PasswordResetToken = &digest
	a.PasswordResetExpiry = &expiry
}

func ClearReset(a *account.Account) {
	a.PasswordResetToken = nil
	a.PasswordResetExpiry = nil
}

// ResetValid reports whether a holds digest and it expires strictly after now.
func ResetValid(a *account.Account, digest string, now time.Time) bool {
	return matches(a.PasswordResetToken, a.PasswordResetExpiry, digest, now)
}

func ApplyVerification(a *account.Account, t Ticket) {
	digest := t.Digest
	expiry := t.Expiry
	a.VerificationToken = &digest
	a.VerificationExpiry = &expiry
}

func ClearVerification(a *account.Account) {
	a.VerificationToken = nil
	a.VerificationExpiry = nil
}

func VerificationValid(a *account.Account, digest string, now time.Time) bool {
	return matches(a.VerificationToken, a.VerificationExpiry, digest, now)
}

func matches(stored *string, expiry *time.Time, digest string, now time.Time) bool {
	if stored == nil || expiry == nil || digest == "" {
		return false
	}
	return *stored == digest && expiry.After(now)
}
