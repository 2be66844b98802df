// Package otp issues and checks one-time codes bound to a single account.
//
// Issued codes are stored on the account record; a later issue overwrites the
// previous code. Verification never mutates the account: clearing on success
// and counting failures belong to the caller.
package otp

import (
	"crypto/subtle"
	"time"

	"github.com/MrEthical07/goCred/account"
	"github.com/MrEthical07/goCred/internal"
)

const (
	DefaultDigits = 6
	DefaultTTL    = 5 * time.Minute
)

// Challenge is a freshly issued code and its expiry.
type Challenge struct {
	Code   string
	Expiry time.Time
}

// Issue generates a code valid until now+ttl.
func Issue(now time.Time, ttl time.Duration, digits int) (Challenge, error) {
	code, err := internal.NewOTP(digits)
	if err != nil {
		return Challenge{}, err
	}
	return Challenge{Code: code, Expiry: now.Add(ttl)}, nil
}

// Apply stores ch on a, replacing any outstanding code.
func Apply(a *account.Account, ch Challenge) {
	code := ch.Code
	expiry := ch.Expiry
	a.OTPCode = &code
	a.OTPExpiry = &expiry
}

// Clear removes the outstanding code. Both fields are cleared together.
func Clear(a *account.Account) {
	a.OTPCode = nil
	a.OTPExpiry = nil
}

// Verify reports whether submitted matches the outstanding code and the code
// has not expired. A code whose expiry equals now is expired.
func Verify(a *account.Account, submitted string, now time.Time) bool {
	if a.OTPCode == nil || a.OTPExpiry == nil {
		return false
	}
	if !a.OTPExpiry.After(now) {
		return false
	}
	if len(submitted) != len(*a.OTPCode) || !internal.IsNumeric(submitted) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*a.OTPCode), []byte(submitted)) == 1
}
