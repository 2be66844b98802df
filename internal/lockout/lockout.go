// Package lockout holds the failed-attempt policy. Every function is pure
// over the account copy it receives and the supplied clock reading.
package lockout

import (
	"math"
	"time"

	"github.com/MrEthical07/goCred/account"
)

const (
	DefaultThreshold = 5
	DefaultDuration  = 15 * time.Minute
)

// Config holds the threshold-to-lock transition. Threshold 0 keeps counting
// failures but never locks.
type Config struct {
	Threshold int
	Duration  time.Duration
}

// Policy applies Config to account copies.
type Policy struct {
	config Config
}

func New(cfg Config) Policy {
	return Policy{config: cfg}
}

// IsLocked reports whether the lock timestamp is strictly after now. A stale
// timestamp is never an active lock.
func (p Policy) IsLocked(a *account.Account, now time.Time) bool {
	return a.AccountLockedUntil != nil && a.AccountLockedUntil.After(now)
}

// OnFailure increments the failure counter and starts a lock once the counter
// reaches the threshold. An active lock is not extended. An expired lock does
// not reset the counter, so the first failure after it relocks at once; only
// OnSuccess or Reset starts a fresh run. It reports whether the account is
// locked after the transition.
func (p Policy) OnFailure(a *account.Account, now time.Time) bool {
	if a.FailedLoginAttempts < math.MaxInt32 {
		a.FailedLoginAttempts++
	}
	if p.IsLocked(a, now) {
		return true
	}
	if p.config.Threshold > 0 && p.config.Duration > 0 && a.FailedLoginAttempts >= p.config.Threshold {
		until := now.Add(p.config.Duration)
		a.AccountLockedUntil = &until
		return true
	}
	return false
}

// OnSuccess clears lockout state and stamps the login time.
func (p Policy) OnSuccess(a *account.Account, now time.Time) {
	Reset(a)
	login := now
	a.LastLogin = &login
}

// Reset clears the counter and any lock without touching LastLogin.
func Reset(a *account.Account) {
	a.FailedLoginAttempts = 0
	a.AccountLockedUntil = nil
}

// Remaining returns how long an active lock has left, or zero.
func (p Policy) Remaining(a *account.Account, now time.Time) time.Duration {
	if !p.IsLocked(a, now) {
		return 0
	}
	return a.AccountLockedUntil.Sub(now)
}
