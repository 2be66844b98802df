package lockout

import (
	"testing"
	"time"

	"github.com/MrEthical07/goCred/account"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestIsLockedBoundary(t *testing.T) {
	p := New(Config{Threshold: DefaultThreshold, Duration: DefaultDuration})
	a := &account.Account{}

	if p.IsLocked(a, t0) {
		t.Fatal("nil lock timestamp must not be locked")
	}

	a.AccountLockedUntil = account.TimePtr(t0)
	if p.IsLocked(a, t0) {
		t.Fatal("lock equal to now must not be active")
	}
	if !p.IsLocked(a, t0.Add(-time.Nanosecond)) {
		t.Fatal("lock after now must be active")
	}
	if p.IsLocked(a, t0.Add(time.Hour)) {
		t.Fatal("stale lock must not be active")
	}
}

func TestOnFailureIsMonotonic(t *testing.T) {
	p := New(Config{Threshold: 0})
	a := &account.Account{}

	prev := a.FailedLoginAttempts
	for i := 0; i < 50; i++ {
		p.OnFailure(a, t0)
		if a.FailedLoginAttempts < prev {
			t.Fatalf("counter decreased from %d to %d", prev, a.FailedLoginAttempts)
		}
		prev = a.FailedLoginAttempts
	}
	if a.FailedLoginAttempts != 50 {
		t.Fatalf("expected 50 failures, got %d", a.FailedLoginAttempts)
	}
	if a.AccountLockedUntil != nil {
		t.Fatal("threshold 0 must never lock")
	}
}

func TestOnFailureLocksAtThreshold(t *testing.T) {
	p := New(Config{Threshold: 5, Duration: 15 * time.Minute})
	a := &account.Account{}

	for i := 1; i < 5; i++ {
		if p.OnFailure(a, t0) {
			t.Fatalf("failure %d locked before threshold", i)
		}
	}
	if !p.OnFailure(a, t0) {
		t.Fatal("expected lock at threshold")
	}
	if a.AccountLockedUntil == nil || !a.AccountLockedUntil.Equal(t0.Add(15*time.Minute)) {
		t.Fatalf("unexpected lock timestamp %v", a.AccountLockedUntil)
	}
	if got := p.Remaining(a, t0.Add(5*time.Minute)); got != 10*time.Minute {
		t.Fatalf("expected 10m remaining, got %v", got)
	}
}

func TestOnFailureDoesNotExtendActiveLock(t *testing.T) {
	p := New(Config{Threshold: 1, Duration: 15 * time.Minute})
	a := &account.Account{}

	p.OnFailure(a, t0)
	first := *a.AccountLockedUntil

	p.OnFailure(a, t0.Add(10*time.Minute))
	if !a.AccountLockedUntil.Equal(first) {
		t.Fatalf("active lock extended from %v to %v", first, *a.AccountLockedUntil)
	}
	if a.FailedLoginAttempts != 2 {
		t.Fatalf("expected counter 2, got %d", a.FailedLoginAttempts)
	}
}

func TestOnFailureRelocksAfterExpiry(t *testing.T) {
	p := New(Config{Threshold: 2, Duration: time.Minute})
	a := &account.Account{FailedLoginAttempts: 2, AccountLockedUntil: account.TimePtr(t0)}

	later := t0.Add(time.Hour)
	if !p.OnFailure(a, later) {
		t.Fatal("expected relock after stale lock once over threshold")
	}
	if !a.AccountLockedUntil.Equal(later.Add(time.Minute)) {
		t.Fatalf("unexpected relock timestamp %v", a.AccountLockedUntil)
	}
}

func TestOnSuccessResetsRegardlessOfPriorValue(t *testing.T) {
	p := New(Config{Threshold: 5, Duration: time.Minute})
	for _, prior := range []int{0, 1, 4, 5, 1000} {
		a := &account.Account{FailedLoginAttempts: prior, AccountLockedUntil: account.TimePtr(t0.Add(time.Hour))}
		p.OnSuccess(a, t0)
		if a.FailedLoginAttempts != 0 {
			t.Fatalf("prior %d: expected 0, got %d", prior, a.FailedLoginAttempts)
		}
		if a.AccountLockedUntil != nil {
			t.Fatalf("prior %d: lock not cleared", prior)
		}
		if a.LastLogin == nil || !a.LastLogin.Equal(t0) {
			t.Fatalf("prior %d: last login not stamped", prior)
		}
	}
}

func TestResetKeepsLastLogin(t *testing.T) {
	a := &account.Account{FailedLoginAttempts: 3, LastLogin: account.TimePtr(t0)}
	Reset(a)
	if a.FailedLoginAttempts != 0 || a.AccountLockedUntil != nil {
		t.Fatal("expected lockout state cleared")
	}
	if a.LastLogin == nil {
		t.Fatal("Reset must not clear last login")
	}
}
