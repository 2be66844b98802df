package flows

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goCred/account"
	"github.com/MrEthical07/goCred/internal/lockout"
	"github.com/MrEthical07/goCred/notify"
	"github.com/MrEthical07/goCred/password"
	"github.com/MrEthical07/goCred/store/memory"
)

var (
	errNotReady      = errors.New("not ready")
	errNotFound      = errors.New("not found")
	errDisabled      = errors.New("disabled")
	errExpired       = errors.New("expired")
	errLocked        = errors.New("locked")
	errInvalidCreds  = errors.New("invalid credentials")
	errOTPRequired   = errors.New("otp required")
	errInvalidOTP    = errors.New("invalid otp")
	errInvalidToken  = errors.New("invalid token")
	errSamePassword  = errors.New("same password")
	errPolicy        = errors.New("policy")
	errDelivery      = errors.New("delivery failed")
	errChannel       = errors.New("channel unavailable")
	errDuplicate     = errors.New("duplicate")
	errInvalidReq    = errors.New("invalid request")
	errRateLimited   = errors.New("rate limited")
	errConcurrent    = errors.New("concurrent update")
	errUnavailable   = errors.New("store unavailable")
	errTwoFactorIsOn = errors.New("two factor enabled")
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	store  *memory.Store
	notes  *notify.Recorder
	clock  *clock
	hasher password.Hasher
	audits *auditLog
}

type auditLog struct {
	mu     sync.Mutex
	events []auditEntry
}

type auditEntry struct {
	eventType string
	success   bool
	accountID int64
	err       error
	meta      map[string]string
}

func (l *auditLog) emit(_ context.Context, eventType string, success bool, accountID int64, _ string, err error, meta func() map[string]string) {
	e := auditEntry{eventType: eventType, success: success, accountID: accountID, err: err}
	if meta != nil {
		e.meta = meta()
	}
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

func (l *auditLog) last() auditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.events) == 0 {
		return auditEntry{}
	}
	return l.events[len(l.events)-1]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	h, err := password.NewBcrypt(4)
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}
	return &fixture{
		store:  memory.New(),
		notes:  notify.NewRecorder(),
		clock:  &clock{now: t0},
		hasher: h,
		audits: &auditLog{},
	}
}

func (f *fixture) common() Common {
	return Common{
		Store:             f.store,
		Hasher:            f.hasher,
		Notify:            f.notes,
		Now:               f.clock.Now,
		MinPasswordLength: 8,
		EmitAudit:         f.audits.emit,
		Events: Events{
			AuthSuccess:          "authenticate_success",
			AuthFailure:          "authenticate_failure",
			OTPRequest:           "otp_request",
			OTPVerify:            "otp_verify",
			PasswordChange:       "password_change",
			PasswordResetRequest: "password_reset_request",
			PasswordResetConfirm: "password_reset_confirm",
			RateLimited:          "rate_limited",
		},
		Errors: Errors{
			EngineNotReady:        errNotReady,
			NotFound:              errNotFound,
			AccountDisabled:       errDisabled,
			AccountExpired:        errExpired,
			AccountLocked:         errLocked,
			InvalidCredentials:    errInvalidCreds,
			OTPRequired:           errOTPRequired,
			InvalidOrExpiredOTP:   errInvalidOTP,
			InvalidOrExpiredToken: errInvalidToken,
			SamePassword:          errSamePassword,
			PasswordPolicy:        errPolicy,
			DeliveryFailed:        errDelivery,
			ChannelUnavailable:    errChannel,
			DuplicateAccount:      errDuplicate,
			InvalidRequest:        errInvalidReq,
			RateLimited:           errRateLimited,
			ConcurrentUpdate:      errConcurrent,
			StoreUnavailable:      errUnavailable,
			TwoFactorEnabled:      errTwoFactorIsOn,
		},
	}
}

func (f *fixture) policy() lockout.Policy {
	return lockout.New(lockout.Config{Threshold: lockout.DefaultThreshold, Duration: lockout.DefaultDuration})
}

func (f *fixture) authDeps() AuthenticateDeps {
	return AuthenticateDeps{Common: f.common(), Lockout: f.policy()}
}

func (f *fixture) otpDeps() OTPDeps {
	return OTPDeps{Common: f.common(), Lockout: f.policy()}
}

func (f *fixture) resetDeps() PasswordResetDeps {
	return PasswordResetDeps{Common: f.common()}
}

func (f *fixture) register(t *testing.T, username, plaintext string) *account.Account {
	t.Helper()
	acct, err := RunRegister(context.Background(), RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: plaintext,
	}, RegisterDeps{Common: f.common()})
	if err != nil {
		t.Fatalf("RunRegister error: %v", err)
	}
	return acct
}

func (f *fixture) load(t *testing.T, id int64) *account.Account {
	t.Helper()
	a, err := f.store.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("FindByID error: %v", err)
	}
	return a
}

func (f *fixture) edit(t *testing.T, id int64, fn func(*account.Account)) {
	t.Helper()
	a := f.load(t, id)
	fn(a)
	if _, err := f.store.Save(context.Background(), a); err != nil {
		t.Fatalf("Save error: %v", err)
	}
}

// conflictStore fails the first n saves with a version conflict after
// applying mutate to the stored record, simulating a concurrent writer.
type conflictStore struct {
	*memory.Store
	mu     sync.Mutex
	n      int
	mutate func(*account.Account)
}

func (s *conflictStore) Save(ctx context.Context, a *account.Account) (*account.Account, error) {
	s.mu.Lock()
	if s.n > 0 {
		s.n--
		s.mu.Unlock()
		if s.mutate != nil {
			cur, err := s.Store.FindByID(ctx, a.ID)
			if err != nil {
				return nil, err
			}
			s.mutate(cur)
			if _, err := s.Store.Save(ctx, cur); err != nil {
				return nil, err
			}
		}
		return nil, account.ErrVersionConflict
	}
	s.mu.Unlock()
	return s.Store.Save(ctx, a)
}

type downStore struct{ account.Store }

func (downStore) FindByUsernameOrEmail(context.Context, string) (*account.Account, error) {
	return nil, account.ErrUnavailable
}
