// Package storetest is a conformance suite for account.Store implementations.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goCred/account"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty store. Cleanup is registered on t.
type Factory func(t *testing.T) account.Store

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// Run exercises every account.Store contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("CreateAndFind", func(t *testing.T) { testCreateAndFind(t, newStore(t)) })
	t.Run("CreateDuplicate", func(t *testing.T) { testCreateDuplicate(t, newStore(t)) })
	t.Run("UsernamePreferredOverEmail", func(t *testing.T) { testUsernamePreferred(t, newStore(t)) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, newStore(t)) })
	t.Run("SaveRoundTrip", func(t *testing.T) { testSaveRoundTrip(t, newStore(t)) })
	t.Run("SaveVersionConflict", func(t *testing.T) { testSaveVersionConflict(t, newStore(t)) })
	t.Run("SaveUnknown", func(t *testing.T) { testSaveUnknown(t, newStore(t)) })
	t.Run("FindByTokens", func(t *testing.T) { testFindByTokens(t, newStore(t)) })
	t.Run("FindLocked", func(t *testing.T) { testFindLocked(t, newStore(t)) })
	t.Run("ConcurrentIncrements", func(t *testing.T) { testConcurrentIncrements(t, newStore(t)) })
}

// NewAccount returns a registered-shape account for username.
func NewAccount(id int64, username string) *account.Account {
	return &account.Account{
		ID:                 id,
		Username:           username,
		Email:              username + "@example.com",
		FirstName:          "Test",
		Role:               account.RoleUser,
		PasswordHash:       "$argon2id$v=19$m=65536,t=3,p=2$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA",
		CredentialsCurrent: true,
		Enabled:            true,
		AccountNonExpired:  true,
		CreatedAt:          t0,
		UpdatedAt:          t0,
	}
}

func testCreateAndFind(t *testing.T, s account.Store) {
	ctx := context.Background()
	created, err := s.Create(ctx, NewAccount(101, "alice"))
	require.NoError(t, err)
	assert.Equal(t, int64(101), created.ID)
	assert.Equal(t, uint64(1), created.Version)

	byID, err := s.FindByID(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	byName, err := s.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(101), byName.ID)

	byEmail, err := s.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(101), byEmail.ID)

	for _, ident := range []string{"alice", "alice@example.com"} {
		got, err := s.FindByUsernameOrEmail(ctx, ident)
		require.NoError(t, err, ident)
		assert.Equal(t, int64(101), got.ID, ident)
	}
}

func testCreateDuplicate(t *testing.T, s account.Store) {
	ctx := context.Background()
	_, err := s.Create(ctx, NewAccount(1, "alice"))
	require.NoError(t, err)

	sameName := NewAccount(2, "alice")
	sameName.Email = "other@example.com"
	_, err = s.Create(ctx, sameName)
	assert.ErrorIs(t, err, account.ErrDuplicate)

	sameEmail := NewAccount(3, "bob")
	sameEmail.Email = "alice@example.com"
	_, err = s.Create(ctx, sameEmail)
	assert.ErrorIs(t, err, account.ErrDuplicate)
}

func testUsernamePreferred(t *testing.T, s account.Store) {
	ctx := context.Background()

	byEmail := NewAccount(1, "first")
	byEmail.Email = "shared"
	_, err := s.Create(ctx, byEmail)
	require.NoError(t, err)

	byName := NewAccount(2, "shared")
	byName.Email = "second@example.com"
	_, err = s.Create(ctx, byName)
	require.NoError(t, err)

	got, err := s.FindByUsernameOrEmail(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ID, "username match must win over email match")
}

func testNotFound(t *testing.T, s account.Store) {
	ctx := context.Background()
	_, err := s.FindByID(ctx, 404)
	assert.ErrorIs(t, err, account.ErrNotFound)
	_, err = s.FindByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, account.ErrNotFound)
	_, err = s.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, account.ErrNotFound)
	_, err = s.FindByUsernameOrEmail(ctx, "nobody")
	assert.ErrorIs(t, err, account.ErrNotFound)
	_, err = s.FindByResetToken(ctx, "deadbeef")
	assert.ErrorIs(t, err, account.ErrNotFound)
	_, err = s.FindByVerificationToken(ctx, "deadbeef")
	assert.ErrorIs(t, err, account.ErrNotFound)
}

func testSaveRoundTrip(t *testing.T, s account.Store) {
	ctx := context.Background()
	created, err := s.Create(ctx, NewAccount(7, "alice"))
	require.NoError(t, err)

	created.PhoneNumber = "+15550001111"
	created.PhoneVerified = true
	created.EmailVerified = true
	created.Role = account.RoleAdmin
	created.CredentialsCurrent = false
	created.FailedLoginAttempts = 3
	created.AccountLockedUntil = account.TimePtr(t0.Add(15 * time.Minute))
	created.LastLogin = account.TimePtr(t0.Add(-time.Hour))
	created.TwoFactorEnabled = true
	created.OTPSecret = account.StringPtr("JBSWY3DPEHPK3PXP")
	created.OTPCode = account.StringPtr("012345")
	created.OTPExpiry = account.TimePtr(t0.Add(5 * time.Minute))
	created.TOTPLastStep = 59000000
	created.PasswordResetToken = account.StringPtr("reset-digest")
	created.PasswordResetExpiry = account.TimePtr(t0.Add(time.Hour))
	created.VerificationToken = account.StringPtr("verify-digest")
	created.VerificationExpiry = account.TimePtr(t0.Add(24 * time.Hour))
	created.UpdatedAt = t0.Add(time.Second)

	saved, err := s.Save(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, created.Version+1, saved.Version)

	got, err := s.FindByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, saved.Version, got.Version)
	assert.Equal(t, "+15550001111", got.PhoneNumber)
	assert.True(t, got.PhoneVerified)
	assert.True(t, got.EmailVerified)
	assert.Equal(t, account.RoleAdmin, got.Role)
	assert.False(t, got.CredentialsCurrent)
	assert.Equal(t, 3, got.FailedLoginAttempts)
	assertTime(t, created.AccountLockedUntil, got.AccountLockedUntil, "locked until")
	assertTime(t, created.LastLogin, got.LastLogin, "last login")
	assert.True(t, got.TwoFactorEnabled)
	require.NotNil(t, got.OTPSecret)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", *got.OTPSecret)
	require.NotNil(t, got.OTPCode)
	assert.Equal(t, "012345", *got.OTPCode)
	assertTime(t, created.OTPExpiry, got.OTPExpiry, "otp expiry")
	assert.Equal(t, int64(59000000), got.TOTPLastStep)
	require.NotNil(t, got.PasswordResetToken)
	assert.Equal(t, "reset-digest", *got.PasswordResetToken)
	assertTime(t, created.PasswordResetExpiry, got.PasswordResetExpiry, "reset expiry")
	require.NotNil(t, got.VerificationToken)
	assert.Equal(t, "verify-digest", *got.VerificationToken)
	assertTime(t, created.VerificationExpiry, got.VerificationExpiry, "verification expiry")
	assert.True(t, got.CreatedAt.Equal(t0))

	got.OTPCode = nil
	got.OTPExpiry = nil
	got.AccountLockedUntil = nil
	_, err = s.Save(ctx, got)
	require.NoError(t, err)

	cleared, err := s.FindByID(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, cleared.OTPCode)
	assert.Nil(t, cleared.OTPExpiry)
	assert.Nil(t, cleared.AccountLockedUntil)
}

func testSaveVersionConflict(t *testing.T, s account.Store) {
	ctx := context.Background()
	_, err := s.Create(ctx, NewAccount(1, "alice"))
	require.NoError(t, err)

	a, err := s.FindByID(ctx, 1)
	require.NoError(t, err)
	b, err := s.FindByID(ctx, 1)
	require.NoError(t, err)

	a.FailedLoginAttempts = 1
	_, err = s.Save(ctx, a)
	require.NoError(t, err)

	b.FailedLoginAttempts = 1
	_, err = s.Save(ctx, b)
	assert.ErrorIs(t, err, account.ErrVersionConflict)
}

func testSaveUnknown(t *testing.T, s account.Store) {
	_, err := s.Save(context.Background(), NewAccount(999, "ghost"))
	assert.ErrorIs(t, err, account.ErrNotFound)
}

func testFindByTokens(t *testing.T, s account.Store) {
	ctx := context.Background()
	a := NewAccount(1, "alice")
	a.PasswordResetToken = account.StringPtr("r-1")
	a.PasswordResetExpiry = account.TimePtr(t0.Add(time.Hour))
	_, err := s.Create(ctx, a)
	require.NoError(t, err)

	b := NewAccount(2, "bob")
	b.VerificationToken = account.StringPtr("v-2")
	b.VerificationExpiry = account.TimePtr(t0.Add(time.Hour))
	_, err = s.Create(ctx, b)
	require.NoError(t, err)

	got, err := s.FindByResetToken(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)

	got, err = s.FindByVerificationToken(ctx, "v-2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ID)

	got.VerificationToken = nil
	got.VerificationExpiry = nil
	_, err = s.Save(ctx, got)
	require.NoError(t, err)

	_, err = s.FindByVerificationToken(ctx, "v-2")
	assert.ErrorIs(t, err, account.ErrNotFound)
}

func testFindLocked(t *testing.T, s account.Store) {
	ctx := context.Background()

	active := NewAccount(1, "locked")
	active.AccountLockedUntil = account.TimePtr(t0.Add(10 * time.Minute))
	stale := NewAccount(2, "stale")
	stale.AccountLockedUntil = account.TimePtr(t0.Add(-10 * time.Minute))
	never := NewAccount(3, "never")

	for _, a := range []*account.Account{active, stale, never} {
		_, err := s.Create(ctx, a)
		require.NoError(t, err)
	}

	locked, err := s.FindLocked(ctx, t0)
	require.NoError(t, err)
	require.Len(t, locked, 1)
	assert.Equal(t, "locked", locked[0].Username)
}

func testConcurrentIncrements(t *testing.T, s account.Store) {
	ctx := context.Background()
	_, err := s.Create(ctx, NewAccount(1, "alice"))
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for attempt := 0; attempt < 100; attempt++ {
				a, err := s.FindByID(ctx, 1)
				if err != nil {
					errs <- err
					return
				}
				a.FailedLoginAttempts++
				_, err = s.Save(ctx, a)
				if errors.Is(err, account.ErrVersionConflict) {
					continue
				}
				if err != nil {
					errs <- err
				}
				return
			}
			errs <- fmt.Errorf("increment did not land after retries")
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := s.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, workers, got.FailedLoginAttempts, "no increment may be lost")
}

func assertTime(t *testing.T, want, got *time.Time, field string) {
	t.Helper()
	require.NotNil(t, got, field)
	assert.True(t, want.Equal(*got), "%s: want %v got %v", field, *want, *got)
}
