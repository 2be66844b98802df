package memory

import (
	"context"
	"testing"

	"github.com/MrEthical07/goCred/account"
	"github.com/MrEthical07/goCred/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) account.Store { return New() })
}

func TestLookupsReturnCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, err := s.Create(ctx, storetest.NewAccount(1, "alice"))
	require.NoError(t, err)

	a, err := s.FindByID(ctx, 1)
	require.NoError(t, err)
	a.FailedLoginAttempts = 42
	a.OTPCode = account.StringPtr("123456")

	b, err := s.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, b.FailedLoginAttempts)
	assert.Nil(t, b.OTPCode)
}

func TestCreateAssignsID(t *testing.T) {
	s := New()
	created, err := s.Create(context.Background(), storetest.NewAccount(0, "alice"))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, 1, s.Len())
}

func TestCancelledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Create(ctx, storetest.NewAccount(1, "alice"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, s.Len())
}
