package businessflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servicosdigitais/plataforma/models"
	testutil "github.com/servicosdigitais/plataforma/testing"
)

func newLockoutEnv(t *testing.T) (*testutil.FakeAccountRepository, *testutil.ManualClock, LockoutPolicy, *models.Account) {
	t.Helper()

	accountRepo := testutil.NewFakeAccountRepository()
	typeRepo := testutil.NewFakeAccountTypeRepository()
	fixtures := testutil.NewTestFixtures(accountRepo, typeRepo)
	account := fixtures.CreateIndividual("maria@example.com.br", "52998224725")

	clock := testutil.NewManualClock(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	policy := NewLockoutPolicy(accountRepo, DefaultLockoutSettings(), clock)

	return accountRepo, clock, policy, account
}

func TestRecordFailureCountsDownToLockout(t *testing.T) {
	_, _, policy, account := newLockoutEnv(t)
	ctx := context.Background()

	for i := 1; i < 5; i++ {
		remaining, locked, err := policy.RecordFailure(ctx, account)
		require.NoError(t, err)
		assert.False(t, locked, "attempt %d must not lock", i)
		assert.Equal(t, 5-i, remaining)
		assert.False(t, policy.IsLocked(account))
	}

	remaining, locked, err := policy.RecordFailure(ctx, account)
	require.NoError(t, err)
	assert.True(t, locked)
	assert.Equal(t, 0, remaining)
	assert.True(t, policy.IsLocked(account))
}

func TestLockoutExpiresAfterDuration(t *testing.T) {
	_, clock, policy, account := newLockoutEnv(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _, err := policy.RecordFailure(ctx, account)
		require.NoError(t, err)
	}
	require.True(t, policy.IsLocked(account))

	clock.Advance(14 * time.Minute)
	assert.True(t, policy.IsLocked(account))

	clock.Advance(2 * time.Minute)
	assert.False(t, policy.IsLocked(account), "lockout must lapse without any unlock write")
	assert.Equal(t, 0, policy.MinutesRemaining(account))
}

func TestMinutesRemainingRoundsUp(t *testing.T) {
	_, clock, policy, account := newLockoutEnv(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _, err := policy.RecordFailure(ctx, account)
		require.NoError(t, err)
	}

	assert.Equal(t, 16, policy.MinutesRemaining(account))

	clock.Advance(14*time.Minute + 30*time.Second)
	assert.Equal(t, 1, policy.MinutesRemaining(account), "a partial minute still reports one")
}

func TestFailureCounterResetsAfterQuietWindow(t *testing.T) {
	_, clock, policy, account := newLockoutEnv(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, _, err := policy.RecordFailure(ctx, account)
		require.NoError(t, err)
	}
	assert.Equal(t, 4, account.FailedAttempts)

	// A failure after the reset window starts a fresh sequence instead of
	// tripping the threshold.
	clock.Advance(31 * time.Minute)
	remaining, locked, err := policy.RecordFailure(ctx, account)
	require.NoError(t, err)
	assert.False(t, locked)
	assert.Equal(t, 4, remaining)
	assert.Equal(t, 1, account.FailedAttempts)
}

func TestFailureWithinWindowKeepsCounting(t *testing.T) {
	_, clock, policy, account := newLockoutEnv(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, _, err := policy.RecordFailure(ctx, account)
		require.NoError(t, err)
	}

	clock.Advance(29 * time.Minute)
	_, locked, err := policy.RecordFailure(ctx, account)
	require.NoError(t, err)
	assert.True(t, locked, "fifth failure inside the window locks")
}

func TestRecordSuccessClearsAllState(t *testing.T) {
	repo, _, policy, account := newLockoutEnv(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _, err := policy.RecordFailure(ctx, account)
		require.NoError(t, err)
	}

	require.NoError(t, policy.RecordSuccess(ctx, account))
	assert.Equal(t, 0, account.FailedAttempts)
	assert.Nil(t, account.LastFailureAt)
	assert.Nil(t, account.LockedUntil)

	stored, err := repo.ByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.FailedAttempts)
	assert.Nil(t, stored.LockedUntil)

	// Idempotent
	require.NoError(t, policy.RecordSuccess(ctx, account))
	assert.Equal(t, 0, account.FailedAttempts)
}
