package businessflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/servicosdigitais/plataforma/app/dto"
	"github.com/servicosdigitais/plataforma/app/services"
	"github.com/servicosdigitais/plataforma/models"
	testutil "github.com/servicosdigitais/plataforma/testing"
	"github.com/servicosdigitais/plataforma/utils"
)

type loginEnv struct {
	fixtures *testutil.TestFixtures
	accounts *testutil.FakeAccountRepository
	sessions *testutil.FakeAccountSessionRepository
	audits   *testutil.FakeAuditLogRepository
	clock    *testutil.ManualClock
	flow     LoginFlow
}

func newLoginEnv(t *testing.T) *loginEnv {
	t.Helper()

	accounts := testutil.NewFakeAccountRepository()
	types := testutil.NewFakeAccountTypeRepository()
	sessions := testutil.NewFakeAccountSessionRepository()
	audits := testutil.NewFakeAuditLogRepository()
	fixtures := testutil.NewTestFixtures(accounts, types)
	// Session validity is checked against the wall clock, so the manual
	// clock starts there and only moves forward.
	clock := testutil.NewManualClock(time.Now())

	tokenService, err := services.NewTokenService(
		time.Hour, 7*24*time.Hour, 30*24*time.Hour,
		"plataforma-test", "plataforma-test-api",
		false, "", "", "0123456789abcdef0123456789abcdef",
	)
	require.NoError(t, err)

	flow := NewLoginFlow(
		accounts,
		sessions,
		audits,
		NewIdentityResolver(accounts),
		NewLockoutPolicy(accounts, DefaultLockoutSettings(), clock),
		services.NewPasswordService(bcrypt.MinCost),
		tokenService,
		nil,
		clock,
	)

	return &loginEnv{
		fixtures: fixtures,
		accounts: accounts,
		sessions: sessions,
		audits:   audits,
		clock:    clock,
		flow:     flow,
	}
}

func (e *loginEnv) login(identifier, password string) (*dto.LoginResponse, error) {
	return e.flow.Login(context.Background(), &dto.LoginRequest{
		Identifier: identifier,
		Password:   password,
	}, NewClientMetadata("10.0.0.1", "test-agent"))
}

func TestLoginMissingIdentifier(t *testing.T) {
	env := newLoginEnv(t)

	_, err := env.login("   ", "whatever")
	rejection, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, RejectionMissingIdentifier, rejection.Reason)
}

func TestLoginUnknownIdentifierGivesGenericRejection(t *testing.T) {
	env := newLoginEnv(t)
	env.fixtures.CreateIndividual("maria@example.com.br", "52998224725")

	_, err := env.login("ninguem@example.com.br", "whatever")
	rejection, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, RejectionInvalidCredentials, rejection.Reason)
	// No attempt count for unknown identifiers, so existence cannot be probed
	assert.Nil(t, rejection.RemainingAttempts)
}

func TestLoginWrongPasswordCountsDown(t *testing.T) {
	env := newLoginEnv(t)
	env.fixtures.CreateIndividual("maria@example.com.br", "52998224725")

	_, err := env.login("maria@example.com.br", "wrong")
	rejection, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, RejectionInvalidCredentials, rejection.Reason)
	require.NotNil(t, rejection.RemainingAttempts)
	assert.Equal(t, 4, *rejection.RemainingAttempts)
}

func TestLoginFifthFailureLocks(t *testing.T) {
	env := newLoginEnv(t)
	env.fixtures.CreateIndividual("maria@example.com.br", "52998224725")

	for i := 0; i < 4; i++ {
		_, err := env.login("maria@example.com.br", "wrong")
		rejection, ok := AsRejection(err)
		require.True(t, ok)
		assert.Equal(t, RejectionInvalidCredentials, rejection.Reason)
	}

	_, err := env.login("maria@example.com.br", "wrong")
	rejection, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, RejectionLocked, rejection.Reason)
	require.NotNil(t, rejection.MinutesRemaining)
	assert.Equal(t, 16, *rejection.MinutesRemaining)
}

func TestLoginWhileLockedSkipsPasswordCheck(t *testing.T) {
	env := newLoginEnv(t)
	env.fixtures.CreateIndividual("maria@example.com.br", "52998224725")

	for i := 0; i < 5; i++ {
		_, _ = env.login("maria@example.com.br", "wrong")
	}

	// Even the correct password is rejected while the lockout holds, and the
	// counter does not move.
	account, err := env.accounts.ByEmail(context.Background(), "maria@example.com.br")
	require.NoError(t, err)
	attemptsBefore := account.FailedAttempts

	_, err = env.login("maria@example.com.br", env.fixtures.Password)
	rejection, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, RejectionLocked, rejection.Reason)
	assert.Equal(t, attemptsBefore, account.FailedAttempts)
}

func TestLoginSucceedsAfterLockoutExpires(t *testing.T) {
	env := newLoginEnv(t)
	env.fixtures.CreateIndividual("maria@example.com.br", "52998224725")

	for i := 0; i < 5; i++ {
		_, _ = env.login("maria@example.com.br", "wrong")
	}

	env.clock.Advance(16 * time.Minute)

	resp, err := env.login("maria@example.com.br", env.fixtures.Password)
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.NotEmpty(t, resp.Session.SessionToken)

	account, err := env.accounts.ByEmail(context.Background(), "maria@example.com.br")
	require.NoError(t, err)
	assert.Equal(t, 0, account.FailedAttempts)
	assert.Nil(t, account.LockedUntil)
}

func TestLoginDisabledAccountWithCorrectPassword(t *testing.T) {
	env := newLoginEnv(t)
	provider := env.fixtures.CreateProvider("prestador@example.com.br", "11222333000181", false)

	_, err := env.login("prestador@example.com.br", env.fixtures.Password)
	rejection, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, RejectionAccountDisabled, rejection.Reason)

	// Not a credential failure: the counter must stay untouched
	assert.Equal(t, 0, provider.FailedAttempts)
}

func TestLoginDisabledAccountWithWrongPasswordCounts(t *testing.T) {
	env := newLoginEnv(t)
	provider := env.fixtures.CreateProvider("prestador@example.com.br", "11222333000181", false)

	_, err := env.login("prestador@example.com.br", "wrong")
	rejection, ok := AsRejection(err)
	require.True(t, ok)
	// The password check runs before the status check, so a wrong password
	// on a disabled account still burns an attempt.
	assert.Equal(t, RejectionInvalidCredentials, rejection.Reason)
	assert.Equal(t, 1, provider.FailedAttempts)
}

func TestLoginByCPFCreatesSession(t *testing.T) {
	env := newLoginEnv(t)
	created := env.fixtures.CreateIndividual("maria@example.com.br", "52998224725")

	resp, err := env.login("529.982.247-25", env.fixtures.Password)
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, created.Email, resp.Account.Email)
	assert.Equal(t, "Bearer", resp.Session.TokenType)

	sessions, err := env.sessions.ListActiveSessionsByAccount(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.False(t, utils.IsTrue(sessions[0].Remembered))
}

func TestLoginRememberedSessionGetsLongTTL(t *testing.T) {
	env := newLoginEnv(t)
	created := env.fixtures.CreateIndividual("maria@example.com.br", "52998224725")

	resp, err := env.flow.Login(context.Background(), &dto.LoginRequest{
		Identifier: "maria@example.com.br",
		Password:   env.fixtures.Password,
		Remember:   true,
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, resp)

	sessions, err := env.sessions.ListActiveSessionsByAccount(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.True(t, utils.IsTrue(sessions[0].Remembered))
	assert.Equal(t, env.clock.Now().Add(utils.RememberedRefreshTokenTTL), sessions[0].ExpiresAt)
}

func TestLoginSuccessResetsCounter(t *testing.T) {
	env := newLoginEnv(t)
	env.fixtures.CreateIndividual("maria@example.com.br", "52998224725")

	for i := 0; i < 3; i++ {
		_, _ = env.login("maria@example.com.br", "wrong")
	}

	_, err := env.login("maria@example.com.br", env.fixtures.Password)
	require.NoError(t, err)

	// The slate is clean: the next failure counts from the top again
	_, err = env.login("maria@example.com.br", "wrong")
	rejection, ok := AsRejection(err)
	require.True(t, ok)
	require.NotNil(t, rejection.RemainingAttempts)
	assert.Equal(t, 4, *rejection.RemainingAttempts)
}

func TestLoginWritesAuditTrail(t *testing.T) {
	env := newLoginEnv(t)
	created := env.fixtures.CreateIndividual("maria@example.com.br", "52998224725")

	_, _ = env.login("maria@example.com.br", "wrong")
	_, err := env.login("maria@example.com.br", env.fixtures.Password)
	require.NoError(t, err)

	failed, err := env.audits.ListByAction(context.Background(), models.AuditActionLoginFailed, 0, 0)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, created.ID, *failed[0].AccountID)

	succeeded, err := env.audits.ListByAction(context.Background(), models.AuditActionLoginSuccess, 0, 0)
	require.NoError(t, err)
	require.Len(t, succeeded, 1)
}

func TestLogoutExpiresSession(t *testing.T) {
	env := newLoginEnv(t)
	created := env.fixtures.CreateIndividual("maria@example.com.br", "52998224725")

	resp, err := env.login("maria@example.com.br", env.fixtures.Password)
	require.NoError(t, err)

	err = env.flow.Logout(context.Background(), resp.Session.SessionToken, nil)
	require.NoError(t, err)

	sessions, err := env.sessions.ListActiveSessionsByAccount(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	// A second logout with the same token no longer finds a live session
	err = env.flow.Logout(context.Background(), resp.Session.SessionToken, nil)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRefreshSessionRotatesTokens(t *testing.T) {
	env := newLoginEnv(t)
	created := env.fixtures.CreateIndividual("maria@example.com.br", "52998224725")

	resp, err := env.login("maria@example.com.br", env.fixtures.Password)
	require.NoError(t, err)
	require.NotNil(t, resp.Session.RefreshToken)

	refreshed, err := env.flow.RefreshSession(context.Background(), *resp.Session.RefreshToken, nil)
	require.NoError(t, err)
	assert.NotEqual(t, resp.Session.SessionToken, refreshed.Session.SessionToken)

	// Exactly one live session remains, under the original correlation
	sessions, err := env.sessions.ListActiveSessionsByAccount(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	old, err := env.sessions.ByRefreshToken(context.Background(), *resp.Session.RefreshToken)
	require.NoError(t, err)
	assert.Nil(t, old, "the consumed refresh token must be dead")
}

func TestRefreshSessionRejectsDisabledAccount(t *testing.T) {
	env := newLoginEnv(t)
	created := env.fixtures.CreateIndividual("maria@example.com.br", "52998224725")

	resp, err := env.login("maria@example.com.br", env.fixtures.Password)
	require.NoError(t, err)

	require.NoError(t, env.accounts.UpdateActiveStatus(context.Background(), created.ID, false))

	_, err = env.flow.RefreshSession(context.Background(), *resp.Session.RefreshToken, nil)
	rejection, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, RejectionAccountDisabled, rejection.Reason)
}
