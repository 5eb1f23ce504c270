package businessflow

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servicosdigitais/plataforma/app/dto"
	"github.com/servicosdigitais/plataforma/models"
	testutil "github.com/servicosdigitais/plataforma/testing"
	"github.com/servicosdigitais/plataforma/utils"
)

type adminEnv struct {
	fixtures *testutil.TestFixtures
	accounts *testutil.FakeAccountRepository
	sessions *testutil.FakeAccountSessionRepository
	services *testutil.FakeOfferedServiceRepository
	audits   *testutil.FakeAuditLogRepository
	clock    *testutil.ManualClock
	flow     AdminFlow
}

func newAdminEnv(t *testing.T) *adminEnv {
	t.Helper()

	accounts := testutil.NewFakeAccountRepository()
	types := testutil.NewFakeAccountTypeRepository()
	sessions := testutil.NewFakeAccountSessionRepository()
	serviceRepo := testutil.NewFakeOfferedServiceRepository()
	audits := testutil.NewFakeAuditLogRepository()
	fixtures := testutil.NewTestFixtures(accounts, types)
	clock := testutil.NewManualClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))

	flow := NewAdminFlow(accounts, sessions, serviceRepo, audits, nil, clock)
	return &adminEnv{
		fixtures: fixtures,
		accounts: accounts,
		sessions: sessions,
		services: serviceRepo,
		audits:   audits,
		clock:    clock,
		flow:     flow,
	}
}

func (env *adminEnv) openSession(t *testing.T, accountID uint) *models.AccountSession {
	t.Helper()
	session := &models.AccountSession{
		CorrelationID: uuid.New(),
		AccountID:     accountID,
		SessionToken:  uuid.NewString(),
		RefreshToken:  utils.ToPtr(uuid.NewString()),
		IsActive:      utils.ToPtr(true),
		CreatedAt:     time.Now(),
		ExpiresAt:     time.Now().Add(time.Hour),
	}
	require.NoError(t, env.sessions.Save(context.Background(), session))
	return session
}

func TestAdminOperationsRequireAdmin(t *testing.T) {
	env := newAdminEnv(t)
	ctx := context.Background()
	metadata := NewClientMetadata("10.0.0.1", "test")

	regular := env.fixtures.CreateIndividual("maria@example.com.br", "52998224725")
	target := env.fixtures.CreateIndividual("alvo@example.com.br", "12345678909")

	_, err := env.flow.ListAccounts(ctx, regular.ID, nil, 1, 20)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	err = env.flow.SetActiveStatus(ctx, regular.ID, target.ID, false, metadata)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	err = env.flow.SoftDeleteAccount(ctx, regular.ID, target.ID, metadata)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	_, err = env.flow.ExportAccountsXLSX(ctx, regular.ID, nil)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	_, err = env.flow.ListAccounts(ctx, 9999, nil, 1, 20)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestListAccountsFilters(t *testing.T) {
	env := newAdminEnv(t)
	ctx := context.Background()

	admin := env.fixtures.CreateAdmin("admin@example.com.br", "11144477735")
	env.fixtures.CreateIndividual("maria@example.com.br", "52998224725")
	env.fixtures.CreateCompany("empresa@example.com.br", "11222333000181")
	env.fixtures.CreateProvider("prestador@example.com.br", "11444777000161", false)

	all, err := env.flow.ListAccounts(ctx, admin.ID, nil, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(4), all.Total)

	kind := models.AccountTypeProvider
	providers, err := env.flow.ListAccounts(ctx, admin.ID, &dto.AdminAccountFilter{Kind: &kind}, 1, 20)
	require.NoError(t, err)
	require.Len(t, providers.Accounts, 1)
	assert.Equal(t, "prestador@example.com.br", providers.Accounts[0].Email)
	assert.False(t, utils.IsTrue(providers.Accounts[0].IsActive))

	search := "exemplo"
	found, err := env.flow.ListAccounts(ctx, admin.ID, &dto.AdminAccountFilter{Search: &search}, 1, 20)
	require.NoError(t, err)
	require.Len(t, found.Accounts, 1)
	require.NotNil(t, found.Accounts[0].LegalName)
	assert.Equal(t, "Comercio Exemplo Ltda", *found.Accounts[0].LegalName)

	_, err = env.flow.ListAccounts(ctx, admin.ID, nil, 0, 20)
	assert.ErrorIs(t, err, ErrInvalidPage)
	_, err = env.flow.ListAccounts(ctx, admin.ID, nil, 1, 101)
	assert.ErrorIs(t, err, ErrInvalidPageSize)
}

func TestSetActiveStatusApprovesProvider(t *testing.T) {
	env := newAdminEnv(t)
	ctx := context.Background()
	metadata := NewClientMetadata("10.0.0.1", "test")

	admin := env.fixtures.CreateAdmin("admin@example.com.br", "11144477735")
	pending := env.fixtures.CreateProvider("prestador@example.com.br", "11222333000181", false)

	require.NoError(t, env.flow.SetActiveStatus(ctx, admin.ID, pending.ID, true, metadata))

	stored, err := env.accounts.ByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.True(t, utils.IsTrue(stored.IsActive))

	logs, err := env.audits.ListByAction(ctx, models.AuditActionAccountActivated, 10, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.NotNil(t, logs[0].AccountID)
	assert.Equal(t, pending.ID, *logs[0].AccountID)
}

func TestDeactivationExpiresSessions(t *testing.T) {
	env := newAdminEnv(t)
	ctx := context.Background()
	metadata := NewClientMetadata("10.0.0.1", "test")

	admin := env.fixtures.CreateAdmin("admin@example.com.br", "11144477735")
	target := env.fixtures.CreateIndividual("maria@example.com.br", "52998224725")
	session := env.openSession(t, target.ID)

	require.NoError(t, env.flow.SetActiveStatus(ctx, admin.ID, target.ID, false, metadata))

	stored, err := env.accounts.ByID(ctx, target.ID)
	require.NoError(t, err)
	assert.False(t, utils.IsTrue(stored.IsActive))

	live, err := env.sessions.ListActiveSessionsByAccount(ctx, target.ID)
	require.NoError(t, err)
	assert.Empty(t, live)

	dead, err := env.sessions.BySessionToken(ctx, session.SessionToken)
	require.NoError(t, err)
	assert.Nil(t, dead)

	logs, err := env.audits.ListByAction(ctx, models.AuditActionAccountDeactivated, 10, 0)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestSetAdminStatus(t *testing.T) {
	env := newAdminEnv(t)
	ctx := context.Background()
	metadata := NewClientMetadata("10.0.0.1", "test")

	admin := env.fixtures.CreateAdmin("admin@example.com.br", "11144477735")
	target := env.fixtures.CreateIndividual("maria@example.com.br", "52998224725")

	require.NoError(t, env.flow.SetAdminStatus(ctx, admin.ID, target.ID, true, metadata))
	stored, err := env.accounts.ByID(ctx, target.ID)
	require.NoError(t, err)
	assert.True(t, utils.IsTrue(stored.IsAdmin))

	require.NoError(t, env.flow.SetAdminStatus(ctx, admin.ID, target.ID, false, metadata))
	stored, err = env.accounts.ByID(ctx, target.ID)
	require.NoError(t, err)
	assert.False(t, utils.IsTrue(stored.IsAdmin))

	granted, err := env.audits.ListByAction(ctx, models.AuditActionAdminGranted, 10, 0)
	require.NoError(t, err)
	assert.Len(t, granted, 1)
	revoked, err := env.audits.ListByAction(ctx, models.AuditActionAdminRevoked, 10, 0)
	require.NoError(t, err)
	assert.Len(t, revoked, 1)
}

func TestSoftDeleteHidesAccountAndKillsSessions(t *testing.T) {
	env := newAdminEnv(t)
	ctx := context.Background()
	metadata := NewClientMetadata("10.0.0.1", "test")

	admin := env.fixtures.CreateAdmin("admin@example.com.br", "11144477735")
	target := env.fixtures.CreateIndividual("maria@example.com.br", "52998224725")
	env.openSession(t, target.ID)

	require.NoError(t, env.flow.SoftDeleteAccount(ctx, admin.ID, target.ID, metadata))

	stored, err := env.accounts.ByID(ctx, target.ID)
	require.NoError(t, err)
	assert.True(t, utils.IsTrue(stored.IsExcluded))
	assert.False(t, utils.IsTrue(stored.IsActive))

	live, err := env.sessions.ListActiveSessionsByAccount(ctx, target.ID)
	require.NoError(t, err)
	assert.Empty(t, live)

	logs, err := env.audits.ListByAction(ctx, models.AuditActionAccountExcluded, 10, 0)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestHardDeleteRemovesAccount(t *testing.T) {
	env := newAdminEnv(t)
	ctx := context.Background()
	metadata := NewClientMetadata("10.0.0.1", "test")

	admin := env.fixtures.CreateAdmin("admin@example.com.br", "11144477735")
	otherAdmin := env.fixtures.CreateAdmin("chefe@example.com.br", "12345678909")
	target := env.fixtures.CreateProvider("prestador@example.com.br", "11222333000181", true)
	env.openSession(t, target.ID)

	err := env.flow.HardDeleteAccount(ctx, admin.ID, otherAdmin.ID, metadata)
	assert.ErrorIs(t, err, ErrAdminNotDeletable)

	require.NoError(t, env.flow.HardDeleteAccount(ctx, admin.ID, target.ID, metadata))

	stored, err := env.accounts.ByID(ctx, target.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)

	err = env.flow.HardDeleteAccount(ctx, admin.ID, target.ID, metadata)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	// The deletion entry hangs off the acting admin
	logs, err := env.audits.ListByAction(ctx, models.AuditActionAccountDeleted, 10, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.NotNil(t, logs[0].AccountID)
	assert.Equal(t, admin.ID, *logs[0].AccountID)
}

func TestExportAccountsXLSX(t *testing.T) {
	env := newAdminEnv(t)
	ctx := context.Background()

	admin := env.fixtures.CreateAdmin("admin@example.com.br", "11144477735")
	env.fixtures.CreateIndividual("maria@example.com.br", "52998224725")
	env.fixtures.CreateCompany("empresa@example.com.br", "11222333000181")

	data, err := env.flow.ExportAccountsXLSX(ctx, admin.ID, nil)
	require.NoError(t, err)
	require.NotEmpty(t, data)
	// XLSX files are zip archives
	assert.True(t, bytes.HasPrefix(data, []byte("PK")))

	kind := models.AccountTypeCompany
	filtered, err := env.flow.ExportAccountsXLSX(ctx, admin.ID, &dto.AdminAccountFilter{Kind: &kind})
	require.NoError(t, err)
	assert.NotEmpty(t, filtered)
}
