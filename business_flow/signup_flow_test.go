package businessflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/servicosdigitais/plataforma/app/dto"
	"github.com/servicosdigitais/plataforma/app/services"
	"github.com/servicosdigitais/plataforma/models"
	testutil "github.com/servicosdigitais/plataforma/testing"
)

type signupEnv struct {
	fixtures *testutil.TestFixtures
	accounts *testutil.FakeAccountRepository
	audits   *testutil.FakeAuditLogRepository
	flow     SignupFlow
}

func newSignupEnv(t *testing.T) *signupEnv {
	t.Helper()

	accounts := testutil.NewFakeAccountRepository()
	types := testutil.NewFakeAccountTypeRepository()
	audits := testutil.NewFakeAuditLogRepository()
	fixtures := testutil.NewTestFixtures(accounts, types)

	flow := NewSignupFlow(accounts, types, audits, services.NewPasswordService(bcrypt.MinCost), nil, nil)
	return &signupEnv{fixtures: fixtures, accounts: accounts, audits: audits, flow: flow}
}

func validIndividualRequest() *dto.SignupRequest {
	return &dto.SignupRequest{
		Kind:            models.AccountTypeIndividual,
		FirstName:       "Maria",
		LastName:        "Silva",
		CPF:             "529.982.247-25",
		Email:           "Maria@Example.com.br",
		Password:        "Str0ng!Senha",
		ConfirmPassword: "Str0ng!Senha",
	}
}

func validProviderRequest() *dto.SignupRequest {
	return &dto.SignupRequest{
		Kind:            models.AccountTypeProvider,
		LegalName:       "Servicos Tecnicos ME",
		Specialty:       "encanador",
		CNPJ:            "11.444.777/0001-61",
		Email:           "prestador@example.com.br",
		Password:        "Str0ng!Senha",
		ConfirmPassword: "Str0ng!Senha",
	}
}

func TestSignupIndividual(t *testing.T) {
	env := newSignupEnv(t)

	resp, err := env.flow.Signup(context.Background(), validIndividualRequest(), nil)
	require.NoError(t, err)
	assert.False(t, resp.PendingApproval)
	assert.Equal(t, "maria@example.com.br", resp.Account.Email, "email is stored lower-cased")

	stored, err := env.accounts.ByCPF(context.Background(), "52998224725")
	require.NoError(t, err)
	require.NotNil(t, stored, "document is stored as bare digits")
	assert.NotEqual(t, "Str0ng!Senha", stored.PasswordHash)
}

func TestSignupProviderStartsInactive(t *testing.T) {
	env := newSignupEnv(t)

	resp, err := env.flow.Signup(context.Background(), validProviderRequest(), nil)
	require.NoError(t, err)
	assert.True(t, resp.PendingApproval)

	stored, err := env.accounts.ByEmail(context.Background(), "prestador@example.com.br")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.False(t, *stored.IsActive)
}

func TestSignupCompany(t *testing.T) {
	env := newSignupEnv(t)

	req := &dto.SignupRequest{
		Kind:            models.AccountTypeCompany,
		LegalName:       "Comercio Exemplo Ltda",
		CNPJ:            "11222333000181",
		Email:           "empresa@example.com.br",
		Password:        "Str0ng!Senha",
		ConfirmPassword: "Str0ng!Senha",
	}
	resp, err := env.flow.Signup(context.Background(), req, nil)
	require.NoError(t, err)
	assert.False(t, resp.PendingApproval)
	assert.Equal(t, "Comercio Exemplo Ltda", resp.Account.FirstName)
	require.NotNil(t, resp.Account.LegalName)
	assert.Equal(t, "Comercio Exemplo Ltda", *resp.Account.LegalName)
}

func TestSignupRejectsInvalidDocuments(t *testing.T) {
	env := newSignupEnv(t)

	req := validIndividualRequest()
	req.CPF = "11111111111"
	_, err := env.flow.Signup(context.Background(), req, nil)
	assert.ErrorIs(t, err, ErrInvalidDocument)

	prov := validProviderRequest()
	prov.CNPJ = "11222333000100"
	_, err = env.flow.Signup(context.Background(), prov, nil)
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestSignupRejectsMissingProviderFields(t *testing.T) {
	env := newSignupEnv(t)

	noSpecialty := validProviderRequest()
	noSpecialty.Specialty = "  "
	_, err := env.flow.Signup(context.Background(), noSpecialty, nil)
	assert.ErrorIs(t, err, ErrSpecialtyRequired)

	noLegalName := validProviderRequest()
	noLegalName.LegalName = ""
	_, err = env.flow.Signup(context.Background(), noLegalName, nil)
	assert.ErrorIs(t, err, ErrLegalNameRequired)
}

func TestSignupRejectsMissingFirstName(t *testing.T) {
	env := newSignupEnv(t)

	noName := validIndividualRequest()
	noName.FirstName = "   "
	_, err := env.flow.Signup(context.Background(), noName, nil)
	assert.ErrorIs(t, err, ErrFirstNameRequired)

	resolved, err := env.accounts.ByEmail(context.Background(), "maria@example.com.br")
	require.NoError(t, err)
	assert.Nil(t, resolved)
}

func TestSignupEmailUniqueAcrossKinds(t *testing.T) {
	env := newSignupEnv(t)
	env.fixtures.CreateCompany("taken@example.com.br", "11222333000181")

	req := validIndividualRequest()
	req.Email = "TAKEN@example.com.br"
	_, err := env.flow.Signup(context.Background(), req, nil)
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestSignupDocumentUniquePerKind(t *testing.T) {
	env := newSignupEnv(t)
	env.fixtures.CreateCompany("empresa@example.com.br", "11444777000161")

	// Same CNPJ under a different kind is allowed
	resp, err := env.flow.Signup(context.Background(), validProviderRequest(), nil)
	require.NoError(t, err)
	assert.True(t, resp.PendingApproval)

	// Same CNPJ under the same kind is not
	dup := &dto.SignupRequest{
		Kind:            models.AccountTypeCompany,
		LegalName:       "Outra Empresa Ltda",
		CNPJ:            "11444777000161",
		Email:           "outra@example.com.br",
		Password:        "Str0ng!Senha",
		ConfirmPassword: "Str0ng!Senha",
	}
	_, err = env.flow.Signup(context.Background(), dup, nil)
	assert.ErrorIs(t, err, ErrDocumentAlreadyExists)
}

func TestSignupPasswordRules(t *testing.T) {
	env := newSignupEnv(t)

	weak := validIndividualRequest()
	weak.Password = "fraca"
	weak.ConfirmPassword = "fraca"
	_, err := env.flow.Signup(context.Background(), weak, nil)
	assert.ErrorIs(t, err, ErrWeakPassword)

	mismatch := validIndividualRequest()
	mismatch.ConfirmPassword = "Outra!Senha1"
	_, err = env.flow.Signup(context.Background(), mismatch, nil)
	assert.ErrorIs(t, err, ErrPasswordMismatch)
}

func TestSignupUnknownKind(t *testing.T) {
	env := newSignupEnv(t)

	req := validIndividualRequest()
	req.Kind = "cooperative"
	_, err := env.flow.Signup(context.Background(), req, nil)
	assert.ErrorIs(t, err, ErrInvalidAccountKind)
}

func TestSignupWritesAuditRecord(t *testing.T) {
	env := newSignupEnv(t)

	_, err := env.flow.Signup(context.Background(), validIndividualRequest(), NewClientMetadata("10.0.0.1", "test-agent"))
	require.NoError(t, err)

	logs, err := env.audits.ListByAction(context.Background(), models.AuditActionSignupCompleted, 0, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "10.0.0.1", *logs[0].IPAddress)
}
