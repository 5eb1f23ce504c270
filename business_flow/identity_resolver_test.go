package businessflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutil "github.com/servicosdigitais/plataforma/testing"
)

func newResolverEnv(t *testing.T) (*testutil.TestFixtures, IdentityResolver) {
	t.Helper()
	accountRepo := testutil.NewFakeAccountRepository()
	typeRepo := testutil.NewFakeAccountTypeRepository()
	fixtures := testutil.NewTestFixtures(accountRepo, typeRepo)
	return fixtures, NewIdentityResolver(accountRepo)
}

func TestResolveByEmailIsCaseInsensitive(t *testing.T) {
	fixtures, resolver := newResolverEnv(t)
	created := fixtures.CreateIndividual("maria@example.com.br", "52998224725")

	account, err := resolver.Resolve(context.Background(), "MARIA@Example.com.BR")
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, created.ID, account.ID)
}

func TestResolveByFormattedCPF(t *testing.T) {
	fixtures, resolver := newResolverEnv(t)
	created := fixtures.CreateIndividual("joao@example.com.br", "12345678909")

	account, err := resolver.Resolve(context.Background(), "123.456.789-09")
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, created.ID, account.ID)
}

func TestResolveByFormattedCNPJ(t *testing.T) {
	fixtures, resolver := newResolverEnv(t)
	created := fixtures.CreateCompany("empresa@example.com.br", "11222333000181")

	account, err := resolver.Resolve(context.Background(), "11.222.333/0001-81")
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, created.ID, account.ID)
}

func TestResolveCNPJPrefersCompanyOverProvider(t *testing.T) {
	fixtures, resolver := newResolverEnv(t)

	// Companies and providers share the 14-digit namespace; when both hold
	// the same document the company must win.
	provider := fixtures.CreateProvider("prestador@example.com.br", "11222333000181", true)
	company := fixtures.CreateCompany("empresa@example.com.br", "11222333000181")

	account, err := resolver.Resolve(context.Background(), "11222333000181")
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, company.ID, account.ID)
	assert.NotEqual(t, provider.ID, account.ID)
}

func TestResolveCNPJFallsBackToProvider(t *testing.T) {
	fixtures, resolver := newResolverEnv(t)
	provider := fixtures.CreateProvider("prestador@example.com.br", "11444777000161", true)

	account, err := resolver.Resolve(context.Background(), "11444777000161")
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, provider.ID, account.ID)
}

func TestResolveUnknownIdentifiers(t *testing.T) {
	fixtures, resolver := newResolverEnv(t)
	fixtures.CreateIndividual("maria@example.com.br", "52998224725")

	cases := []struct {
		name       string
		identifier string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"unknown email", "ninguem@example.com.br"},
		{"unknown cpf", "11144477735"},
		{"odd digit length", "1234567"},
		{"free text", "not an identifier"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			account, err := resolver.Resolve(context.Background(), tc.identifier)
			require.NoError(t, err)
			assert.Nil(t, account)
		})
	}
}
