package testing

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/servicosdigitais/plataforma/models"
	"github.com/servicosdigitais/plataforma/utils"
	"golang.org/x/crypto/bcrypt"
)

// TestFixtures seeds the in-memory repositories with accounts of each kind.
// The default password for every fixture account is Password.
type TestFixtures struct {
	Accounts *FakeAccountRepository
	Types    map[string]*models.AccountType

	// Password is the plaintext behind every fixture account's hash.
	Password string
}

// NewTestFixtures seeds the three account kinds and returns a fixture helper.
func NewTestFixtures(accounts *FakeAccountRepository, types *FakeAccountTypeRepository) *TestFixtures {
	return &TestFixtures{
		Accounts: accounts,
		Types:    types.SeedDefaultTypes(),
		Password: "Str0ng!Senha",
	}
}

// HashPassword hashes the fixture password with the minimum bcrypt cost to
// keep tests fast.
func (tf *TestFixtures) HashPassword() string {
	hash, err := bcrypt.GenerateFromPassword([]byte(tf.Password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(hash)
}

// CreateIndividual stores an active individual account with a valid CPF.
func (tf *TestFixtures) CreateIndividual(email, cpf string) *models.Account {
	t := tf.Types[models.AccountTypeIndividual]
	account := &models.Account{
		UUID:          uuid.New(),
		AccountTypeID: t.ID,
		AccountType:   *t,
		CPF:           utils.ToPtr(cpf),
		FirstName:     "Maria",
		LastName:      utils.ToPtr("Silva"),
		Email:         email,
		PasswordHash:  tf.HashPassword(),
		ProfilePhoto:  utils.DefaultProfilePhoto,
		IsActive:      utils.ToPtr(true),
		IsAdmin:       utils.ToPtr(false),
		IsExcluded:    utils.ToPtr(false),
	}
	if err := tf.Accounts.Save(context.Background(), account); err != nil {
		panic(err)
	}
	return account
}

// CreateCompany stores an active company account with a valid CNPJ.
func (tf *TestFixtures) CreateCompany(email, cnpj string) *models.Account {
	t := tf.Types[models.AccountTypeCompany]
	legalName := "Comercio Exemplo Ltda"
	account := &models.Account{
		UUID:          uuid.New(),
		AccountTypeID: t.ID,
		AccountType:   *t,
		CNPJ:          utils.ToPtr(cnpj),
		LegalName:     utils.ToPtr(legalName),
		FirstName:     legalName,
		Email:         email,
		PasswordHash:  tf.HashPassword(),
		ProfilePhoto:  utils.DefaultProfilePhoto,
		IsActive:      utils.ToPtr(true),
		IsAdmin:       utils.ToPtr(false),
		IsExcluded:    utils.ToPtr(false),
	}
	if err := tf.Accounts.Save(context.Background(), account); err != nil {
		panic(err)
	}
	return account
}

// CreateProvider stores a provider account. Providers start inactive until
// approved; pass active to control the flag.
func (tf *TestFixtures) CreateProvider(email, cnpj string, active bool) *models.Account {
	t := tf.Types[models.AccountTypeProvider]
	legalName := "Servicos Tecnicos ME"
	account := &models.Account{
		UUID:          uuid.New(),
		AccountTypeID: t.ID,
		AccountType:   *t,
		CNPJ:          utils.ToPtr(cnpj),
		LegalName:     utils.ToPtr(legalName),
		Specialty:     utils.ToPtr("eletricista"),
		FirstName:     legalName,
		Email:         email,
		PasswordHash:  tf.HashPassword(),
		ProfilePhoto:  utils.DefaultProfilePhoto,
		IsActive:      utils.ToPtr(active),
		IsAdmin:       utils.ToPtr(false),
		IsExcluded:    utils.ToPtr(false),
	}
	if err := tf.Accounts.Save(context.Background(), account); err != nil {
		panic(err)
	}
	return account
}

// CreateAdmin stores an active individual account with the admin flag set.
func (tf *TestFixtures) CreateAdmin(email, cpf string) *models.Account {
	account := tf.CreateIndividual(email, cpf)
	account.IsAdmin = utils.ToPtr(true)
	return account
}

// RandomEmail returns a unique address for fixtures that need one.
func RandomEmail() string {
	return fmt.Sprintf("user%09d@example.com.br", rand.Intn(1000000000))
}
