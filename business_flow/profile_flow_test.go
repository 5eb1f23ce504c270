package businessflow

import (
	"bytes"
	"context"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/servicosdigitais/plataforma/app/dto"
	"github.com/servicosdigitais/plataforma/app/services"
	testutil "github.com/servicosdigitais/plataforma/testing"
	"github.com/servicosdigitais/plataforma/utils"
)

type profileEnv struct {
	fixtures  *testutil.TestFixtures
	accounts  *testutil.FakeAccountRepository
	audits    *testutil.FakeAuditLogRepository
	passwords services.PasswordService
	uploadDir string
	clock     *testutil.ManualClock
	flow      ProfileFlow
}

func newProfileEnv(t *testing.T) *profileEnv {
	t.Helper()

	accounts := testutil.NewFakeAccountRepository()
	types := testutil.NewFakeAccountTypeRepository()
	audits := testutil.NewFakeAuditLogRepository()
	fixtures := testutil.NewTestFixtures(accounts, types)
	clock := testutil.NewManualClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	passwords := services.NewPasswordService(bcrypt.MinCost)
	uploadDir := t.TempDir()

	flow := NewProfileFlow(accounts, audits, passwords, uploadDir, nil, clock)
	return &profileEnv{
		fixtures:  fixtures,
		accounts:  accounts,
		audits:    audits,
		passwords: passwords,
		uploadDir: uploadDir,
		clock:     clock,
		flow:      flow,
	}
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestGetProfile(t *testing.T) {
	env := newProfileEnv(t)
	ctx := context.Background()

	account := env.fixtures.CreateIndividual("maria@example.com.br", "52998224725")

	profile, err := env.flow.GetProfile(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "maria@example.com.br", profile.Email)
	assert.Equal(t, "Maria", profile.FirstName)

	_, err = env.flow.GetProfile(ctx, 9999)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	require.NoError(t, env.accounts.MarkExcluded(ctx, account.ID))
	_, err = env.flow.GetProfile(ctx, account.ID)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestUpdateProfileFields(t *testing.T) {
	env := newProfileEnv(t)
	ctx := context.Background()
	metadata := NewClientMetadata("10.0.0.1", "test")

	account := env.fixtures.CreateIndividual("maria@example.com.br", "52998224725")

	updated, err := env.flow.UpdateProfile(ctx, account.ID, &dto.UpdateProfileRequest{
		FirstName: utils.ToPtr("  Mariana  "),
		LastName:  utils.ToPtr("Souza"),
		Phone:     utils.ToPtr("+5511998765432"),
	}, metadata)
	require.NoError(t, err)
	assert.Equal(t, "Mariana", updated.FirstName)
	require.NotNil(t, updated.LastName)
	assert.Equal(t, "Souza", *updated.LastName)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, "+5511998765432", *updated.Phone)

	stored, err := env.accounts.ByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mariana", stored.FirstName)
}

func TestUpdateProfileEmailUniqueness(t *testing.T) {
	env := newProfileEnv(t)
	ctx := context.Background()
	metadata := NewClientMetadata("10.0.0.1", "test")

	account := env.fixtures.CreateIndividual("maria@example.com.br", "52998224725")
	env.fixtures.CreateIndividual("ocupado@example.com.br", "12345678909")

	_, err := env.flow.UpdateProfile(ctx, account.ID, &dto.UpdateProfileRequest{
		Email: utils.ToPtr("Ocupado@Example.com.br"),
	}, metadata)
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)

	// Re-submitting the account's own address is a no-op, not a conflict
	updated, err := env.flow.UpdateProfile(ctx, account.ID, &dto.UpdateProfileRequest{
		Email: utils.ToPtr("MARIA@example.com.br"),
	}, metadata)
	require.NoError(t, err)
	assert.Equal(t, "maria@example.com.br", updated.Email)

	updated, err = env.flow.UpdateProfile(ctx, account.ID, &dto.UpdateProfileRequest{
		Email: utils.ToPtr("Novo@Example.com.br"),
	}, metadata)
	require.NoError(t, err)
	assert.Equal(t, "novo@example.com.br", updated.Email)
}

func TestUpdateProfileKindSpecificFields(t *testing.T) {
	env := newProfileEnv(t)
	ctx := context.Background()
	metadata := NewClientMetadata("10.0.0.1", "test")

	provider := env.fixtures.CreateProvider("prestador@example.com.br", "11222333000181", true)
	individual := env.fixtures.CreateIndividual("maria@example.com.br", "52998224725")

	_, err := env.flow.UpdateProfile(ctx, provider.ID, &dto.UpdateProfileRequest{
		LegalName: utils.ToPtr("  "),
	}, metadata)
	assert.ErrorIs(t, err, ErrLegalNameRequired)

	_, err = env.flow.UpdateProfile(ctx, provider.ID, &dto.UpdateProfileRequest{
		Specialty: utils.ToPtr(" "),
	}, metadata)
	assert.ErrorIs(t, err, ErrSpecialtyRequired)

	updated, err := env.flow.UpdateProfile(ctx, provider.ID, &dto.UpdateProfileRequest{
		LegalName: utils.ToPtr("Eletro Souza ME"),
		Specialty: utils.ToPtr("encanador"),
	}, metadata)
	require.NoError(t, err)
	require.NotNil(t, updated.LegalName)
	assert.Equal(t, "Eletro Souza ME", *updated.LegalName)
	assert.Equal(t, "Eletro Souza ME", updated.FirstName)
	require.NotNil(t, updated.Specialty)
	assert.Equal(t, "encanador", *updated.Specialty)

	// Kind-specific fields on an individual are ignored, not rejected
	ignored, err := env.flow.UpdateProfile(ctx, individual.ID, &dto.UpdateProfileRequest{
		LegalName: utils.ToPtr("Nao Sou Empresa"),
		Specialty: utils.ToPtr("pintor"),
	}, metadata)
	require.NoError(t, err)
	assert.Nil(t, ignored.LegalName)
	assert.Nil(t, ignored.Specialty)
	assert.Equal(t, "Maria", ignored.FirstName)
}

func TestChangePassword(t *testing.T) {
	env := newProfileEnv(t)
	ctx := context.Background()
	metadata := NewClientMetadata("10.0.0.1", "test")

	account := env.fixtures.CreateIndividual("maria@example.com.br", "52998224725")

	err := env.flow.ChangePassword(ctx, account.ID, &dto.ChangePasswordRequest{
		CurrentPassword: "senha errada",
		NewPassword:     "Out raF0rte!",
		ConfirmPassword: "Out raF0rte!",
	}, metadata)
	assert.ErrorIs(t, err, ErrIncorrectPassword)

	err = env.flow.ChangePassword(ctx, account.ID, &dto.ChangePasswordRequest{
		CurrentPassword: env.fixtures.Password,
		NewPassword:     "fraca",
		ConfirmPassword: "fraca",
	}, metadata)
	assert.ErrorIs(t, err, ErrWeakPassword)

	err = env.flow.ChangePassword(ctx, account.ID, &dto.ChangePasswordRequest{
		CurrentPassword: env.fixtures.Password,
		NewPassword:     "N0va!SenhaForte",
		ConfirmPassword: "N0va!SenhaDiferente",
	}, metadata)
	assert.ErrorIs(t, err, ErrPasswordMismatch)

	err = env.flow.ChangePassword(ctx, account.ID, &dto.ChangePasswordRequest{
		CurrentPassword: env.fixtures.Password,
		NewPassword:     "N0va!SenhaForte",
		ConfirmPassword: "N0va!SenhaForte",
	}, metadata)
	require.NoError(t, err)

	stored, err := env.accounts.ByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, env.passwords.Verify(stored.PasswordHash, "N0va!SenhaForte"))
	assert.False(t, env.passwords.Verify(stored.PasswordHash, env.fixtures.Password))
}

func TestSetHideSensitiveData(t *testing.T) {
	env := newProfileEnv(t)
	ctx := context.Background()

	provider := env.fixtures.CreateProvider("prestador@example.com.br", "11222333000181", true)

	require.NoError(t, env.flow.SetHideSensitiveData(ctx, provider.ID, true))
	stored, err := env.accounts.ByID(ctx, provider.ID)
	require.NoError(t, err)
	assert.True(t, utils.IsTrue(stored.HideSensitiveData))

	require.NoError(t, env.flow.SetHideSensitiveData(ctx, provider.ID, false))
	stored, err = env.accounts.ByID(ctx, provider.ID)
	require.NoError(t, err)
	assert.False(t, utils.IsTrue(stored.HideSensitiveData))
}

func TestUpdatePhotoResizesAndStores(t *testing.T) {
	env := newProfileEnv(t)
	ctx := context.Background()
	metadata := NewClientMetadata("10.0.0.1", "test")

	account := env.fixtures.CreateIndividual("maria@example.com.br", "52998224725")

	profile, err := env.flow.UpdatePhoto(ctx, account.ID, pngBytes(t, 900, 600), metadata)
	require.NoError(t, err)
	assert.NotEqual(t, utils.DefaultProfilePhoto, profile.ProfilePhoto)
	assert.Equal(t, ".jpg", filepath.Ext(profile.ProfilePhoto))

	stored, err := os.ReadFile(filepath.Join(env.uploadDir, profile.ProfilePhoto))
	require.NoError(t, err)
	thumb, format, err := image.Decode(bytes.NewReader(stored))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, utils.ProfilePhotoSize, thumb.Bounds().Dx())
	assert.Equal(t, utils.ProfilePhotoSize, thumb.Bounds().Dy())
}

func TestUpdatePhotoRemovesPreviousFile(t *testing.T) {
	env := newProfileEnv(t)
	ctx := context.Background()
	metadata := NewClientMetadata("10.0.0.1", "test")

	account := env.fixtures.CreateIndividual("maria@example.com.br", "52998224725")

	first, err := env.flow.UpdatePhoto(ctx, account.ID, pngBytes(t, 300, 300), metadata)
	require.NoError(t, err)
	second, err := env.flow.UpdatePhoto(ctx, account.ID, pngBytes(t, 300, 300), metadata)
	require.NoError(t, err)
	assert.NotEqual(t, first.ProfilePhoto, second.ProfilePhoto)

	_, err = os.Stat(filepath.Join(env.uploadDir, first.ProfilePhoto))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(env.uploadDir, second.ProfilePhoto))
	assert.NoError(t, err)
}

func TestUpdatePhotoRejectsInvalidImage(t *testing.T) {
	env := newProfileEnv(t)
	ctx := context.Background()

	account := env.fixtures.CreateIndividual("maria@example.com.br", "52998224725")

	_, err := env.flow.UpdatePhoto(ctx, account.ID, []byte("this is not an image"), NewClientMetadata("10.0.0.1", "test"))
	assert.ErrorIs(t, err, ErrInvalidProfilePhoto)
}
