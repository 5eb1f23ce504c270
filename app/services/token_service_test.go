package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestTokenService(t *testing.T) TokenService {
	t.Helper()
	svc, err := NewTokenService(15*time.Minute, 24*time.Hour, 30*24*time.Hour, "plataforma-test", "plataforma-api", false, "", "", testSecret)
	require.NoError(t, err)
	return svc
}

func TestTokenServiceRequiresSecret(t *testing.T) {
	_, err := NewTokenService(time.Minute, time.Hour, time.Hour, "iss", "aud", false, "", "", "")
	assert.Error(t, err)
}

func TestTokenServiceRequiresRSAKeyPair(t *testing.T) {
	_, err := NewTokenService(time.Minute, time.Hour, time.Hour, "iss", "aud", true, "", "", "")
	assert.Error(t, err)

	_, err = NewTokenService(time.Minute, time.Hour, time.Hour, "iss", "aud", true, "garbage", "garbage", "")
	assert.Error(t, err)
}

func TestGenerateAndValidateTokens(t *testing.T) {
	svc := newTestTokenService(t)

	access, refresh, err := svc.GenerateTokens(42, false)
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	assert.NotEqual(t, access, refresh)

	accessClaims, err := svc.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, uint(42), accessClaims.AccountID)
	assert.Equal(t, "access", accessClaims.TokenType)
	assert.False(t, accessClaims.Remembered)
	assert.NotEmpty(t, accessClaims.TokenID)
	assert.True(t, accessClaims.ExpiresAt.After(accessClaims.IssuedAt))

	refreshClaims, err := svc.ValidateToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "refresh", refreshClaims.TokenType)
	assert.NotEqual(t, accessClaims.TokenID, refreshClaims.TokenID)
}

func TestRememberedTokensCarryLongerRefreshTTL(t *testing.T) {
	svc := newTestTokenService(t)

	_, short, err := svc.GenerateTokens(7, false)
	require.NoError(t, err)
	_, long, err := svc.GenerateTokens(7, true)
	require.NoError(t, err)

	shortClaims, err := svc.ValidateToken(short)
	require.NoError(t, err)
	longClaims, err := svc.ValidateToken(long)
	require.NoError(t, err)

	assert.False(t, shortClaims.Remembered)
	assert.True(t, longClaims.Remembered)
	assert.True(t, longClaims.ExpiresAt.After(shortClaims.ExpiresAt))
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svc := newTestTokenService(t)
	other, err := NewTokenService(15*time.Minute, 24*time.Hour, 30*24*time.Hour, "plataforma-test", "plataforma-api", false, "", "", "another-secret-another-secret-ok")
	require.NoError(t, err)

	_, refresh, err := other.GenerateTokens(1, false)
	require.NoError(t, err)

	_, err = svc.ValidateToken(refresh)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := newTestTokenService(t)

	_, err := svc.ValidateToken("not.a.jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = svc.ValidateToken("")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	expired, err := NewTokenService(-time.Minute, -time.Minute, -time.Minute, "plataforma-test", "plataforma-api", false, "", "", testSecret)
	require.NoError(t, err)

	access, _, err := expired.GenerateTokens(9, false)
	require.NoError(t, err)

	svc := newTestTokenService(t)
	_, err = svc.ValidateToken(access)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestRefreshTokenRotation(t *testing.T) {
	svc := newTestTokenService(t)

	access, refresh, err := svc.GenerateTokens(42, true)
	require.NoError(t, err)

	newAccess, newRefresh, err := svc.RefreshToken(refresh)
	require.NoError(t, err)
	assert.NotEqual(t, access, newAccess)
	assert.NotEqual(t, refresh, newRefresh)

	claims, err := svc.ValidateToken(newRefresh)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.AccountID)
	// The remembered flag survives rotation
	assert.True(t, claims.Remembered)

	// An access token cannot be used to refresh
	_, _, err = svc.RefreshToken(access)
	assert.Error(t, err)

	_, _, err = svc.RefreshToken("garbage")
	assert.Error(t, err)
}
