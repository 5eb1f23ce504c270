package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHashVerifyRoundtrip(t *testing.T) {
	svc := NewPasswordService(bcrypt.MinCost)

	hash, err := svc.Hash("Str0ng!Senha")
	require.NoError(t, err)
	assert.NotEqual(t, "Str0ng!Senha", hash)
	assert.True(t, strings.HasPrefix(hash, "$2a$"))

	assert.True(t, svc.Verify(hash, "Str0ng!Senha"))
	assert.False(t, svc.Verify(hash, "str0ng!senha"))
	assert.False(t, svc.Verify(hash, ""))
}

func TestPasswordHashesAreSalted(t *testing.T) {
	svc := NewPasswordService(bcrypt.MinCost)

	first, err := svc.Hash("Str0ng!Senha")
	require.NoError(t, err)
	second, err := svc.Hash("Str0ng!Senha")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestPasswordVerifyMalformedHash(t *testing.T) {
	svc := NewPasswordService(bcrypt.MinCost)

	assert.False(t, svc.Verify("", "Str0ng!Senha"))
	assert.False(t, svc.Verify("not-a-bcrypt-hash", "Str0ng!Senha"))
}

func TestPasswordServiceClampsCost(t *testing.T) {
	// Out-of-range costs fall back to the default instead of failing later
	svc := NewPasswordService(bcrypt.MaxCost + 1)

	hash, err := svc.Hash("Str0ng!Senha")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}
