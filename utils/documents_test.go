package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyDocument(t *testing.T) {
	assert.Equal(t, DocumentIndividual, ClassifyDocument("52998224725"))
	assert.Equal(t, DocumentCompany, ClassifyDocument("11222333000181"))
	assert.Equal(t, DocumentUnknown, ClassifyDocument(""))
	assert.Equal(t, DocumentUnknown, ClassifyDocument("123456"))
	assert.Equal(t, DocumentUnknown, ClassifyDocument("123456789012345"))
}

func TestStripNonDigits(t *testing.T) {
	assert.Equal(t, "12345678909", StripNonDigits("123.456.789-09"))
	assert.Equal(t, "11222333000181", StripNonDigits("11.222.333/0001-81"))
	assert.Equal(t, "", StripNonDigits("abc-./"))
}

func TestValidateCPF(t *testing.T) {
	tests := []struct {
		name   string
		digits string
		want   bool
	}{
		{"valid", "52998224725", true},
		{"valid second", "11144477735", true},
		{"repeated digits", "11111111111", false},
		{"all zeros", "00000000000", false},
		{"bad first check digit", "52998224735", false},
		{"bad second check digit", "52998224726", false},
		{"too short", "5299822472", false},
		{"too long", "529982247250", false},
		{"non numeric", "5299822472a", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateCPF(tt.digits))
		})
	}
}

func TestValidateCNPJ(t *testing.T) {
	tests := []struct {
		name   string
		digits string
		want   bool
	}{
		{"valid", "11222333000181", true},
		{"repeated digits", "11111111111111", false},
		{"all zeros", "00000000000000", false},
		{"bad check digit", "11222333000182", false},
		{"too short", "1122233300018", false},
		{"cpf length", "52998224725", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateCNPJ(tt.digits))
		})
	}
}

func TestLooksLikeEmail(t *testing.T) {
	assert.True(t, LooksLikeEmail("user@example.com"))
	assert.True(t, LooksLikeEmail("a@b@c.com"))
	assert.False(t, LooksLikeEmail("user@localhost"))
	assert.False(t, LooksLikeEmail("123.456.789-09"))
	assert.False(t, LooksLikeEmail("no-at-sign.com"))
}

func TestIsStrongPassword(t *testing.T) {
	assert.True(t, IsStrongPassword("Abc12!"))
	assert.True(t, IsStrongPassword("Sup3r#Secreta"))
	assert.False(t, IsStrongPassword("Ab1!"))       // too short
	assert.False(t, IsStrongPassword("abc123!!"))   // no upper
	assert.False(t, IsStrongPassword("ABC123!!"))   // no lower
	assert.False(t, IsStrongPassword("Abcdef!!"))   // no digit
	assert.False(t, IsStrongPassword("Abcdef12"))   // no symbol
}