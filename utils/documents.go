// Package utils provides utility functions for the application.
package utils

import (
	"strings"
	"unicode"
)

// DocumentKind is the classification of a national identification number by
// its digit count.
type DocumentKind string

const (
	// DocumentIndividual is an 11-digit CPF
	DocumentIndividual DocumentKind = "individual"

	// DocumentCompany is a 14-digit CNPJ
	DocumentCompany DocumentKind = "company"

	// DocumentUnknown is anything else
	DocumentUnknown DocumentKind = "unknown"
)

// StripNonDigits removes every non-digit rune from s.
func StripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ClassifyDocument classifies a digit string by length: 11 digits is an
// individual document (CPF), 14 digits a company document (CNPJ).
func ClassifyDocument(digits string) DocumentKind {
	switch len(digits) {
	case 11:
		return DocumentIndividual
	case 14:
		return DocumentCompany
	default:
		return DocumentUnknown
	}
}

// allSameDigit reports whether s consists of a single repeated digit.
// Sequences like "00000000000" satisfy the checksum but are not issued
// documents.
func allSameDigit(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

// checksumDigit computes one mod-11 verification digit over digits using the
// given weight table. Remainders below 2 map to 0.
func checksumDigit(digits string, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += int(digits[i]-'0') * w
	}
	rem := sum % 11
	if rem < 2 {
		return 0
	}
	return 11 - rem
}

// ValidateCPF reports whether digits is a well-formed 11-digit CPF. The two
// trailing digits must match the mod-11 checksum of the leading nine.
func ValidateCPF(digits string) bool {
	if len(digits) != 11 || !isAllDigits(digits) || allSameDigit(digits) {
		return false
	}

	first := []int{10, 9, 8, 7, 6, 5, 4, 3, 2}
	if checksumDigit(digits[:9], first) != int(digits[9]-'0') {
		return false
	}

	second := []int{11, 10, 9, 8, 7, 6, 5, 4, 3, 2}
	return checksumDigit(digits[:10], second) == int(digits[10]-'0')
}

// ValidateCNPJ reports whether digits is a well-formed 14-digit CNPJ. The
// weight tables are the registry's right-aligned sequences.
func ValidateCNPJ(digits string) bool {
	if len(digits) != 14 || !isAllDigits(digits) || allSameDigit(digits) {
		return false
	}

	first := []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	if checksumDigit(digits[:12], first) != int(digits[12]-'0') {
		return false
	}

	second := []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	return checksumDigit(digits[:13], second) == int(digits[13]-'0')
}

// LooksLikeEmail reports whether identifier should be treated as an email
// address: it contains an '@' and the part after the last '@' contains a dot.
func LooksLikeEmail(identifier string) bool {
	at := strings.LastIndex(identifier, "@")
	if at < 0 {
		return false
	}
	return strings.Contains(identifier[at+1:], ".")
}

// IsStrongPassword reports whether p satisfies the account password policy:
// at least six characters with an upper-case letter, a lower-case letter, a
// digit and a symbol.
func IsStrongPassword(p string) bool {
	if len(p) < 6 {
		return false
	}
	var upper, lower, digit, special bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}
	return upper && lower && digit && special
}

func isAllDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
