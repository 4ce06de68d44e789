package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"+1 (415) 555-1234":  "+14155551234",
		"14155551234":        "+14155551234",
		"+852 9123 4567":     "+85291234567",
		"  +44 20 7946 0958": "+442079460958",
		"abc":                "+",
		"":                   "+",
		"++12":               "+12",
		"1+2":                "+12",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "input %q", in)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"+1 (415) 555-1234", "abc123", "++0", "", "  +  ", "12-34+56", "+852 9123 4567"}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("+14155551234"))
	assert.True(t, IsValid("14155551234"))
	assert.True(t, IsValid("+1 415 555 1234"))
	assert.True(t, IsValid("+1234567"))          // 7 digits
	assert.True(t, IsValid("+123456789012345"))  // 15 digits
	assert.False(t, IsValid("123"))              // too short
	assert.False(t, IsValid("+0123456789"))      // leading zero
	assert.False(t, IsValid("+0123"))
	assert.False(t, IsValid("+1234567890123456")) // 16 digits
	assert.False(t, IsValid("call me maybe"))
	assert.False(t, IsValid(""))
}
