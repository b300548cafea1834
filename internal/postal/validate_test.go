package postal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckEstablishment(t *testing.T) {
	assert.NoError(t, CheckEstablishment("restaurant"))
	assert.NoError(t, CheckEstablishment("veterinary_care"))

	err := CheckEstablishment("speakeasy")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "speakeasy", vErr.Value)
	assert.Contains(t, vErr.Accepted, "restaurant")
	assert.Contains(t, err.Error(), "restaurant")
}

func TestCheckStateCode(t *testing.T) {
	assert.NoError(t, CheckStateCode("DE"))
	assert.NoError(t, CheckStateCode("AP")) // military mail

	err := CheckStateCode("XX")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Accepted, "DE")
}

func TestCheckCountryCode(t *testing.T) {
	assert.NoError(t, CheckCountryCode("US"))
	assert.NoError(t, CheckCountryCode("CH"))

	err := CheckCountryCode("USA")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "country code", vErr.Field)
}

func TestValidationError_IsNotWrapped(t *testing.T) {
	// errors.As must see through nothing: the error is surfaced as-is.
	err := CheckStateCode("ZZ")
	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))
}

func TestEstablishmentsSortedCopy(t *testing.T) {
	a := Establishments()
	b := Establishments()
	a[0] = "mutated"
	assert.NotEqual(t, a[0], b[0], "callers must not share the backing array")
	assert.Len(t, b, 91)
}

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"10001", "10001"},
		{"501", "00501"},
		{" 7090 ", "07090"},
		{"", ""},
		{"SW1A 1AA", "SW1A 1AA"}, // non-US codes pass through
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeCode(tt.in), "input %q", tt.in)
	}
}
