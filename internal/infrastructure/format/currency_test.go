package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCurrency_EnglishGrouping(t *testing.T) {
	f, err := NewCurrency("USD", "en-US")
	require.NoError(t, err)
	require.Equal(t, "USD 1,234.50", f.Format(1234.5))
}

func TestCurrency_ArgentineSeparators(t *testing.T) {
	f, err := NewCurrency("ARS", "es-AR")
	require.NoError(t, err)
	require.Equal(t, "ARS 1.234.567,89", f.Format(1234567.891))
}

func TestCurrency_Invalid(t *testing.T) {
	_, err := NewCurrency("ZZZ", "en-US")
	require.Error(t, err)
	_, err = NewCurrency("USD", "not a locale!")
	require.Error(t, err)
}
