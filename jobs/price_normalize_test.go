package jobs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRawPrice(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"12,34", 12.34},
		{"12.34", 12.34},
		{"12,34 EUR", 12.34},
		{"EUR 12.34", 12.34},
		{"1.234,56", 1234.56},
		{"1,234.56", 1234.56},
		{"7", 7},
		{"  19,99 € ", 19.99},
	}
	for _, tc := range cases {
		got, err := ParseRawPrice(tc.raw)
		require.NoError(t, err, tc.raw)
		require.InDelta(t, tc.want, got, 1e-9, tc.raw)
	}
}

func TestParseRawPriceRejects(t *testing.T) {
	for _, raw := range []string{"", "free", "-5,00", "1,2,3"} {
		_, err := ParseRawPrice(raw)
		require.Error(t, err, raw)
	}
}
