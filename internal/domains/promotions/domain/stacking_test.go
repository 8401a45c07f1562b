package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestCapCombinedDiscount_AdditiveWithinCap(t *testing.T) {
	subtotal := decimal.NewFromInt(100)
	combined := decimal.NewFromInt(30)

	capped := CapCombinedDiscount(subtotal, combined)
	require.True(t, capped.Equal(combined))
}

func TestCapCombinedDiscount_ClampsToSubtotalMinusEpsilon(t *testing.T) {
	subtotal := decimal.NewFromInt(100)
	combined := decimal.NewFromInt(120)

	capped := CapCombinedDiscount(subtotal, combined)
	require.True(t, capped.Equal(decimal.NewFromFloat(99.99)), "got %s", capped)
}

func TestCapCombinedDiscount_NegativeInputsYieldZero(t *testing.T) {
	require.True(t, CapCombinedDiscount(decimal.NewFromInt(100), decimal.NewFromInt(-5)).IsZero())
	require.True(t, CapCombinedDiscount(decimal.Zero, decimal.NewFromInt(5)).IsZero())
}
