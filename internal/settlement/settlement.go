// Package settlement implements the commission math that converts a gross
// sale amount into the net amount the channel pays out.
package settlement

import (
	"github.com/shopspring/decimal"

	"github.com/obinstory-alt/kkh/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// TotalFeePercent is the channel's base fee plus its adjustment fee.
// The two rates are summed, never compounded.
func TotalFeePercent(ch domain.Channel) decimal.Decimal {
	return ch.FeePercent.Add(ch.AdjustmentPercent)
}

// Compute returns the settlement amount for a gross sale on the given
// channel: gross * (1 - (fee+adjustment)/100). The rate is not clamped; a
// misconfigured channel with fees over 100% yields a negative settlement.
// No rounding happens here; rounding is a display concern.
func Compute(gross decimal.Decimal, ch domain.Channel) decimal.Decimal {
	rate := TotalFeePercent(ch).Div(hundred)
	return gross.Sub(gross.Mul(rate))
}
