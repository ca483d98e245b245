package service

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// Split divides a final charged price into platform commission and seller
// earning. The commission is price * rate / 100 rounded half-up to the
// minor unit; the earning is the exact remainder, so any rounding surplus
// is absorbed by the commission and commission + earning == finalPrice
// always holds. Pure function, safe to call anywhere.
func Split(finalPrice int64, commissionRatePercent decimal.Decimal) (commission, sellerEarning int64, err error) {
	if finalPrice < 0 {
		return 0, 0, fmt.Errorf("final price %d: %w", finalPrice, ErrInvalidAmount)
	}
	if commissionRatePercent.IsNegative() || commissionRatePercent.GreaterThan(oneHundred) {
		return 0, 0, fmt.Errorf("commission rate %s out of [0,100]: %w", commissionRatePercent, ErrInvalidRequest)
	}

	// decimal.Round rounds half away from zero; amounts here are
	// non-negative, so this is half-up.
	commission = decimal.NewFromInt(finalPrice).
		Mul(commissionRatePercent).
		Div(oneHundred).
		Round(0).
		IntPart()
	return commission, finalPrice - commission, nil
}
