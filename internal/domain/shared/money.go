package shared

import "github.com/shopspring/decimal"

// Money amounts are CUP unless a field says otherwise.
var (
	Zero = decimal.Zero

	// CentPlaces is the precision used when an amount is allocated between recipients
	CentPlaces int32 = 2
)

// Cents truncates an allocation to whole cents so that shares never sum above their pool
func Cents(d decimal.Decimal) decimal.Decimal {
	return d.Truncate(CentPlaces)
}

// Pct builds a decimal percentage such as Pct(60) == 0.60
func Pct(p int64) decimal.Decimal {
	return decimal.New(p, -2)
}
