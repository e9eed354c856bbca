package types

import "github.com/shopspring/decimal"

// PricePrecision returns the decimal precision used for protective order
// prices, chosen by price magnitude. Cheaper symbols need more decimals to
// keep a 2% stop distinguishable from the entry price.
func PricePrecision(price float64) int32 {
	switch {
	case price <= 10:
		return 4
	case price <= 100:
		return 3
	case price <= 1000:
		return 2
	default:
		return 1
	}
}

// RoundPrice rounds a price to the precision tier for its magnitude.
// The tier is derived from the reference price, not the value being rounded,
// so stop and target levels share the precision of the fill price.
func RoundPrice(value, referencePrice float64) float64 {
	rounded, _ := decimal.NewFromFloat(value).Round(PricePrecision(referencePrice)).Float64()

	return rounded
}
