package models

import "github.com/shopspring/decimal"

// DiscountQuote is the outcome of a successful redemption check. The code is
// not consumed until the order it was quoted for is finalized.
type DiscountQuote struct {
	Code          string
	Percentage    decimal.Decimal
	OriginalTotal decimal.Decimal
	NewTotal      decimal.Decimal
}
