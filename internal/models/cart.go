package models

import "github.com/shopspring/decimal"

type CartEntry struct {
	UserID    int64
	ProductID int64
	Quantity  int
}

// CartLine is a cart row joined with the live product it refers to.
type CartLine struct {
	ProductID int64
	Name      string
	Price     decimal.Decimal
	Quantity  int
}

func (l CartLine) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func CartTotal(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Total())
	}
	return total
}
