package models

import "strings"

// PaymentMethod is a crypto currency the store accepts and the address
// buyers pay to.
type PaymentMethod struct {
	CurrencyCode string
	Address      string
	Blockchain   string
}

var currencyNames = map[string]string{
	"btc":  "Bitcoin",
	"eth":  "Ethereum",
	"sol":  "Solana",
	"ltc":  "Litecoin",
	"usdt": "USDT",
}

func NormalizeCurrency(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

func (m PaymentMethod) DisplayName() string {
	if name, ok := currencyNames[m.CurrencyCode]; ok {
		return name
	}
	return strings.ToUpper(m.CurrencyCode)
}
