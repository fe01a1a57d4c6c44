package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// UnlimitedUses marks a discount code without a usage ceiling.
const UnlimitedUses = -1

var hundred = decimal.NewFromInt(100)

type DiscountCode struct {
	ID             int64
	Code           string
	Percentage     decimal.Decimal
	ExpiryDate     *time.Time
	MaxUses        int
	UsedCount      int
	IsGeneral      bool
	ClientID       *int64
	ClientUsername string
	Active         bool
	CreatedAt      time.Time
}

// NormalizeCode is the canonical form codes are stored and looked up in.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NormalizeUsername strips the leading @ chat clients like to prepend.
func NormalizeUsername(username string) string {
	return strings.TrimPrefix(strings.TrimSpace(username), "@")
}

// ExpiredAt compares calendar dates: a code expiring today is still valid today.
func (d DiscountCode) ExpiredAt(now time.Time) bool {
	if d.ExpiryDate == nil {
		return false
	}
	ey, em, ed := d.ExpiryDate.Date()
	expiry := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	ny, nm, nd := now.Date()
	today := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	return expiry.Before(today)
}

func (d DiscountCode) Exhausted() bool {
	return d.MaxUses != UnlimitedUses && d.UsedCount >= d.MaxUses
}

// AllowedFor reports whether the caller may redeem the code. General codes
// are open to everyone; client codes need a matching id or username.
func (d DiscountCode) AllowedFor(userID int64, username string) bool {
	if d.IsGeneral {
		return true
	}
	if d.ClientID != nil && *d.ClientID == userID {
		return true
	}
	bound := NormalizeUsername(d.ClientUsername)
	return bound != "" && strings.EqualFold(bound, NormalizeUsername(username))
}

// Apply returns total reduced by the code's percentage, rounded to cents.
func (d DiscountCode) Apply(total decimal.Decimal) decimal.Decimal {
	factor := hundred.Sub(d.Percentage).Div(hundred)
	return total.Mul(factor).Round(2)
}
