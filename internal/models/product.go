package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Image1, Image2 and Coordinates are hidden from
// buyers until an order containing the product is confirmed.
type Product struct {
	ID          int64
	Name        string
	Price       decimal.Decimal
	Description string
	Quantity    int
	Image1      string
	Image2      string
	Coordinates string
	Active      bool
	CreatedAt   time.Time
}

// Available reports whether buyers may see and order the product.
func (p Product) Available() bool {
	return p.Active && p.Quantity > 0
}

// Images returns the non-empty image references in display order.
func (p Product) Images() []string {
	var refs []string
	for _, ref := range []string{p.Image1, p.Image2} {
		if ref != "" {
			refs = append(refs, ref)
		}
	}
	return refs
}

// ProductPatch carries optional admin edits; nil fields are left untouched.
type ProductPatch struct {
	Name        *string
	Price       *decimal.Decimal
	Description *string
	Quantity    *int
	Image1      *string
	Image2      *string
	Coordinates *string
	Active      *bool
}
