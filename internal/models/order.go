package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusRejected  OrderStatus = "rejected"
)

// Terminal statuses never change again.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusRejected
}

// OrderIDLength is the width of generated order ids (hex characters).
const OrderIDLength = 8

// NewOrderID returns 32 random bits as eight uppercase hex characters.
func NewOrderID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:OrderIDLength])
}

// OrderLine is one persisted row of an order. TotalPrice is the total of the
// whole order and repeats on every line; UnitPrice is the line's own snapshot.
type OrderLine struct {
	ID            int64
	OrderID       string
	UserID        int64
	UserName      string
	ProductID     int64
	ProductName   string
	Quantity      int
	UnitPrice     decimal.Decimal
	TotalPrice    decimal.Decimal
	Currency      string
	SourceAddress string
	DiscountCode  string
	Status        OrderStatus
	CreatedAt     time.Time
}

type Order struct {
	ID            string
	UserID        int64
	UserName      string
	Lines         []OrderLine
	Total         decimal.Decimal
	Currency      string
	SourceAddress string
	DiscountCode  string
	Status        OrderStatus
	CreatedAt     time.Time
}

// OrderFromLines folds the rows sharing one order id back into an Order.
// It returns nil for an empty slice.
func OrderFromLines(lines []OrderLine) *Order {
	if len(lines) == 0 {
		return nil
	}
	first := lines[0]
	return &Order{
		ID:            first.OrderID,
		UserID:        first.UserID,
		UserName:      first.UserName,
		Lines:         lines,
		Total:         first.TotalPrice,
		Currency:      first.Currency,
		SourceAddress: first.SourceAddress,
		DiscountCode:  first.DiscountCode,
		Status:        first.Status,
		CreatedAt:     first.CreatedAt,
	}
}

// Summary names the first product, the way the admin notification shows it.
func (o *Order) Summary() string {
	if len(o.Lines) == 0 {
		return "Cart checkout"
	}
	if len(o.Lines) == 1 {
		return o.Lines[0].ProductName
	}
	return o.Lines[0].ProductName + " (+" + strconv.Itoa(len(o.Lines)-1) + " more)"
}
