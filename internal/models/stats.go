package models

type Stats struct {
	Products        int
	ActiveProducts  int
	Orders          int
	CompletedOrders int
	PendingOrders   int
	CartRows        int
	DiscountCodes   int
	ActiveCodes     int
}
