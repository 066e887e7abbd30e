package models

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the order lifecycle state.
type OrderStatus string

// payment_pending -> paid -> completed
// payment_pending -> payment_failed
// paid -> cancelled
const (
	OrderStatusPaymentPending OrderStatus = "payment_pending"
	OrderStatusPaid           OrderStatus = "paid"
	OrderStatusPaymentFailed  OrderStatus = "payment_failed"
	OrderStatusCompleted      OrderStatus = "completed"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// CanTransition reports whether s -> to is a legal lifecycle step.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	switch s {
	case OrderStatusPaymentPending:
		return to == OrderStatusPaid || to == OrderStatusPaymentFailed
	case OrderStatusPaid:
		return to == OrderStatusCompleted || to == OrderStatusCancelled
	}
	return false
}

// Order is order entity
type Order struct {
	ID                 uuid.UUID
	RestaurantID       uuid.UUID
	RestaurantName     string
	UserID             uuid.UUID
	UserName           string
	Items              []OrderItem
	Total              int64
	Status             OrderStatus
	CreatedAt          time.Time
	OrderPlacedTime    *time.Time
	OrderCompletedTime *time.Time
	// TimeTaken is seconds between placement and completion.
	TimeTaken *int64
}

// OrderItem is a point-in-time copy of a catalog item.
type OrderItem struct {
	OrderID  uuid.UUID
	Name     string
	Price    int64
	Quantity int64
}

// MaxItemQuantity is the largest quantity accepted for one order line.
const MaxItemQuantity = 1000

// LineTotal returns price multiplied by quantity. ok is false on int64 overflow.
func (i OrderItem) LineTotal() (total int64, ok bool) {
	if i.Price < 0 || i.Quantity < 0 {
		return 0, false
	}
	if i.Quantity != 0 && i.Price > math.MaxInt64/i.Quantity {
		return 0, false
	}
	return i.Price * i.Quantity, true
}

// RequestedItem is an item id and quantity sent by the client.
type RequestedItem struct {
	ItemID   uuid.UUID
	Quantity int64
}

// ResolvedItem is a requested item with its current catalog name and price.
type ResolvedItem struct {
	ItemID   uuid.UUID
	Name     string
	Price    int64
	Quantity int64
}

// OrderTotal sums price*quantity over items using integer arithmetic.
// ErrInvalidQuantity is returned if the sum does not fit into int64.
func OrderTotal(items []OrderItem) (int64, error) {
	var total int64
	for _, item := range items {
		line, ok := item.LineTotal()
		if !ok || total > math.MaxInt64-line {
			return 0, fmt.Errorf("%w: order total overflows", ErrInvalidQuantity)
		}
		total += line
	}
	return total, nil
}

// OrderList is a listing result. AvgWaitTime is only filled for users.
type OrderList struct {
	Orders      []Order
	AvgWaitTime *int64
}

// WaitStats aggregates time_taken over completed orders.
type WaitStats struct {
	TotalSeconds int64
	Count        int64
}
