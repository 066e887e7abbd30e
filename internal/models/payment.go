package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentState is the provider status normalized to three outcomes.
type PaymentState string

const (
	PaymentStatePending PaymentState = "PENDING"
	PaymentStatePaid    PaymentState = "PAID"
	PaymentStateFailed  PaymentState = "FAILED"
)

// PaymentSession mirrors the provider side transaction of an order.
type PaymentSession struct {
	OrderID       uuid.UUID
	Provider      string
	ProviderTxnID string
	RedirectURL   *string
	Status        PaymentState
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasRedirect reports whether the provider already returned a session url.
func (s *PaymentSession) HasRedirect() bool {
	return s != nil && s.RedirectURL != nil && *s.RedirectURL != ""
}

// MerchantCredentials authenticate outbound provider requests of a restaurant.
type MerchantCredentials struct {
	RestaurantID uuid.UUID
	Provider     string
	MerchantID   string
	SecretKey    string
	KeyIndex     string
}

// PaymentSessionResult is returned to the paying user.
type PaymentSessionResult struct {
	OrderID     uuid.UUID
	RedirectURL string
	State       PaymentState
	OrderStatus OrderStatus
}

// StateForStatus maps a non-pending order status to the payment state it implies.
func StateForStatus(s OrderStatus) PaymentState {
	switch s {
	case OrderStatusPaid, OrderStatusCompleted, OrderStatusCancelled:
		return PaymentStatePaid
	case OrderStatusPaymentFailed:
		return PaymentStateFailed
	}
	return PaymentStatePending
}
