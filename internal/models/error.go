package models

import "errors"

var (
	ErrConflictData        = errors.New("data conflicts with existing data")
	ErrDataNotFound        = errors.New("data not found")
	ErrInvalidCredentials  = errors.New("invalid login or password")
	ErrItemNotFound        = errors.New("item not found")
	ErrRestaurantNotFound  = errors.New("restaurant not found")
	ErrEmptyOrder          = errors.New("order has no items")
	ErrInvalidQuantity     = errors.New("item quantity out of range")
	ErrInvalidDays         = errors.New("days out of range")
	ErrInvalidNotification = errors.New("notification needs title and positive ttl")
	ErrForbidden           = errors.New("operation not allowed for this actor")
	ErrProviderUnavailable = errors.New("payment provider unavailable")
	ErrProviderResponse    = errors.New("unexpected payment provider response")
	ErrUnsupportedProvider = errors.New("unsupported payment provider")
	ErrInternalError       = errors.New("internal error")
)
