package domain

import "errors"

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrNotFound               = errors.New("not found")
	ErrConflict               = errors.New("already exists")
	ErrForbidden              = errors.New("forbidden")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrEmptyCart              = errors.New("no items in cart to order")
	ErrInvalidShippingAddress = errors.New("invalid shipping address")
	ErrInvalidPaymentMethod   = errors.New("invalid payment method")
	ErrInvalidStatus          = errors.New("invalid status")
)
