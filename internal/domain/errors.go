package domain

import "errors"

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrOutOfStock        = errors.New("out of stock")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAlreadyRedeemed   = errors.New("voucher already redeemed")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrClaimsFinal is returned when something tries to release inventory owned by an order
	// that already reached a paid or terminal status. It signals a bug in the caller.
	ErrClaimsFinal = errors.New("inventory claims are final")
)
