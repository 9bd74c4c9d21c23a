package usecase

import "errors"

var (
	ErrConflict         = errors.New("slot is not available")
	ErrNotFound         = errors.New("not found")
	ErrExpired          = errors.New("reservation hold has expired")
	ErrAlreadyTerminal  = errors.New("reservation already processed")
	ErrLockTimeout      = errors.New("resource is busy, try again")
	ErrResourceInactive = errors.New("resource is inactive")
	ErrInvalidRequest   = errors.New("validation failed")

	// ErrPaymentReferenceReused is returned when a payment reference already confirmed one
	// reservation and is presented again for a different one.
	ErrPaymentReferenceReused = errors.New("payment reference already used for another reservation")
)
