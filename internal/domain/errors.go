package domain

import "errors"

var (
	ErrFlightNotFound      = errors.New("flight not found")
	ErrFlightDeparted      = errors.New("flight already departed")
	ErrFlightCancelled     = errors.New("flight is cancelled")
	ErrInvalidClass        = errors.New("invalid travel class")
	ErrSeatNotFound        = errors.New("seat not found")
	ErrSeatInvalidForPlane = errors.New("seat invalid for this flight plane")
	ErrSeatClassMismatch   = errors.New("seat class mismatch")
	ErrSeatInactive        = errors.New("seat is inactive")
	ErrSeatRequired        = errors.New("seat id or seat number is required")
	ErrReturnLegRequired   = errors.New("return flight and seat required for round-trip")
	ErrSeatAlreadyBooked   = errors.New("seat already booked")
	ErrPaymentDeclined     = errors.New("payment declined")
	ErrPaymentTimeout      = errors.New("payment timed out")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrNotBookingOwner     = errors.New("not your booking")
	ErrInvalidBookingState = errors.New("booking is not in a state that allows this operation")
	ErrConcurrentUpdate    = errors.New("booking was modified concurrently")
	ErrUserNotFound        = errors.New("user not found")
	ErrLoyaltyTxnNotFound  = errors.New("loyalty transaction not found")
	ErrInvalidPoints       = errors.New("points must be positive")
)
