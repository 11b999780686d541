package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrPriceUnavailable  = errors.New("price unavailable")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNoPosition        = errors.New("no position")
	ErrTickInProgress    = errors.New("tick already in progress")
)
