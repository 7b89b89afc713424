package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrInsufficientPoints  = errors.New("insufficient points")
	ErrNotAwaitingPurchase = errors.New("no points purchase pending")
	ErrSuperseded          = errors.New("superseded by a newer request")
	ErrNoSession           = errors.New("no session")
)
