package common

import "errors"

var (
	// Lookup errors.
	ErrorNotFound = errors.New("not found")

	// Input errors.
	ErrorValidation = errors.New("validation error")

	// Locker state errors.
	ErrLockerOccupied = errors.New("locker is occupied")
	ErrLockerFree     = errors.New("locker is free")

	// Auth errors.
	ErrorUnauthorized  = errors.New("unauthorized")
	ErrTooManyAttempts = errors.New("too many login attempts")

	// Session store errors.
	ErrSessionLimit = errors.New("session limit reached")

	// Session token errors (malformed, badly signed or expired cookie values).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
