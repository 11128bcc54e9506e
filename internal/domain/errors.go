package domain

import "errors"

var (
	ErrValidation      = errors.New("validation failed")
	ErrUnavailable     = errors.New("book is not available")
	ErrAlreadyReturned = errors.New("borrowing already returned")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrGateway         = errors.New("payment gateway error")
)
