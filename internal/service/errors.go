package service

import "errors"

// Error kinds surfaced to the API layer. Handlers translate these with
// errors.Is into HTTP statuses; everything else is a 500.
var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrSelfSubscribe      = errors.New("subscribing to yourself is not allowed")
	ErrEmptyCart          = errors.New("shopping cart is empty")
	ErrInvalidInput       = errors.New("invalid input")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)
