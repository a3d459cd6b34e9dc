package services

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrConflict            = errors.New("already exists")
	ErrInvalidTransition   = errors.New("transition not allowed")
	ErrPaymentVerification = errors.New("payment verification failed")
	ErrPaymentGateway      = errors.New("payment gateway error")
	ErrUploadFailed        = errors.New("image upload failed")

	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrAddressNotFound = errors.New("address not found")
)
