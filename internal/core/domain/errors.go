package domain

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrBusinessNotFound = errors.New("business not found")

	ErrOrderNotFound              = errors.New("order not found")
	ErrNotBusinessOwner           = errors.New("caller does not own the order's business")
	ErrOrderAlreadyAccepted       = errors.New("order has already been accepted")
	ErrAcceptedOrderNotRejectable = errors.New("accepted orders cannot be rejected")
	ErrRejectedOrderNotAcceptable = errors.New("rejected orders cannot be accepted")
	ErrStatusConflict             = errors.New("order status changed concurrently")

	ErrIdempotencyKeyInFlight = errors.New("a request with this idempotency key is still being processed")
)
