package limitbook

import "errors"

var (
	ErrInvalidTickSize       = errors.New("tick size must be positive")
	ErrInvalidParam          = errors.New("the param is invalid")
	ErrOrderNotFound         = errors.New("order not found")
	ErrInsufficientLiquidity = errors.New("there is not enough depth to fill the order")
	ErrSequenceGap           = errors.New("book log sequence gap detected")
	ErrShutdown              = errors.New("book is shutting down")
	ErrTimeout               = errors.New("timeout")
)
