package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUnsupportedPair = errors.New("unsupported pair")
	ErrInvalidRate     = errors.New("rate must be a positive finite number")
)

// RateFetchError wraps any failure of a rate source: transport, non-2xx status,
// malformed payload or an unusable rate. Its message is the cause's message.
type RateFetchError struct {
	Pair Pair
	Err  error
}

func (e *RateFetchError) Error() string {
	if e.Err == nil {
		return "rate fetch failed"
	}
	return e.Err.Error()
}

func (e *RateFetchError) Unwrap() error { return e.Err }
