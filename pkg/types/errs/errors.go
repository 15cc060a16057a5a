package errs

import "errors"

var (
	ErrBackendUnavailable = errors.New("event log backend unavailable")
	ErrPoolExhausted      = errors.New("connection pool exhausted")
	ErrMalformedRecord    = errors.New("malformed stream record")
	ErrUnknownEvent       = errors.New("unknown event type")
)
