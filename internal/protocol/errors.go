package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrMissingData     = errors.New("protocol: missing data")
	ErrMissingField    = errors.New("protocol: missing required field")
	ErrPayloadMismatch = errors.New("protocol: payload type does not match message id")
	ErrUnknownMessage  = errors.New("protocol: unknown message id")
)

// DecodeError reports one frame that could not be turned into a Message.
// ID is zero when the envelope itself could not be parsed.
type DecodeError struct {
	ID  MessageID
	Raw string
	Err error
}

func (e *DecodeError) Error() string {
	if e.ID == 0 {
		return fmt.Sprintf("protocol: decode envelope: %v raw=%q", e.Err, e.Raw)
	}
	return fmt.Sprintf("protocol: decode %s (id=%d): %v raw=%q", e.ID, int(e.ID), e.Err, e.Raw)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
