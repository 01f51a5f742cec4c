package ais

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedMessageType = errors.New("ais: unsupported message type")
	ErrIllegalMessageLength   = errors.New("ais: illegal message length")
)

// UnsupportedMessageTypeError reports a type code outside 1..27. Code is -1
// when the bit sequence was too short to hold a type code at all.
type UnsupportedMessageTypeError struct {
	Code int
}

func (e *UnsupportedMessageTypeError) Error() string {
	if e.Code < 0 {
		return "ais: unsupported message type: payload shorter than 6 bits"
	}
	return fmt.Sprintf("ais: unsupported message type %d", e.Code)
}

func (e *UnsupportedMessageTypeError) Is(target error) bool {
	return target == ErrUnsupportedMessageType
}

// IllegalMessageLengthError reports a bit length the length table rejects for
// Type.
type IllegalMessageLengthError struct {
	Type   MessageType
	Actual int
}

func (e *IllegalMessageLengthError) Error() string {
	return fmt.Sprintf("ais: illegal message length %d bits for type %d (%s)", e.Actual, int(e.Type), e.Type)
}

func (e *IllegalMessageLengthError) Is(target error) bool {
	return target == ErrIllegalMessageLength
}
