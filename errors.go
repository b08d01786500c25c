package sdp

import (
	"errors"
	"fmt"
)

var errNotImplemented = errors.New("not implemented")

// Local failures. Errors caused by a remote request are turned into an
// ErrorResponse with ErrorCodeOf; the others are returned to the caller.
var (
	ErrMalformedElement         = errors.New("malformed data element")
	ErrInvalidPDUSize           = errors.New("invalid PDU size")
	ErrInvalidRequestSyntax     = errors.New("invalid request syntax")
	ErrInvalidRecordHandle      = errors.New("invalid service record handle")
	ErrInvalidContinuationState = errors.New("invalid continuation state")
	ErrResponseTooLarge         = errors.New("response too large")

	ErrDuplicateAttribute       = errors.New("duplicate attribute")
	ErrMissingRequiredAttribute = errors.New("missing required attribute")
	ErrNotFound                 = errors.New("not found")
	ErrRegistrationClosed       = errors.New("registration closed: server already serving")

	ErrTooManyChannels = errors.New("too many channels")
	ErrUnknownChannel  = errors.New("unknown channel")
	ErrMTUTooSmall     = errors.New("MTU below L2CAP minimum")
)

// ErrorCode is the ErrorCode parameter of an SDP ErrorResponse.
type ErrorCode uint16

const (
	ErrorCodeInvalidVersion           ErrorCode = 0x0001 // Invalid/unsupported SDP version.
	ErrorCodeInvalidRecordHandle      ErrorCode = 0x0002 // Invalid Service Record Handle.
	ErrorCodeInvalidRequestSyntax     ErrorCode = 0x0003 // Invalid request syntax.
	ErrorCodeInvalidPDUSize           ErrorCode = 0x0004 // Invalid PDU Size.
	ErrorCodeInvalidContinuationState ErrorCode = 0x0005 // Invalid Continuation State.
	ErrorCodeInsufficientResources    ErrorCode = 0x0006 // Insufficient Resources to satisfy Request.
)

var ErrorCodeName = map[ErrorCode]string{
	ErrorCodeInvalidVersion:           "invalid SDP version",
	ErrorCodeInvalidRecordHandle:      "invalid service record handle",
	ErrorCodeInvalidRequestSyntax:     "invalid request syntax",
	ErrorCodeInvalidPDUSize:           "invalid PDU size",
	ErrorCodeInvalidContinuationState: "invalid continuation state",
	ErrorCodeInsufficientResources:    "insufficient resources",
}

func (c ErrorCode) Error() string {
	if name, ok := ErrorCodeName[c]; ok {
		return name
	}
	return fmt.Sprintf("reserved error code 0x%04X", uint16(c))
}

// ErrorCodeOf maps a processing error to the code sent to the peer.
func ErrorCodeOf(err error) ErrorCode {
	var code ErrorCode
	switch {
	case errors.As(err, &code):
		return code
	case errors.Is(err, ErrInvalidPDUSize):
		return ErrorCodeInvalidPDUSize
	case errors.Is(err, ErrInvalidRecordHandle), errors.Is(err, ErrNotFound):
		return ErrorCodeInvalidRecordHandle
	case errors.Is(err, ErrInvalidContinuationState):
		return ErrorCodeInvalidContinuationState
	case errors.Is(err, ErrResponseTooLarge):
		return ErrorCodeInsufficientResources
	default:
		return ErrorCodeInvalidRequestSyntax
	}
}
