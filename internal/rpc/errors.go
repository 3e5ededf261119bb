package rpc

import (
	"errors"
	"fmt"

	"github.com/banshee-data/labd/internal/device"
	"github.com/banshee-data/labd/internal/serialmux"
)

// ErrAlternation is returned when a send or receive would violate the
// strict request/response alternation of the connection. The connection is
// poisoned and re-established on the next call.
var ErrAlternation = errors.New("request/response alternation violated")

// UnknownRequestTagError is a dispatch error for a frame whose tag names no
// registered request kind. The connection keeps serving.
type UnknownRequestTagError struct {
	Tag string
}

func (e *UnknownRequestTagError) Error() string {
	return fmt.Sprintf("unknown request tag %q", e.Tag)
}

// errorName maps an error to the stable name reported in structured error
// fields, so clients can distinguish failure classes without parsing
// messages.
func errorName(err error) string {
	var (
		parseErr      *device.ParseError
		unknownDriver *device.UnknownDriverError
		unknownDevice *device.UnknownDeviceError
		configErr     *device.ConfigError
		unknownTag    *UnknownRequestTagError
	)

	switch {
	case errors.Is(err, serialmux.ErrPortLocked):
		return "PortLockUnavailableError"
	case errors.As(err, &parseErr):
		return "ProtocolParseError"
	case errors.As(err, &unknownDriver):
		return "UnknownDriverError"
	case errors.As(err, &unknownDevice):
		return "UnknownDeviceError"
	case errors.As(err, &configErr):
		return "ConfigValidationError"
	case errors.As(err, &unknownTag):
		return "UnknownRequestTagError"
	}
	// Remaining failures reach the instrument path through the transport.
	return "TransportIOError"
}
