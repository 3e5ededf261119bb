package device

import (
	"errors"
	"fmt"
)

// ErrNotOpen is returned by façade operations on a device whose port has
// not been acquired.
var ErrNotOpen = errors.New("device is not open")

// UnknownDriverError is returned when a configuration names a driver that
// was never registered.
type UnknownDriverError struct {
	Driver string
}

func (e *UnknownDriverError) Error() string {
	return fmt.Sprintf("unknown driver %q", e.Driver)
}

// UnknownDeviceError is returned when a device name is not present in the
// loaded configuration.
type UnknownDeviceError struct {
	Name string
}

func (e *UnknownDeviceError) Error() string {
	return fmt.Sprintf("unknown device %q", e.Name)
}

// ConfigError is returned when driver configuration fails to decode against
// the driver's declared schema or fails its validation.
type ConfigError struct {
	Driver string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config for driver %q: %v", e.Driver, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ParseError is raised by drivers when an instrument reply does not match
// the expected grammar. It is surfaced to callers unchanged.
type ParseError struct {
	Response string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse response %q", e.Response)
}
