package serialmux

import "errors"

// Predefined error types for robust error handling
var (
	// ErrPortLocked means another process already holds the exclusive
	// lock for the port. The open attempt is not retried.
	ErrPortLocked = errors.New("serial port is locked by another process")

	// ErrWriteFailed is returned when the transport accepts fewer bytes
	// than were written.
	ErrWriteFailed = errors.New("failed to write to serial port")

	// ErrMuxClosed is returned for jobs submitted after the last client
	// has closed the mux.
	ErrMuxClosed = errors.New("serial mux is closed")
)
