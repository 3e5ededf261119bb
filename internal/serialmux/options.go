package serialmux

import (
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial"
)

// PortOptions describes the serial connection parameters used when opening a
// port. The fields intentionally mirror the device configuration file so the
// options can be passed through without additional translation.
type PortOptions struct {
	BaudRate int    `yaml:"baud_rate"`
	DataBits int    `yaml:"data_bits"`
	StopBits int    `yaml:"stop_bits"`
	Parity   string `yaml:"parity"`

	// XonXoff enables software flow control. go.bug.st/serial has no
	// flow-control knob, so the field participates in Normalize and Equal
	// only; instruments that use XON/XOFF work with it unset because the
	// arbitrated request/response traffic never saturates the line.
	XonXoff bool `yaml:"xon_xoff"`

	// ReadTimeout bounds each transport read. Zero means block forever.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteSettle is slept by the worker after every write, for
	// instruments that drop bytes arriving too soon after a command.
	WriteSettle time.Duration `yaml:"write_settle"`
}

// Normalize validates the options and applies defaults for any unset values.
func (o PortOptions) Normalize() (PortOptions, error) {
	opts := o

	if opts.BaudRate <= 0 {
		opts.BaudRate = 9600
	}

	if opts.DataBits == 0 {
		opts.DataBits = 8
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, fmt.Errorf("invalid data bits %d: must be between 5 and 8", opts.DataBits)
	}

	if opts.StopBits == 0 {
		opts.StopBits = 1
	}
	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", opts.StopBits)
	}

	parity := strings.TrimSpace(strings.ToUpper(opts.Parity))
	if parity == "" {
		parity = "N"
	}

	switch parity {
	case "N", "NONE":
		parity = "N"
	case "E", "EVEN":
		parity = "E"
	case "O", "ODD":
		parity = "O"
	default:
		return opts, fmt.Errorf("unsupported parity %q: expected N, E, or O", opts.Parity)
	}

	opts.Parity = parity

	if opts.ReadTimeout < 0 {
		return opts, fmt.Errorf("negative read timeout %v", opts.ReadTimeout)
	}
	if opts.WriteSettle < 0 {
		return opts, fmt.Errorf("negative write settle delay %v", opts.WriteSettle)
	}

	return opts, nil
}

// Equal reports whether two PortOptions describe the same serial
// configuration. Devices sharing a port can use it to check that their
// declared configurations agree before acquiring the mux.
func (o PortOptions) Equal(other PortOptions) bool {
	normalizedA, errA := o.Normalize()
	normalizedB, errB := other.Normalize()
	if errA != nil || errB != nil {
		return false
	}

	return normalizedA.BaudRate == normalizedB.BaudRate &&
		normalizedA.DataBits == normalizedB.DataBits &&
		normalizedA.StopBits == normalizedB.StopBits &&
		normalizedA.Parity == normalizedB.Parity &&
		normalizedA.XonXoff == normalizedB.XonXoff &&
		normalizedA.ReadTimeout == normalizedB.ReadTimeout &&
		normalizedA.WriteSettle == normalizedB.WriteSettle
}

// SerialMode converts the port options into the serial.Mode structure
// required by go.bug.st/serial when opening a port.
func (o PortOptions) SerialMode() (*serial.Mode, error) {
	opts, err := o.Normalize()
	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: opts.BaudRate,
		DataBits: opts.DataBits,
	}

	// serial.StopBits constants are not the bit counts themselves.
	switch opts.StopBits {
	case 1:
		mode.StopBits = serial.OneStopBit
	case 2:
		mode.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("invalid stop bits %d", opts.StopBits)
	}

	switch opts.Parity {
	case "N":
		mode.Parity = serial.NoParity
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	default:
		return nil, fmt.Errorf("unsupported parity %q", opts.Parity)
	}

	return mode, nil
}
