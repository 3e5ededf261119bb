// Package tdklambda drives TDK-Lambda ZUP series power supplies over their
// RS-232/RS-485 command set.
package tdklambda

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/labd/internal/device"
	"github.com/banshee-data/labd/internal/serialmux"
)

// DriverID is the identifier the ZUP driver registers under.
const DriverID = "tdklambda.zup"

// The ZUP drops bytes that arrive too soon after a command, so every write
// is followed by a short settle delay.
const writeSettle = 10 * time.Millisecond

type zupConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baudrate"`

	// Address selects the supply on a multi-drop RS-485 bus. Defaults
	// to 1.
	Address int `yaml:"address"`
}

// ZUP is a TDK-Lambda ZUP series power supply.
type ZUP struct {
	device.SerialDevice
	name    string
	address int
}

var _ device.PowerSupply = (*ZUP)(nil)

// Register adds the ZUP driver to the registry.
func Register(r *device.DriverRegistry) error {
	return r.Register(device.Descriptor{
		ID:        DriverID,
		Kind:      device.KindPowerSupply,
		NewConfig: func() any { return &zupConfig{} },
		New: func(name string, cfg any, ports *serialmux.Registry) (device.Device, error) {
			c := cfg.(*zupConfig)
			if c.Port == "" {
				return nil, &device.ConfigError{Driver: DriverID, Err: errors.New("port is required")}
			}
			if c.Address < 0 || c.Address > 31 {
				return nil, &device.ConfigError{Driver: DriverID, Err: fmt.Errorf("address %d out of range 0-31", c.Address)}
			}
			address := c.Address
			if address == 0 {
				address = 1
			}

			opts := serialmux.PortOptions{
				BaudRate:    c.BaudRate,
				DataBits:    8,
				StopBits:    1,
				Parity:      "N",
				XonXoff:     true,
				ReadTimeout: 2 * time.Second,
				WriteSettle: writeSettle,
			}
			return &ZUP{
				SerialDevice: device.NewSerialDevice(ports, c.Port, opts),
				name:         name,
				address:      address,
			}, nil
		},
	})
}

func (z *ZUP) Name() string { return z.name }

func (z *ZUP) Kind() device.Kind { return device.KindPowerSupply }

// Open acquires the port and addresses the supply. Addressing must precede
// every other command after power-up.
func (z *ZUP) Open() error {
	if err := z.OpenPort(); err != nil {
		return err
	}
	return z.Write([]byte(fmt.Sprintf(":ADR%02d;", z.address)))
}

func (z *ZUP) Close() error {
	return z.ClosePort()
}

// TestConnection queries the model identification and verifies the supply
// answered.
func (z *ZUP) TestConnection() error {
	model, err := z.Model()
	if err != nil {
		return err
	}
	if model == "" {
		return &device.ParseError{Response: model}
	}
	return nil
}

// Model returns the supply's model identification string.
func (z *ZUP) Model() (string, error) {
	return z.Query([]byte(":MDL?;"))
}

// SoftwareVersion returns the supply's firmware revision string.
func (z *ZUP) SoftwareVersion() (string, error) {
	return z.Query([]byte(":REV?;"))
}

// Mode reports whether the supply is in constant-voltage or
// constant-current operation, from the first bit of the status register.
func (z *ZUP) Mode() (device.PowerSupplyMode, error) {
	resp, err := z.Query([]byte(":STA?;"))
	if err != nil {
		return 0, err
	}
	if !strings.HasPrefix(resp, "OS") || len(resp) < 3 {
		return 0, &device.ParseError{Response: resp}
	}
	switch resp[2] {
	case '0':
		return device.ModeConstantVoltage, nil
	case '1':
		return device.ModeConstantCurrent, nil
	}
	return 0, &device.ParseError{Response: resp}
}

func (z *ZUP) IsOutputOn() (bool, error) {
	resp, err := z.Query([]byte(":OUT?;"))
	if err != nil {
		return false, err
	}
	switch resp {
	case "OT0":
		return false, nil
	case "OT1":
		return true, nil
	}
	return false, &device.ParseError{Response: resp}
}

func (z *ZUP) SetOutputOn(on bool) error {
	if on {
		return z.Write([]byte(":OUT1;"))
	}
	return z.Write([]byte(":OUT0;"))
}

func (z *ZUP) TargetVoltage() (float64, error) {
	return z.queryPrefixedFloat(":VOL!;", "SV")
}

func (z *ZUP) SetTargetVoltage(voltage float64) error {
	return z.Write([]byte(fmt.Sprintf(":VOL%.3f;", voltage)))
}

func (z *ZUP) TargetCurrent() (float64, error) {
	return z.queryPrefixedFloat(":CUR!;", "SA")
}

func (z *ZUP) SetTargetCurrent(current float64) error {
	return z.Write([]byte(fmt.Sprintf(":CUR%06.2f;", current)))
}

func (z *ZUP) ActualVoltage() (float64, error) {
	return z.queryPrefixedFloat(":VOL?;", "AV")
}

func (z *ZUP) ActualCurrent() (float64, error) {
	return z.queryPrefixedFloat(":CUR?;", "AA")
}

// queryPrefixedFloat sends cmd and parses a reply of the form
// "<prefix><decimal>", e.g. "SV1.42".
func (z *ZUP) queryPrefixedFloat(cmd, prefix string) (float64, error) {
	resp, err := z.Query([]byte(cmd))
	if err != nil {
		return 0, err
	}
	if !strings.HasPrefix(resp, prefix) {
		return 0, &device.ParseError{Response: resp}
	}
	value, err := strconv.ParseFloat(resp[len(prefix):], 64)
	if err != nil {
		return 0, &device.ParseError{Response: resp}
	}
	return value, nil
}
