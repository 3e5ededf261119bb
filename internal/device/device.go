// Package device defines the contracts instrument drivers satisfy and the
// registry that builds devices from configuration.
package device

// Kind identifies the family of instrument a device belongs to.
type Kind string

const (
	KindPowerSupply Kind = "power-supply"
)

// Device is the minimal contract every driver must satisfy. Open and Close
// manage the claim on the underlying transport; TestConnection performs a
// driver-specific protocol round trip to verify the instrument responds.
type Device interface {
	Name() string
	Kind() Kind
	Open() error
	Close() error
	TestConnection() error
}

// PowerSupplyMode reports whether a supply is regulating voltage or
// current.
type PowerSupplyMode int

const (
	ModeConstantVoltage PowerSupplyMode = iota
	ModeConstantCurrent
)

func (m PowerSupplyMode) String() string {
	switch m {
	case ModeConstantVoltage:
		return "constant-voltage"
	case ModeConstantCurrent:
		return "constant-current"
	}
	return "unknown"
}

// PowerSupply is the contract for power-supply kind devices.
type PowerSupply interface {
	Device

	Mode() (PowerSupplyMode, error)
	IsOutputOn() (bool, error)
	SetOutputOn(on bool) error
	TargetVoltage() (float64, error)
	SetTargetVoltage(voltage float64) error
	TargetCurrent() (float64, error)
	SetTargetCurrent(current float64) error
	ActualVoltage() (float64, error)
	ActualCurrent() (float64, error)
}
