package device

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/labd/internal/serialmux"
)

// Descriptor declares a driver: its identifier, the kind of device it
// constructs, a factory for its typed configuration schema, and the
// constructor itself. Descriptors are registered once at startup and
// read-only thereafter.
type Descriptor struct {
	ID   string
	Kind Kind

	// NewConfig returns a pointer to a zero value of the driver's config
	// struct. Configuration maps are decoded strictly against it.
	NewConfig func() any

	// New builds the device from a decoded config. cfg is the value
	// produced by NewConfig.
	New func(name string, cfg any, ports *serialmux.Registry) (Device, error)
}

// DriverRegistry maps driver identifiers to descriptors. It is populated by
// an explicit registration pass at startup; there is no import-time
// discovery.
type DriverRegistry struct {
	drivers map[string]Descriptor
}

func NewDriverRegistry() *DriverRegistry {
	return &DriverRegistry{drivers: make(map[string]Descriptor)}
}

// Register adds a descriptor. Registering the same identifier twice is a
// programming error and is rejected.
func (r *DriverRegistry) Register(d Descriptor) error {
	if d.ID == "" || d.NewConfig == nil || d.New == nil {
		return fmt.Errorf("incomplete driver descriptor %q", d.ID)
	}
	if _, ok := r.drivers[d.ID]; ok {
		return fmt.Errorf("driver %q registered twice", d.ID)
	}
	r.drivers[d.ID] = d
	return nil
}

// Drivers returns the registered driver identifiers.
func (r *DriverRegistry) Drivers() []string {
	ids := make([]string, 0, len(r.drivers))
	for id := range r.drivers {
		ids = append(ids, id)
	}
	return ids
}

// Create looks up driverID, decodes args against the driver's declared
// schema, and constructs the device.
func (r *DriverRegistry) Create(driverID, name string, args map[string]any, ports *serialmux.Registry) (Device, error) {
	d, ok := r.drivers[driverID]
	if !ok {
		return nil, &UnknownDriverError{Driver: driverID}
	}

	cfg := d.NewConfig()
	if err := decodeArgs(args, cfg); err != nil {
		return nil, &ConfigError{Driver: driverID, Err: err}
	}

	return d.New(name, cfg, ports)
}

// decodeArgs routes a free-form args map through a strict YAML decode into
// the driver's config struct, so unknown or mistyped fields are rejected
// instead of silently dropped.
func decodeArgs(args map[string]any, into any) error {
	if len(args) == 0 {
		return nil
	}

	raw, err := yaml.Marshal(args)
	if err != nil {
		return err
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(into); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
