package rpc

import (
	"fmt"

	"github.com/banshee-data/labd/internal/config"
	"github.com/banshee-data/labd/internal/device"
	"github.com/banshee-data/labd/internal/serialmux"
)

// Env is the server-owned context handlers run against: the loaded
// configuration and the devices constructed from it. It is built once at
// startup and passed explicitly; there is no ambient global state.
type Env struct {
	Config  *config.Config
	Devices []device.Device

	halted bool
}

// NewEnv constructs every configured device through the driver registry.
// Ports are not opened here; devices are opened and closed per request.
func NewEnv(cfg *config.Config, drivers *device.DriverRegistry, ports *serialmux.Registry) (*Env, error) {
	env := &Env{Config: cfg}
	for _, dc := range cfg.Devices {
		dev, err := drivers.Create(dc.Driver, dc.Name, dc.Args, ports)
		if err != nil {
			return nil, fmt.Errorf("device %q: %w", dc.Name, err)
		}
		if dc.Type != "" && dc.Type != string(dev.Kind()) {
			return nil, fmt.Errorf("device %q: driver %s is kind %q, config says %q",
				dc.Name, dc.Driver, dev.Kind(), dc.Type)
		}
		env.Devices = append(env.Devices, dev)
	}
	return env, nil
}

// DeviceByName returns the configured device with the given name, or nil.
func (e *Env) DeviceByName(name string) device.Device {
	for _, dev := range e.Devices {
		if dev.Name() == name {
			return dev
		}
	}
	return nil
}

// RequestHalt marks the environment halted. The server loop checks it
// after each dispatch.
func (e *Env) RequestHalt() { e.halted = true }

// HaltRequested reports whether a Halt request has been dispatched.
func (e *Env) HaltRequested() bool { return e.halted }
