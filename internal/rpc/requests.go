package rpc

import (
	"fmt"

	"github.com/banshee-data/labd/internal/device"
)

// HelloRequest checks server liveness.
type HelloRequest struct{}

// HelloResponse carries the server's greeting.
type HelloResponse struct {
	Content string `json:"content"`
}

func (*HelloRequest) Tag() string { return "Hello" }

func (*HelloRequest) Handle(env *Env) (Response, error) {
	return &HelloResponse{Content: "Hello world"}, nil
}

// ListDevicesRequest probes every configured device.
type ListDevicesRequest struct{}

// DeviceStatus reports one device's availability. A device that failed to
// open or respond carries its error in structured fields; the failure never
// aborts the batch.
type DeviceStatus struct {
	Name         string `json:"name"`
	IsAvailable  bool   `json:"is_available"`
	ErrorType    string `json:"error_type,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// ListDevicesResponse lists the status of every configured device in
// configuration order.
type ListDevicesResponse struct {
	Devices []DeviceStatus `json:"devices"`
}

func (*ListDevicesRequest) Tag() string { return "ListDevices" }

func (*ListDevicesRequest) Handle(env *Env) (Response, error) {
	statuses := make([]DeviceStatus, 0, len(env.Devices))
	for _, dev := range env.Devices {
		statuses = append(statuses, probeDevice(dev))
	}
	return &ListDevicesResponse{Devices: statuses}, nil
}

func probeDevice(dev device.Device) DeviceStatus {
	defer dev.Close()

	if err := dev.Open(); err != nil {
		return DeviceStatus{Name: dev.Name(), ErrorType: errorName(err), ErrorMessage: err.Error()}
	}
	if err := dev.TestConnection(); err != nil {
		return DeviceStatus{Name: dev.Name(), ErrorType: errorName(err), ErrorMessage: err.Error()}
	}
	return DeviceStatus{Name: dev.Name(), IsAvailable: true}
}

// DeviceInfoRequest inspects one device by name.
type DeviceInfoRequest struct {
	DeviceName string `json:"device_name"`
}

// PowerSupplyInfo is the collected state of a power-supply kind device.
type PowerSupplyInfo struct {
	IsOutputOn    bool    `json:"is_output_on"`
	Mode          string  `json:"mode"`
	TargetVoltage float64 `json:"target_voltage"`
	TargetCurrent float64 `json:"target_current"`
	ActualVoltage float64 `json:"actual_voltage"`
	ActualCurrent float64 `json:"actual_current"`
}

// DeviceInfoResponse reports a device's type and connection state. An
// unknown device name yields IsConnected false with no error fields.
type DeviceInfoResponse struct {
	DeviceType      string           `json:"device_type,omitempty"`
	IsConnected     bool             `json:"is_connected"`
	ErrorType       string           `json:"error_type,omitempty"`
	ErrorMessage    string           `json:"error_message,omitempty"`
	PowerSupplyInfo *PowerSupplyInfo `json:"power_supply_info,omitempty"`
}

func (*DeviceInfoRequest) Tag() string { return "DeviceInfo" }

func (r *DeviceInfoRequest) Handle(env *Env) (Response, error) {
	dev := env.DeviceByName(r.DeviceName)
	if dev == nil {
		return &DeviceInfoResponse{IsConnected: false}, nil
	}

	resp := &DeviceInfoResponse{DeviceType: string(dev.Kind())}
	info, err := inspectDevice(dev)
	if err != nil {
		resp.ErrorType = errorName(err)
		resp.ErrorMessage = err.Error()
		return resp, nil
	}

	resp.IsConnected = true
	resp.PowerSupplyInfo = info
	return resp, nil
}

func inspectDevice(dev device.Device) (*PowerSupplyInfo, error) {
	defer dev.Close()

	if err := dev.Open(); err != nil {
		return nil, err
	}
	if err := dev.TestConnection(); err != nil {
		return nil, err
	}

	ps, ok := dev.(device.PowerSupply)
	if !ok {
		return nil, fmt.Errorf("device kind %q has no info collector", dev.Kind())
	}
	return collectPowerSupplyInfo(ps)
}

func collectPowerSupplyInfo(ps device.PowerSupply) (*PowerSupplyInfo, error) {
	on, err := ps.IsOutputOn()
	if err != nil {
		return nil, err
	}
	mode, err := ps.Mode()
	if err != nil {
		return nil, err
	}
	targetVoltage, err := ps.TargetVoltage()
	if err != nil {
		return nil, err
	}
	targetCurrent, err := ps.TargetCurrent()
	if err != nil {
		return nil, err
	}
	actualVoltage, err := ps.ActualVoltage()
	if err != nil {
		return nil, err
	}
	actualCurrent, err := ps.ActualCurrent()
	if err != nil {
		return nil, err
	}

	return &PowerSupplyInfo{
		IsOutputOn:    on,
		Mode:          mode.String(),
		TargetVoltage: targetVoltage,
		TargetCurrent: targetCurrent,
		ActualVoltage: actualVoltage,
		ActualCurrent: actualCurrent,
	}, nil
}

// HaltRequest terminates the server after the current dispatch. It is
// fire-and-forget: no response is sent.
type HaltRequest struct{}

func (*HaltRequest) Tag() string { return "Halt" }

func (*HaltRequest) Handle(env *Env) (Response, error) {
	env.RequestHalt()
	return nil, nil
}
