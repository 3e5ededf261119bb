package device

import (
	"github.com/banshee-data/labd/internal/serialmux"
)

// SerialDevice is the façade serial drivers embed. It translates domain
// calls into jobs on the port's shared arbitrator; several devices on one
// port share a single mux.
type SerialDevice struct {
	ports    *serialmux.Registry
	portPath string
	opts     serialmux.PortOptions

	mux *serialmux.PortMux
}

// NewSerialDevice prepares a façade for the port at portPath. The port is
// not touched until OpenPort.
func NewSerialDevice(ports *serialmux.Registry, portPath string, opts serialmux.PortOptions) SerialDevice {
	return SerialDevice{ports: ports, portPath: portPath, opts: opts}
}

// PortPath returns the serial port this device is configured for.
func (d *SerialDevice) PortPath() string { return d.portPath }

// OpenPort acquires the shared arbitrator for the device's port. The
// transport itself is opened lazily by the arbitrator on the first job.
func (d *SerialDevice) OpenPort() error {
	if d.mux != nil {
		return nil
	}
	mux, err := d.ports.Acquire(d.portPath, d.opts)
	if err != nil {
		return err
	}
	d.mux = mux
	return nil
}

// ClosePort releases this device's claim on the arbitrator.
func (d *SerialDevice) ClosePort() error {
	if d.mux == nil {
		return nil
	}
	err := d.mux.Close()
	d.mux = nil
	return err
}

// Write sends msg to the instrument in queue order.
func (d *SerialDevice) Write(msg []byte) error {
	if d.mux == nil {
		return ErrNotOpen
	}
	return d.mux.Write(msg)
}

// WriteUrgent sends msg ahead of all pending low-priority traffic.
func (d *SerialDevice) WriteUrgent(msg []byte) error {
	if d.mux == nil {
		return ErrNotOpen
	}
	return d.mux.WriteUrgent(msg)
}

// Query sends msg and returns the instrument's single-line reply with the
// terminator stripped.
func (d *SerialDevice) Query(msg []byte) (string, error) {
	if d.mux == nil {
		return "", ErrNotOpen
	}
	return d.mux.Query(msg)
}
