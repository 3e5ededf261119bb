package serialmux

import (
	"bytes"
	"errors"
	"sync"
)

// ScriptedPort implements SerialPorter with configurable behaviour for
// testing. Reads block until a response line has been enqueued, mimicking
// an instrument that only speaks when spoken to.
type ScriptedPort struct {
	mu   sync.Mutex
	cond *sync.Cond

	readBuf  bytes.Buffer
	writeBuf bytes.Buffer

	readErr  error
	writeErr error
	closeErr error

	closed     bool
	closeCalls int

	// onWrite, when set, is invoked with each written message and its
	// return value (if any) is enqueued as response data.
	onWrite func([]byte) []byte
}

// NewScriptedPort creates a ScriptedPort with empty buffers.
func NewScriptedPort() *ScriptedPort {
	p := &ScriptedPort{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Read returns enqueued response data, blocking until data is available,
// an error is armed, or the port is closed.
func (p *ScriptedPort) Read(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for p.readBuf.Len() == 0 && p.readErr == nil && !p.closed {
		p.cond.Wait()
	}

	if p.readErr != nil {
		err := p.readErr
		p.readErr = nil
		return 0, err
	}
	if p.readBuf.Len() == 0 && p.closed {
		return 0, errors.New("serial port closed")
	}
	return p.readBuf.Read(buf)
}

// Write records the message, fires the onWrite hook, and returns any armed
// write error.
func (p *ScriptedPort) Write(msg []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, errors.New("serial port closed")
	}
	if p.writeErr != nil {
		err := p.writeErr
		p.writeErr = nil
		return 0, err
	}

	n, err := p.writeBuf.Write(msg)
	if p.onWrite != nil {
		if resp := p.onWrite(msg); resp != nil {
			p.readBuf.Write(resp)
			p.cond.Broadcast()
		}
	}
	return n, err
}

// Close marks the port closed and wakes blocked readers.
func (p *ScriptedPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.closeCalls++
	p.cond.Broadcast()
	return p.closeErr
}

// EnqueueLine arms one response line, terminated the way instruments
// terminate them.
func (p *ScriptedPort) EnqueueLine(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readBuf.WriteString(line + "\r\n")
	p.cond.Broadcast()
}

// SetReadError arms an error for the next Read call.
func (p *ScriptedPort) SetReadError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readErr = err
	p.cond.Broadcast()
}

// SetWriteError arms an error for the next Write call.
func (p *ScriptedPort) SetWriteError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writeErr = err
}

// SetCloseError arms the error returned by Close.
func (p *ScriptedPort) SetCloseError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeErr = err
}

// OnWrite installs a hook that can synthesize a response for each write.
func (p *ScriptedPort) OnWrite(hook func([]byte) []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onWrite = hook
}

// WrittenData returns all data written to the port so far.
func (p *ScriptedPort) WrittenData() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writeBuf.String()
}

// ResetWritten clears the record of written data.
func (p *ScriptedPort) ResetWritten() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writeBuf.Reset()
}

// CloseCalls reports how many times Close was called.
func (p *ScriptedPort) CloseCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeCalls
}

// Closed reports whether Close was called.
func (p *ScriptedPort) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// ScriptedOpener returns a PortOpener that always hands out port,
// regardless of path.
func ScriptedOpener(port SerialPorter) PortOpener {
	return func(string, PortOptions) (SerialPorter, error) {
		return port, nil
	}
}
