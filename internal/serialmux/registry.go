package serialmux

import (
	"fmt"
	"sync"
)

// Registry is the process-wide table of active port muxes. Lookups,
// insertions, and refcount changes all happen under one mutex, so no two
// callers can construct two live muxes for the same port.
type Registry struct {
	mu      sync.Mutex
	muxes   map[string]*PortMux
	opener  PortOpener
	lockDir string
}

// RegistryOption configures a Registry at construction time.
type RegistryOption func(*Registry)

// WithOpener replaces the transport opener. Tests use this to substitute
// scripted ports for real hardware.
func WithOpener(opener PortOpener) RegistryOption {
	return func(r *Registry) { r.opener = opener }
}

// WithLockDir sets the directory holding the per-port lock files.
func WithLockDir(dir string) RegistryOption {
	return func(r *Registry) { r.lockDir = dir }
}

// NewRegistry constructs an empty registry. By default ports are opened
// with go.bug.st/serial and locked under the system lock directory.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		muxes:   make(map[string]*PortMux),
		opener:  OpenRealPort,
		lockDir: defaultLockDir(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Acquire returns the live mux for port, creating one and starting its
// worker if none exists. Each Acquire must be balanced by one PortMux.Close.
// When the port is already live its transport configuration is assumed to
// match and opts is ignored.
func (r *Registry) Acquire(port string, opts PortOptions) (*PortMux, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.muxes[port]; ok {
		m.clients++
		return m, nil
	}

	normalized, err := opts.Normalize()
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", port, err)
	}

	m := newPortMux(r, port, normalized)
	m.clients = 1
	r.muxes[port] = m
	go m.run()
	return m, nil
}

// release decrements the client count for m. It reports whether this was
// the last client, in which case the mux has been deregistered and its
// worker must wind down. Called by the worker while executing a close job.
func (r *Registry) release(m *PortMux) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m.clients > 0 {
		m.clients--
	}
	if m.clients > 0 {
		return false
	}

	// Deregistration is atomic with the count reaching zero: a concurrent
	// Acquire either reuses the mux before this point or constructs a
	// fresh one after it.
	if r.muxes[m.port] == m {
		delete(r.muxes, m.port)
	}
	return true
}

// ActivePorts returns the identifiers of ports with a live mux.
func (r *Registry) ActivePorts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ports := make([]string, 0, len(r.muxes))
	for port := range r.muxes {
		ports = append(ports, port)
	}
	return ports
}

// Clients returns the live client count for port, or zero if the port has
// no active mux.
func (r *Registry) Clients(port string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.muxes[port]; ok {
		return m.clients
	}
	return 0
}
