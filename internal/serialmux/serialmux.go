// Serialmux arbitrates access to serial ports shared by multiple logical
// devices. Each open port is owned by a single worker goroutine that drains
// a priority-ordered job queue and performs all transport I/O, so every
// caller in the process observes one global order of hardware operations
// per port. Cross-process exclusivity is enforced with an OS-level lock.
package serialmux

import (
	"bufio"
	"fmt"
	"log"
	"strings"
	"time"
)

// PortMux serialises all I/O for one serial port. Callers submit write,
// query, and close jobs; a dedicated worker goroutine executes them in
// priority order (FIFO within equal priority) against the transport.
//
// A PortMux is obtained from Registry.Acquire and may be shared by every
// device on the same port. The transport handle is owned exclusively by the
// worker goroutine; no other goroutine touches it.
type PortMux struct {
	port    string
	opts    PortOptions
	reg     *Registry
	opener  PortOpener
	lockDir string

	queue *jobQueue

	// clients is guarded by the owning Registry's mutex, mirroring the
	// acquire/release bookkeeping there.
	clients int

	// Worker-owned state. Only the worker goroutine reads or writes these.
	transport SerialPorter
	reader    *bufio.Reader
	lock      *portLock
}

func newPortMux(reg *Registry, port string, opts PortOptions) *PortMux {
	return &PortMux{
		port:    port,
		opts:    opts,
		reg:     reg,
		opener:  reg.opener,
		lockDir: reg.lockDir,
		queue:   newJobQueue(),
	}
}

// Port returns the port identifier this mux arbitrates.
func (m *PortMux) Port() string { return m.port }

// Options returns the transport configuration the mux was created with.
func (m *PortMux) Options() PortOptions { return m.opts }

// Write enqueues a low-priority write job and blocks until the worker has
// executed it, returning any error captured during execution.
func (m *PortMux) Write(msg []byte) error {
	res := m.submit(jobWrite, msg, PriorityLow)
	return res.err
}

// WriteUrgent is Write at high priority: the job is dequeued ahead of any
// pending low-priority job regardless of submission time.
func (m *PortMux) WriteUrgent(msg []byte) error {
	res := m.submit(jobWrite, msg, PriorityHigh)
	return res.err
}

// Query writes msg and reads one response line from the port, with the line
// terminator stripped. It blocks until the worker has executed the job.
func (m *PortMux) Query(msg []byte) (string, error) {
	res := m.submit(jobQuery, msg, PriorityLow)
	return res.line, res.err
}

// Close releases this caller's claim on the port. The job is executed in
// queue order like any other; when the last client closes, the mux is
// deregistered, remaining pending jobs are finished, and the worker exits
// with the transport closed.
func (m *PortMux) Close() error {
	res := m.submit(jobClose, nil, PriorityLow)
	return res.err
}

func (m *PortMux) submit(kind jobKind, msg []byte, pri Priority) jobResult {
	j := newJob(kind, msg, pri)
	if err := m.queue.push(j); err != nil {
		return jobResult{err: err}
	}
	return <-j.done
}

// run is the worker loop. It must be started exactly once, by the Registry
// that constructed the mux.
func (m *PortMux) run() {
	defer m.shutdown()

	for {
		j := m.queue.pop(false)

		if j.kind != jobClose {
			j.done <- m.executeLogged(j)
			continue
		}

		if last := m.reg.release(m); !last {
			j.done <- jobResult{}
			continue
		}

		// Last client: reject new submissions, finish whatever is still
		// pending, and close the transport before acknowledging so that
		// a released port is immediately acquirable by another process.
		m.queue.stop()
		for {
			pending := m.queue.pop(true)
			if pending == nil {
				break
			}
			if pending.kind == jobClose {
				m.reg.release(m)
				pending.done <- jobResult{}
				continue
			}
			pending.done <- m.executeLogged(pending)
		}
		m.shutdown()
		j.done <- jobResult{}
		return
	}
}

func (m *PortMux) executeLogged(j *job) jobResult {
	res := m.execute(j)
	if res.err != nil {
		log.Printf("serialmux: job %s on %s failed: %v", j.id, m.port, res.err)
	}
	return res
}

// execute performs one write or query job. Errors are captured into the
// result, never propagated; the worker survives to serve subsequent jobs.
func (m *PortMux) execute(j *job) jobResult {
	if err := m.ensureOpen(); err != nil {
		return jobResult{err: err}
	}

	if err := m.write(j.message); err != nil {
		return jobResult{err: fmt.Errorf("write %s: %w", m.port, err)}
	}

	if j.kind != jobQuery {
		return jobResult{}
	}

	line, err := m.reader.ReadString('\n')
	if err != nil {
		return jobResult{err: fmt.Errorf("read %s: %w", m.port, err)}
	}
	return jobResult{line: strings.TrimRight(line, "\r\n")}
}

// ensureOpen lazily opens the transport on the first real job. The
// exclusive lock is taken before the transport is opened; failure to
// acquire it is fatal to this open attempt and is not retried here.
func (m *PortMux) ensureOpen() error {
	if m.transport != nil {
		return nil
	}

	lock, err := acquireLock(m.lockDir, m.port)
	if err != nil {
		return err
	}

	transport, err := m.opener(m.port, m.opts)
	if err != nil {
		lock.release()
		return fmt.Errorf("open %s: %w", m.port, err)
	}

	m.lock = lock
	m.transport = transport
	m.reader = bufio.NewReader(transport)
	return nil
}

func (m *PortMux) write(msg []byte) error {
	n, err := m.transport.Write(msg)
	if err != nil {
		return err
	}
	if n != len(msg) {
		return ErrWriteFailed
	}
	if m.opts.WriteSettle > 0 {
		time.Sleep(m.opts.WriteSettle)
	}
	return nil
}

// shutdown runs on every worker exit path: the transport is closed and the
// OS-level lock released unconditionally so a crashed worker cannot leak
// port exclusivity.
func (m *PortMux) shutdown() {
	if m.transport != nil {
		if err := m.transport.Close(); err != nil {
			log.Printf("serialmux: closing %s: %v", m.port, err)
		}
		m.transport = nil
		m.reader = nil
	}
	m.lock.release()
	m.lock = nil
}
