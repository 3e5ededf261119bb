package serialmux

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// defaultLockDir picks the directory for per-port lock files. The UUCP
// convention is /var/lock; fall back to the temp dir where it is absent.
func defaultLockDir() string {
	if info, err := os.Stat("/var/lock"); err == nil && info.IsDir() {
		return "/var/lock"
	}
	return os.TempDir()
}

// portLock holds an exclusive flock(2) on a sidecar lock file for a port.
// The serial library does not expose the port's file descriptor, so the
// lock lives beside the device node name rather than on it.
type portLock struct {
	f *os.File
}

// acquireLock takes the exclusive non-blocking lock for port. Failure means
// another process owns the port and is fatal to this open attempt.
func acquireLock(dir, port string) (*portLock, error) {
	path := filepath.Join(dir, "LCK.."+filepath.Base(port))
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o666)
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", path, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s", ErrPortLocked, port)
	}
	return &portLock{f: f}, nil
}

func (l *portLock) release() {
	if l == nil {
		return
	}
	unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	l.f.Close()
}
