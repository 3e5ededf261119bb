//go:build linux

package serialmux

import (
	"bufio"
	"os"
	"strings"
	"testing"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// setRaw disables echo, canonical mode, and output post-processing so the
// pty pair behaves like a wire instead of a terminal.
func setRaw(t *testing.T, f *os.File) {
	t.Helper()
	tio, err := unix.IoctlGetTermios(int(f.Fd()), unix.TCGETS)
	require.NoError(t, err)
	tio.Lflag &^= unix.ECHO | unix.ICANON | unix.ISIG
	tio.Iflag &^= unix.ICRNL | unix.INLCR | unix.IGNCR
	tio.Oflag &^= unix.OPOST
	require.NoError(t, unix.IoctlSetTermios(int(f.Fd()), unix.TCSETS, tio))
}

// instrumentResponder reads semicolon-terminated commands from the master
// side of the pty and answers like a power supply would.
func instrumentResponder(master *os.File, replies map[string]string) {
	r := bufio.NewReader(master)
	var cmd strings.Builder
	for {
		b, err := r.ReadByte()
		if err != nil {
			return
		}
		cmd.WriteByte(b)
		if b != ';' {
			continue
		}
		if reply, ok := replies[cmd.String()]; ok {
			if _, err := master.WriteString(reply + "\r\n"); err != nil {
				return
			}
		}
		cmd.Reset()
	}
}

// Exercises the arbitrator against a real tty device node.
func TestPortMuxOverPty(t *testing.T) {
	master, tty, err := pty.Open()
	require.NoError(t, err)
	defer master.Close()

	setRaw(t, tty)

	go instrumentResponder(master, map[string]string{
		":MDL?;": "ZUP(6V-33A)",
		":VOL!;": "SV1.42",
	})

	opener := func(string, PortOptions) (SerialPorter, error) { return tty, nil }
	reg := NewRegistry(WithOpener(opener), WithLockDir(t.TempDir()))

	m, err := reg.Acquire(tty.Name(), PortOptions{})
	require.NoError(t, err)

	require.NoError(t, m.Write([]byte(":ADR01;")))

	model, err := m.Query([]byte(":MDL?;"))
	require.NoError(t, err)
	require.Equal(t, "ZUP(6V-33A)", model)

	voltage, err := m.Query([]byte(":VOL!;"))
	require.NoError(t, err)
	require.Equal(t, "SV1.42", voltage)

	require.NoError(t, m.Close())
}
