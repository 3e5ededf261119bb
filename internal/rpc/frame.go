package rpc

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net"
)

// errConnClosed marks an orderly end of stream so callers can distinguish
// hangup from corruption.
var errConnClosed = errors.New("connection closed")

// maxFrameSize bounds a single frame. Instrument payloads are tiny; a
// larger frame means a confused or hostile peer.
const maxFrameSize = 1 << 20

// frameReader reads newline-delimited frames from a connection.
type frameReader struct {
	br *bufio.Reader
}

func newFrameReader(conn net.Conn) *frameReader {
	return &frameReader{br: bufio.NewReaderSize(conn, 4096)}
}

// readFrame returns the next frame without its newline terminator.
func (r *frameReader) readFrame() ([]byte, error) {
	var frame []byte
	for {
		chunk, err := r.br.ReadSlice('\n')
		frame = append(frame, chunk...)
		if err == nil {
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			if len(frame) > maxFrameSize {
				return nil, errors.New("frame exceeds size limit")
			}
			continue
		}
		if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
			return nil, errConnClosed
		}
		return nil, err
	}
	return bytes.TrimRight(frame, "\r\n"), nil
}
