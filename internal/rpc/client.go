package rpc

import (
	"encoding/json"
	"fmt"
	"net"
)

// Client is the caller side of the protocol. The connection is dialed
// lazily on the first request and re-dialed after any failure: a poisoned
// connection is dropped rather than reasoned about, since the strict
// alternation of requests and responses leaves no safe way to resynchronize
// a stream in an unknown state.
type Client struct {
	addr string

	conn    net.Conn
	reader  *frameReader
	pending bool
}

// NewClient returns a client for the daemon at addr. No connection is made
// until the first request.
func NewClient(addr string) *Client {
	return &Client{addr: addr}
}

// Close drops the current connection, if any.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.reader = nil
	c.pending = false
	return err
}

func (c *Client) ensureConn() error {
	if c.conn != nil {
		return nil
	}
	conn, err := net.Dial("tcp", c.addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.addr, err)
	}
	c.conn = conn
	c.reader = newFrameReader(conn)
	c.pending = false
	return nil
}

// poison drops the connection so the next call re-dials.
func (c *Client) poison() {
	if c.conn != nil {
		c.conn.Close()
	}
	c.conn = nil
	c.reader = nil
	c.pending = false
}

// send writes one request frame. With waitReply false the request is
// fire-and-forget and the alternation state is untouched.
func (c *Client) send(req Request, waitReply bool) error {
	if c.pending {
		return ErrAlternation
	}
	if err := c.ensureConn(); err != nil {
		return err
	}

	frame, err := EncodeFrame(req)
	if err != nil {
		return err
	}
	if _, err := c.conn.Write(append(frame, '\n')); err != nil {
		c.poison()
		return fmt.Errorf("send %s: %w", req.Tag(), err)
	}
	c.pending = waitReply
	return nil
}

// query sends a request and decodes its reply into out. Any transport or
// framing failure poisons the connection.
func (c *Client) query(req Request, out any) error {
	if err := c.send(req, true); err != nil {
		return err
	}

	frame, err := c.reader.readFrame()
	if err != nil {
		c.poison()
		return fmt.Errorf("reply to %s: %w", req.Tag(), err)
	}
	c.pending = false

	// An error reply replaces the normal response frame.
	var errResp ErrorResponse
	if err := json.Unmarshal(frame, &errResp); err == nil && errResp.Error != "" {
		return fmt.Errorf("server: %s", errResp.Error)
	}
	if err := json.Unmarshal(frame, out); err != nil {
		c.poison()
		return fmt.Errorf("decode reply to %s: %w", req.Tag(), err)
	}
	return nil
}

// Hello checks that the daemon is alive and speaking the protocol.
func (c *Client) Hello() (*HelloResponse, error) {
	var resp HelloResponse
	if err := c.query(&HelloRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListDevices probes every configured device.
func (c *Client) ListDevices() (*ListDevicesResponse, error) {
	var resp ListDevicesResponse
	if err := c.query(&ListDevicesRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeviceInfo inspects one device by name.
func (c *Client) DeviceInfo(name string) (*DeviceInfoResponse, error) {
	var resp DeviceInfoResponse
	if err := c.query(&DeviceInfoRequest{DeviceName: name}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Halt asks the daemon to shut down. No reply is expected; the daemon
// drops the connection once the request is dispatched.
func (c *Client) Halt() error {
	if err := c.send(&HaltRequest{}, false); err != nil {
		return err
	}
	return c.Close()
}
