package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/labd/internal/device"
)

// fakeSupply is an in-memory power supply for exercising the protocol
// without hardware.
type fakeSupply struct {
	name string

	openErr error
	testErr error

	outputOn bool
	mode     device.PowerSupplyMode
	targetV  float64
	targetC  float64
	actualV  float64
	actualC  float64

	opens  int
	closes int
}

func (f *fakeSupply) Name() string { return f.name }

func (f *fakeSupply) Kind() device.Kind { return device.KindPowerSupply }

func (f *fakeSupply) Open() error {
	f.opens++
	return f.openErr
}

func (f *fakeSupply) Close() error {
	f.closes++
	return nil
}

func (f *fakeSupply) TestConnection() error { return f.testErr }

func (f *fakeSupply) Mode() (device.PowerSupplyMode, error) { return f.mode, nil }

func (f *fakeSupply) IsOutputOn() (bool, error) { return f.outputOn, nil }

func (f *fakeSupply) SetOutputOn(on bool) error { f.outputOn = on; return nil }

func (f *fakeSupply) TargetVoltage() (float64, error) { return f.targetV, nil }

func (f *fakeSupply) SetTargetVoltage(v float64) error { f.targetV = v; return nil }

func (f *fakeSupply) TargetCurrent() (float64, error) { return f.targetC, nil }

func (f *fakeSupply) SetTargetCurrent(c float64) error { f.targetC = c; return nil }

func (f *fakeSupply) ActualVoltage() (float64, error) { return f.actualV, nil }

func (f *fakeSupply) ActualCurrent() (float64, error) { return f.actualC, nil }

// startTestServer serves env on an ephemeral port and returns its address
// and a channel that closes when the accept loop exits.
func startTestServer(t *testing.T, env *Env) (addr string, done chan struct{}) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv := NewServer(ln.Addr().String(), NewTypeRegistry(), env)
	done = make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Serve(ctx, ln); err != nil {
			t.Errorf("serve: %v", err)
		}
	}()
	return ln.Addr().String(), done
}

func TestHelloRoundTrip(t *testing.T) {
	addr, _ := startTestServer(t, &Env{})

	c := NewClient(addr)
	defer c.Close()

	resp, err := c.Hello()
	if err != nil {
		t.Fatalf("Hello: %v", err)
	}
	if resp.Content != "Hello world" {
		t.Errorf("got content %q, want %q", resp.Content, "Hello world")
	}
}

func TestRequestsShareOneConnection(t *testing.T) {
	addr, _ := startTestServer(t, &Env{})

	c := NewClient(addr)
	defer c.Close()

	for i := 0; i < 3; i++ {
		if _, err := c.Hello(); err != nil {
			t.Fatalf("Hello %d: %v", i, err)
		}
	}
}

func TestUnknownTagKeepsConnectionServing(t *testing.T) {
	addr, _ := startTestServer(t, &Env{})

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	br := bufio.NewReader(conn)

	fmt.Fprintf(conn, "Bogus:{}\n")
	line, err := br.ReadString('\n')
	if err != nil {
		t.Fatalf("read error reply: %v", err)
	}
	var errResp ErrorResponse
	if err := json.Unmarshal([]byte(line), &errResp); err != nil {
		t.Fatalf("decode error reply: %v", err)
	}
	if errResp.Error == "" {
		t.Fatal("expected an error reply for an unknown tag")
	}

	// The same connection must keep serving.
	fmt.Fprintf(conn, "Hello:{}\n")
	line, err = br.ReadString('\n')
	if err != nil {
		t.Fatalf("read hello reply: %v", err)
	}
	var hello HelloResponse
	if err := json.Unmarshal([]byte(line), &hello); err != nil {
		t.Fatalf("decode hello reply: %v", err)
	}
	if hello.Content != "Hello world" {
		t.Errorf("got content %q after error reply, want %q", hello.Content, "Hello world")
	}
}

func TestListDevicesReportsPerDeviceFailures(t *testing.T) {
	good := &fakeSupply{name: "psu1"}
	bad := &fakeSupply{name: "psu2", openErr: errors.New("no such port")}
	env := &Env{Devices: []device.Device{good, bad}}

	addr, _ := startTestServer(t, env)
	c := NewClient(addr)
	defer c.Close()

	resp, err := c.ListDevices()
	if err != nil {
		t.Fatalf("ListDevices: %v", err)
	}

	want := []DeviceStatus{
		{Name: "psu1", IsAvailable: true},
		{Name: "psu2", ErrorType: "TransportIOError", ErrorMessage: "no such port"},
	}
	if diff := cmp.Diff(want, resp.Devices); diff != "" {
		t.Errorf("device statuses mismatch (-want +got):\n%s", diff)
	}
	if good.closes != 1 || bad.closes != 1 {
		t.Errorf("got closes %d/%d, want 1/1", good.closes, bad.closes)
	}
}

func TestDeviceInfoUnknownName(t *testing.T) {
	addr, _ := startTestServer(t, &Env{})
	c := NewClient(addr)
	defer c.Close()

	resp, err := c.DeviceInfo("nope")
	if err != nil {
		t.Fatalf("DeviceInfo: %v", err)
	}
	want := &DeviceInfoResponse{IsConnected: false}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Errorf("unknown device response mismatch (-want +got):\n%s", diff)
	}
}

func TestDeviceInfoCollectsPowerSupplyState(t *testing.T) {
	psu := &fakeSupply{
		name:     "psu1",
		outputOn: true,
		mode:     device.ModeConstantCurrent,
		targetV:  4.25,
		targetC:  1.5,
		actualV:  4.19,
		actualC:  1.5,
	}
	addr, _ := startTestServer(t, &Env{Devices: []device.Device{psu}})
	c := NewClient(addr)
	defer c.Close()

	resp, err := c.DeviceInfo("psu1")
	if err != nil {
		t.Fatalf("DeviceInfo: %v", err)
	}
	want := &DeviceInfoResponse{
		DeviceType:  "power-supply",
		IsConnected: true,
		PowerSupplyInfo: &PowerSupplyInfo{
			IsOutputOn:    true,
			Mode:          "constant-current",
			TargetVoltage: 4.25,
			TargetCurrent: 1.5,
			ActualVoltage: 4.19,
			ActualCurrent: 1.5,
		},
	}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Errorf("device info mismatch (-want +got):\n%s", diff)
	}
	if psu.closes != psu.opens {
		t.Errorf("got %d opens and %d closes, want equal", psu.opens, psu.closes)
	}
}

func TestDeviceInfoReportsProbeFailure(t *testing.T) {
	psu := &fakeSupply{name: "psu1", testErr: errors.New("no response")}
	addr, _ := startTestServer(t, &Env{Devices: []device.Device{psu}})
	c := NewClient(addr)
	defer c.Close()

	resp, err := c.DeviceInfo("psu1")
	if err != nil {
		t.Fatalf("DeviceInfo: %v", err)
	}
	if resp.IsConnected {
		t.Error("device with failing probe reported connected")
	}
	if resp.ErrorType != "TransportIOError" {
		t.Errorf("got error type %q, want %q", resp.ErrorType, "TransportIOError")
	}
	if resp.PowerSupplyInfo != nil {
		t.Error("failed probe must not carry power supply info")
	}
}

func TestHaltStopsServerWithoutReply(t *testing.T) {
	addr, done := startTestServer(t, &Env{})
	c := NewClient(addr)

	if err := c.Halt(); err != nil {
		t.Fatalf("Halt: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop after halt")
	}
}
