package serialmux

import (
	"testing"
	"time"

	"go.bug.st/serial"
)

func TestPortOptions_Normalize_Defaults(t *testing.T) {
	// Zero-value options should get defaults applied
	opts := PortOptions{}
	got, err := opts.Normalize()
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if got.BaudRate != 9600 {
		t.Errorf("BaudRate = %d, want 9600", got.BaudRate)
	}
	if got.DataBits != 8 {
		t.Errorf("DataBits = %d, want 8", got.DataBits)
	}
	if got.StopBits != 1 {
		t.Errorf("StopBits = %d, want 1", got.StopBits)
	}
	if got.Parity != "N" {
		t.Errorf("Parity = %q, want %q", got.Parity, "N")
	}
}

func TestPortOptions_Normalize_ExplicitValues(t *testing.T) {
	opts := PortOptions{
		BaudRate:    19200,
		DataBits:    7,
		StopBits:    2,
		Parity:      "E",
		ReadTimeout: 2 * time.Second,
		WriteSettle: 10 * time.Millisecond,
	}
	got, err := opts.Normalize()
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if got.BaudRate != 19200 {
		t.Errorf("BaudRate = %d, want 19200", got.BaudRate)
	}
	if got.DataBits != 7 {
		t.Errorf("DataBits = %d, want 7", got.DataBits)
	}
	if got.StopBits != 2 {
		t.Errorf("StopBits = %d, want 2", got.StopBits)
	}
	if got.Parity != "E" {
		t.Errorf("Parity = %q, want %q", got.Parity, "E")
	}
	if got.ReadTimeout != 2*time.Second {
		t.Errorf("ReadTimeout = %v, want 2s", got.ReadTimeout)
	}
	if got.WriteSettle != 10*time.Millisecond {
		t.Errorf("WriteSettle = %v, want 10ms", got.WriteSettle)
	}
}

func TestPortOptions_Normalize_ParityWords(t *testing.T) {
	for in, want := range map[string]string{
		"none": "N",
		"EVEN": "E",
		"odd":  "O",
		" n ":  "N",
	} {
		got, err := PortOptions{Parity: in}.Normalize()
		if err != nil {
			t.Fatalf("Normalize(parity=%q) error = %v", in, err)
		}
		if got.Parity != want {
			t.Errorf("Normalize(parity=%q) = %q, want %q", in, got.Parity, want)
		}
	}
}

func TestPortOptions_Normalize_Invalid(t *testing.T) {
	cases := []PortOptions{
		{DataBits: 4},
		{DataBits: 9},
		{StopBits: 3},
		{Parity: "X"},
		{ReadTimeout: -time.Second},
		{WriteSettle: -time.Millisecond},
	}
	for _, opts := range cases {
		if _, err := opts.Normalize(); err == nil {
			t.Errorf("Normalize(%+v) expected error, got nil", opts)
		}
	}
}

func TestPortOptions_Equal(t *testing.T) {
	a := PortOptions{BaudRate: 9600, Parity: "none"}
	b := PortOptions{BaudRate: 9600, Parity: "N", DataBits: 8, StopBits: 1}
	if !a.Equal(b) {
		t.Errorf("Equal() = false for equivalent options %+v and %+v", a, b)
	}

	c := PortOptions{BaudRate: 19200}
	if a.Equal(c) {
		t.Errorf("Equal() = true for differing baud rates")
	}

	d := PortOptions{BaudRate: 9600, XonXoff: true}
	if a.Equal(d) {
		t.Errorf("Equal() = true for differing flow control")
	}
}

func TestPortOptions_SerialMode(t *testing.T) {
	opts := PortOptions{BaudRate: 9600, DataBits: 8, StopBits: 1, Parity: "E"}
	mode, err := opts.SerialMode()
	if err != nil {
		t.Fatalf("SerialMode() error = %v", err)
	}
	if mode.BaudRate != 9600 {
		t.Errorf("mode.BaudRate = %d, want 9600", mode.BaudRate)
	}
	if mode.DataBits != 8 {
		t.Errorf("mode.DataBits = %d, want 8", mode.DataBits)
	}
	if mode.Parity != serial.EvenParity {
		t.Errorf("mode.Parity = %v, want EvenParity", mode.Parity)
	}
	if mode.StopBits != serial.OneStopBit {
		t.Errorf("mode.StopBits = %v, want OneStopBit", mode.StopBits)
	}
}

func TestPortOptions_SerialMode_Invalid(t *testing.T) {
	if _, err := (PortOptions{DataBits: 3}).SerialMode(); err == nil {
		t.Error("SerialMode() with invalid data bits expected error")
	}
}
