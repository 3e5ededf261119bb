// Package sequence loads and runs scripted power-supply test sequences.
// A sequence is a YAML document naming a device and an ordered list of
// steps; each step programs a setpoint, holds it, and samples readbacks
// into the results database.
package sequence

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration with YAML decoding from strings like
// "500ms" or "2m30s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Step is one setpoint in a sequence.
type Step struct {
	Voltage     float64  `yaml:"voltage"`
	Current     float64  `yaml:"current"`
	Hold        Duration `yaml:"hold"`
	SampleEvery Duration `yaml:"sample_every"`
}

// Sequence is an ordered list of steps run against one device.
type Sequence struct {
	Name   string `yaml:"name"`
	Device string `yaml:"device"`
	Steps  []Step `yaml:"steps"`
}

// Load reads and validates a sequence file.
func Load(path string) (*Sequence, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Parse decodes a sequence document. Unknown fields are rejected so a
// typoed key fails loudly instead of silently holding a default.
func Parse(raw []byte) (*Sequence, error) {
	var seq Sequence
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&seq); err != nil {
		return nil, fmt.Errorf("parse sequence: %w", err)
	}
	if err := seq.validate(); err != nil {
		return nil, err
	}
	return &seq, nil
}

func (s *Sequence) validate() error {
	if s.Name == "" {
		return errors.New("sequence has no name")
	}
	if s.Device == "" {
		return errors.New("sequence names no device")
	}
	if len(s.Steps) == 0 {
		return errors.New("sequence has no steps")
	}
	for i, step := range s.Steps {
		if step.Voltage < 0 || step.Current < 0 {
			return fmt.Errorf("step %d: negative setpoint", i)
		}
		if step.Hold < 0 || step.SampleEvery < 0 {
			return fmt.Errorf("step %d: negative duration", i)
		}
	}
	return nil
}
