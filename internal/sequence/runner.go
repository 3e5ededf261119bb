package sequence

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/labd/internal/device"
	"github.com/banshee-data/labd/internal/results"
)

// Recorder receives the measurements a run produces. *results.DB satisfies
// it; tests substitute an in-memory collector.
type Recorder interface {
	RecordMeasurement(m results.Measurement) error
}

// Runner executes a sequence against a power supply, sampling readbacks
// into a Recorder.
type Runner struct {
	Supply   device.PowerSupply
	Recorder Recorder

	// now and sleep are stubbed in tests to run sequences instantly.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRunner(supply device.PowerSupply, rec Recorder) *Runner {
	return &Runner{
		Supply:   supply,
		Recorder: rec,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes every step in order and returns the run ID measurements
// were recorded under. The supply's output is switched off on the way out
// regardless of how the run ends.
func (r *Runner) Run(ctx context.Context, seq *Sequence) (string, error) {
	run := uuid.NewString()
	log.Printf("sequence: run %s of %q on %s (%d steps)", run, seq.Name, r.Supply.Name(), len(seq.Steps))

	if err := r.Supply.Open(); err != nil {
		return run, fmt.Errorf("open %s: %w", r.Supply.Name(), err)
	}
	defer r.Supply.Close()
	defer r.Supply.SetOutputOn(false)

	for i, step := range seq.Steps {
		if err := r.runStep(ctx, run, int64(i), step); err != nil {
			return run, fmt.Errorf("step %d: %w", i, err)
		}
	}
	return run, nil
}

func (r *Runner) runStep(ctx context.Context, run string, step int64, s Step) error {
	if err := r.Supply.SetTargetVoltage(s.Voltage); err != nil {
		return err
	}
	if err := r.Supply.SetTargetCurrent(s.Current); err != nil {
		return err
	}
	if err := r.Supply.SetOutputOn(true); err != nil {
		return err
	}

	deadline := r.now().Add(s.Hold.Std())
	for {
		if err := r.sample(run, step, s); err != nil {
			return err
		}

		remaining := deadline.Sub(r.now())
		if remaining <= 0 {
			return ctx.Err()
		}
		wait := s.SampleEvery.Std()
		if wait <= 0 || wait > remaining {
			wait = remaining
		}
		if err := r.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func (r *Runner) sample(run string, step int64, s Step) error {
	actualV, err := r.Supply.ActualVoltage()
	if err != nil {
		return err
	}
	actualC, err := r.Supply.ActualCurrent()
	if err != nil {
		return err
	}
	return r.Recorder.RecordMeasurement(results.Measurement{
		Run:           run,
		Device:        r.Supply.Name(),
		Step:          step,
		TargetVoltage: s.Voltage,
		TargetCurrent: s.Current,
		ActualVoltage: actualV,
		ActualCurrent: actualC,
		Timestamp:     r.now(),
	})
}
