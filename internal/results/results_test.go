package results

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordAndQueryMeasurements(t *testing.T) {
	db := openTestDB(t)

	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	recorded := []Measurement{
		{Run: "run-1", Device: "psu1", Step: 0, TargetVoltage: 3.3, TargetCurrent: 0.5, ActualVoltage: 3.29, ActualCurrent: 0.12, Timestamp: ts},
		{Run: "run-1", Device: "psu1", Step: 1, TargetVoltage: 5.0, TargetCurrent: 0.5, ActualVoltage: 4.98, ActualCurrent: 0.2, Timestamp: ts.Add(time.Second)},
		{Run: "run-2", Device: "psu2", Step: 0, TargetVoltage: 12.0, TargetCurrent: 1.0, ActualVoltage: 11.97, ActualCurrent: 0.8, Timestamp: ts},
	}
	for _, m := range recorded {
		if err := db.RecordMeasurement(m); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := db.Measurements("run-1")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d measurements for run-1, want 2", len(got))
	}
	if got[0].Step != 0 || got[1].Step != 1 {
		t.Errorf("got steps %d,%d, want insertion order 0,1", got[0].Step, got[1].Step)
	}
	if got[1].ActualVoltage != 4.98 {
		t.Errorf("got actual voltage %v, want 4.98", got[1].ActualVoltage)
	}
	if got[0].Device != "psu1" {
		t.Errorf("got device %q, want psu1", got[0].Device)
	}
}

func TestMeasurementsUnknownRunIsEmpty(t *testing.T) {
	db := openTestDB(t)

	got, err := db.Measurements("missing")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d measurements, want none", len(got))
	}
}

func TestRecordDefaultsTimestamp(t *testing.T) {
	db := openTestDB(t)

	if err := db.RecordMeasurement(Measurement{Run: "run-1", Device: "psu1"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	got, err := db.Measurements("run-1")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d measurements, want 1", len(got))
	}
	if got[0].Timestamp.IsZero() {
		t.Error("timestamp was not defaulted on insert")
	}
}
