// Package results persists measurements taken during sequence runs to a
// local SQLite database.
package results

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
}

// Open opens (creating if needed) the results database at path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS measurements (
			run               TEXT,
			device            TEXT,
			step              BIGINT,
			target_voltage    DOUBLE,
			target_current    DOUBLE,
			actual_voltage    DOUBLE,
			actual_current    DOUBLE,
			timestamp         TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_measurements_run ON measurements(run);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db}, nil
}

// Measurement is one sampled data point from a sequence step.
type Measurement struct {
	Run           string
	Device        string
	Step          int64
	TargetVoltage float64
	TargetCurrent float64
	ActualVoltage float64
	ActualCurrent float64
	Timestamp     time.Time
}

func (db *DB) RecordMeasurement(m Measurement) error {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	_, err := db.Exec(
		`INSERT INTO measurements (
			run, device, step, target_voltage, target_current,
			actual_voltage, actual_current, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Run, m.Device, m.Step, m.TargetVoltage, m.TargetCurrent,
		m.ActualVoltage, m.ActualCurrent, m.Timestamp,
	)
	return err
}

// Measurements returns every measurement recorded for a run, in insertion
// order.
func (db *DB) Measurements(run string) ([]Measurement, error) {
	rows, err := db.Query(
		`SELECT run, device, step, target_voltage, target_current,
			actual_voltage, actual_current, timestamp
		FROM measurements WHERE run = ? ORDER BY rowid`,
		run,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Measurement
	for rows.Next() {
		var m Measurement
		err := rows.Scan(
			&m.Run, &m.Device, &m.Step, &m.TargetVoltage, &m.TargetCurrent,
			&m.ActualVoltage, &m.ActualCurrent, &m.Timestamp,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
