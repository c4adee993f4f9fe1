package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/micromag/internal/output"
	"github.com/banshee-data/micromag/internal/timeutil"
)

// Format is the output format routed to a SnapshotStore.
const Format = "db"

// ErrNotFound reports a run or snapshot ID with no row.
var ErrNotFound = errors.New("not found")

// Run describes one simulation.
type Run struct {
	RunID      string    `json:"run_id"`
	Label      string    `json:"label,omitempty"`
	NX         int       `json:"nx"`
	NY         int       `json:"ny"`
	NZ         int       `json:"nz"`
	DX         float64   `json:"dx"`
	DY         float64   `json:"dy"`
	DZ         float64   `json:"dz"`
	StartedAt  time.Time `json:"started_at"`
}

// Snapshot is the metadata of one stored record.
type Snapshot struct {
	SnapshotID string    `json:"snapshot_id"`
	RunID      string    `json:"run_id"`
	Name       string    `json:"name"`
	Unit       string    `json:"unit,omitempty"`
	SimTime    float64   `json:"sim_time"`
	Step       int       `json:"step"`
	Components int       `json:"components"`
	Uniform    bool      `json:"uniform"`
	Options    []string  `json:"options,omitempty"`
	Path       string    `json:"path,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// SnapshotStore writes records of one run. It implements output.Persister.
type SnapshotStore struct {
	db    *DB
	runID string
	clock timeutil.Clock
}

// NewSnapshotStore returns a store for runID. A nil clock uses real time.
func NewSnapshotStore(db *DB, runID uuid.UUID, clock timeutil.Clock) *SnapshotStore {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &SnapshotStore{db: db, runID: runID.String(), clock: clock}
}

// RunID returns the run the store writes to.
func (s *SnapshotStore) RunID() string { return s.runID }

// StartRun records the run row. It must be called before the first Persist.
func (s *SnapshotStore) StartRun(run *Run) error {
	run.RunID = s.runID
	if run.StartedAt.IsZero() {
		run.StartedAt = s.clock.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO runs (run_id, label, nx, ny, nz, dx, dy, dz, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.RunID, nullString(run.Label), run.NX, run.NY, run.NZ, run.DX, run.DY, run.DZ, run.StartedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	diagf("started run %s (%dx%dx%d)", run.RunID, run.NX, run.NY, run.NZ)
	return nil
}

// Persist stores rec as a new snapshot of the run.
func (s *SnapshotStore) Persist(rec *output.Record) error {
	_, err := s.Insert(rec)
	return err
}

// Insert stores rec and returns the new snapshot's metadata.
func (s *SnapshotStore) Insert(rec *output.Record) (*Snapshot, error) {
	if rec.Field == nil {
		return nil, fmt.Errorf("insert snapshot %s: no data", rec.Name)
	}
	blob, err := output.EncodeBlob(rec)
	if err != nil {
		return nil, fmt.Errorf("insert snapshot %s: %w", rec.Name, err)
	}
	snap := &Snapshot{
		SnapshotID: uuid.New().String(),
		RunID:      s.runID,
		Name:       rec.Name,
		Unit:       rec.Unit,
		SimTime:    rec.Time,
		Step:       rec.Step,
		Components: rec.Field.Comp,
		Uniform:    rec.Value != nil,
		Options:    rec.Options,
		Path:       rec.Path,
		CreatedAt:  s.clock.Now(),
	}
	var opts sql.NullString
	if len(snap.Options) > 0 {
		b, err := json.Marshal(snap.Options)
		if err != nil {
			return nil, fmt.Errorf("marshal options: %w", err)
		}
		opts = sql.NullString{String: string(b), Valid: true}
	}
	_, err = s.db.Exec(`
		INSERT INTO snapshots (
			snapshot_id, run_id, name, unit, sim_time, step, components,
			uniform, options_json, path, data, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		snap.SnapshotID, snap.RunID, snap.Name, nullString(snap.Unit),
		snap.SimTime, snap.Step, snap.Components, boolInt(snap.Uniform),
		opts, nullString(snap.Path), blob, snap.CreatedAt.UnixNano(),
	)
	if err != nil {
		opsf("snapshot %s at t=%g: %v", rec.Name, rec.Time, err)
		return nil, fmt.Errorf("insert snapshot: %w", err)
	}
	tracef("stored %s at t=%g as %s (%d bytes)", snap.Name, snap.SimTime, snap.SnapshotID, len(blob))
	return snap, nil
}

// ListRuns returns every run, newest first.
func (db *DB) ListRuns() ([]*Run, error) {
	rows, err := db.Query(`
		SELECT run_id, label, nx, ny, nz, dx, dy, dz, started_at
		FROM runs
		ORDER BY started_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r := &Run{}
		var label sql.NullString
		var started int64
		if err := rows.Scan(&r.RunID, &label, &r.NX, &r.NY, &r.NZ, &r.DX, &r.DY, &r.DZ, &started); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Label = label.String
		r.StartedAt = time.Unix(0, started).UTC()
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

const snapshotColumns = `
	snapshot_id, run_id, name, unit, sim_time, step, components,
	uniform, options_json, path, created_at`

// ListSnapshots returns the snapshots of a run in simulation time order.
// An empty runID lists every snapshot.
func (db *DB) ListSnapshots(runID string) ([]*Snapshot, error) {
	query := `SELECT` + snapshotColumns + ` FROM snapshots`
	var args []interface{}
	if runID != "" {
		query += ` WHERE run_id = ?`
		args = append(args, runID)
	}
	query += ` ORDER BY run_id, sim_time, created_at`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// LoadSnapshot returns a snapshot and its decoded record.
func (db *DB) LoadSnapshot(id string) (*Snapshot, *output.Record, error) {
	row := db.QueryRow(`SELECT`+snapshotColumns+`, data FROM snapshots WHERE snapshot_id = ?`, id)
	var blob []byte
	snap, err := scanSnapshot(row, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("snapshot %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, nil, err
	}
	rec, err := output.DecodeBlob(blob)
	if err != nil {
		return nil, nil, fmt.Errorf("decode snapshot %s: %w", id, err)
	}
	return snap, rec, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSnapshot(sc scanner, extra ...interface{}) (*Snapshot, error) {
	s := &Snapshot{}
	var unit, opts, path sql.NullString
	var uniform int
	var created int64
	dest := []interface{}{
		&s.SnapshotID, &s.RunID, &s.Name, &unit, &s.SimTime, &s.Step, &s.Components,
		&uniform, &opts, &path, &created,
	}
	if err := sc.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan snapshot: %w", err)
	}
	s.Unit = unit.String
	s.Path = path.String
	s.Uniform = uniform != 0
	s.CreatedAt = time.Unix(0, created).UTC()
	if opts.Valid {
		if err := json.Unmarshal([]byte(opts.String), &s.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options of %s: %w", s.SnapshotID, err)
		}
	}
	return s, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
