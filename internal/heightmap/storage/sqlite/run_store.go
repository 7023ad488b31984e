package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/heightmap/internal/heightmap/l2bounds"
)

// ErrNotFound is returned when a catalogue row does not exist.
var ErrNotFound = errors.New("not found")

// Run is one catalogued heightmap run.
type Run struct {
	RunID          string                 `json:"run_id"`
	CreatedAt      int64                  `json:"created_at"` // unix nanoseconds
	AppVersion     string                 `json:"app_version,omitempty"`
	DescriptorPath string                 `json:"descriptor_path,omitempty"`
	PointsPath     string                 `json:"points_path"`
	OutputPath     string                 `json:"output_path,omitempty"`
	Box            l2bounds.BoundingBox3D `json:"box"`
	Cols           int                    `json:"cols"`
	Rows           int                    `json:"rows"`
	Points         int64                  `json:"points"`
	Binned         int64                  `json:"binned"`
	Clamped        int64                  `json:"clamped"`
	EmptyCells     int                    `json:"empty_cells"`
	TruncatedBytes int                    `json:"truncated_bytes"`
	MeanHeight     float64                `json:"mean_height"`
	StdDevHeight   float64                `json:"stddev_height"`
	Classes        []int32                `json:"classes,omitempty"`
	Detector       string                 `json:"detector,omitempty"`
}

// RunStore persists Run rows.
type RunStore struct {
	db *sql.DB
}

// NewRunStore creates a new RunStore.
func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// Insert stores run. Empty RunID and zero CreatedAt are filled in.
func (s *RunStore) Insert(run *Run) error {
	if run.PointsPath == "" {
		return fmt.Errorf("insert run: points path is required")
	}
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().UnixNano()
	}
	classes, err := json.Marshal(run.Classes)
	if err != nil {
		return fmt.Errorf("encode classes: %w", err)
	}

	query := `
		INSERT INTO heightmap_runs (
			run_id, created_at, app_version, descriptor_path, points_path, output_path,
			min_x, max_x, min_y, max_y, min_z, max_z,
			cols, rows, points, binned, clamped, empty_cells, truncated_bytes,
			mean_height, stddev_height, classes_json, detector
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	b := run.Box
	_, err = s.db.Exec(query,
		run.RunID, run.CreatedAt, nullString(run.AppVersion), nullString(run.DescriptorPath),
		run.PointsPath, nullString(run.OutputPath),
		b.MinX, b.MaxX, b.MinY, b.MaxY, b.MinZ, b.MaxZ,
		run.Cols, run.Rows, run.Points, run.Binned, run.Clamped, run.EmptyCells, run.TruncatedBytes,
		run.MeanHeight, run.StdDevHeight, string(classes), nullString(run.Detector),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

const runColumns = `
	run_id, created_at, app_version, descriptor_path, points_path, output_path,
	min_x, max_x, min_y, max_y, min_z, max_z,
	cols, rows, points, binned, clamped, empty_cells, truncated_bytes,
	mean_height, stddev_height, classes_json, detector`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(sc rowScanner) (*Run, error) {
	r := &Run{}
	var appVersion, descriptor, output, classes, detector sql.NullString
	var mean, stddev sql.NullFloat64
	b := &r.Box
	err := sc.Scan(
		&r.RunID, &r.CreatedAt, &appVersion, &descriptor, &r.PointsPath, &output,
		&b.MinX, &b.MaxX, &b.MinY, &b.MaxY, &b.MinZ, &b.MaxZ,
		&r.Cols, &r.Rows, &r.Points, &r.Binned, &r.Clamped, &r.EmptyCells, &r.TruncatedBytes,
		&mean, &stddev, &classes, &detector,
	)
	if err != nil {
		return nil, err
	}
	r.AppVersion = appVersion.String
	r.DescriptorPath = descriptor.String
	r.OutputPath = output.String
	r.Detector = detector.String
	r.MeanHeight = mean.Float64
	r.StdDevHeight = stddev.Float64
	if classes.Valid && classes.String != "" && classes.String != "null" {
		if err := json.Unmarshal([]byte(classes.String), &r.Classes); err != nil {
			return nil, fmt.Errorf("decode classes: %w", err)
		}
	}
	return r, nil
}

// Get returns the run with the given id, or ErrNotFound.
func (s *RunStore) Get(runID string) (*Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM heightmap_runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// List returns the most recent runs first. limit <= 0 returns all.
func (s *RunStore) List(limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM heightmap_runs ORDER BY created_at DESC, run_id`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Delete removes a run and, through the foreign key, its probes.
func (s *RunStore) Delete(runID string) error {
	res, err := s.db.Exec(`DELETE FROM heightmap_runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
