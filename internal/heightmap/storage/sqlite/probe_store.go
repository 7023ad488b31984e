package sqlite

import (
	"database/sql"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"
)

// ProbeRecord is one committed region probe of a run.
type ProbeRecord struct {
	ProbeID   string          `json:"probe_id"`
	RunID     string          `json:"run_id"`
	Seed      image.Point     `json:"seed"`
	Value     uint8           `json:"value"`
	Sealed    int             `json:"sealed"`
	Bounds    image.Rectangle `json:"bounds"`
	CreatedAt int64           `json:"created_at"`
}

// ProbeStore persists ProbeRecord rows.
type ProbeStore struct {
	db *sql.DB
}

// NewProbeStore creates a new ProbeStore.
func NewProbeStore(db *sql.DB) *ProbeStore {
	return &ProbeStore{db: db}
}

// Insert stores p. Empty ProbeID and zero CreatedAt are filled in. The run
// must already exist.
func (s *ProbeStore) Insert(p *ProbeRecord) error {
	if p.ProbeID == "" {
		p.ProbeID = uuid.New().String()
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().UnixNano()
	}
	_, err := s.db.Exec(`
		INSERT INTO heightmap_probes (
			probe_id, run_id, seed_x, seed_y, value, sealed,
			bounds_x0, bounds_y0, bounds_x1, bounds_y1, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ProbeID, p.RunID, p.Seed.X, p.Seed.Y, int(p.Value), p.Sealed,
		p.Bounds.Min.X, p.Bounds.Min.Y, p.Bounds.Max.X, p.Bounds.Max.Y, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert probe: %w", err)
	}
	return nil
}

// ListByRun returns the probes of a run in the order they were committed.
func (s *ProbeStore) ListByRun(runID string) ([]*ProbeRecord, error) {
	rows, err := s.db.Query(`
		SELECT probe_id, run_id, seed_x, seed_y, value, sealed,
		       bounds_x0, bounds_y0, bounds_x1, bounds_y1, created_at
		FROM heightmap_probes
		WHERE run_id = ?
		ORDER BY created_at, probe_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list probes: %w", err)
	}
	defer rows.Close()

	var out []*ProbeRecord
	for rows.Next() {
		p := &ProbeRecord{}
		var value int
		if err := rows.Scan(
			&p.ProbeID, &p.RunID, &p.Seed.X, &p.Seed.Y, &value, &p.Sealed,
			&p.Bounds.Min.X, &p.Bounds.Min.Y, &p.Bounds.Max.X, &p.Bounds.Max.Y, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan probe: %w", err)
		}
		p.Value = uint8(value)
		out = append(out, p)
	}
	return out, rows.Err()
}
