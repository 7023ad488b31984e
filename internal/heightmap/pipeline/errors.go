package pipeline

import "fmt"

// Stage names one step of a run.
type Stage string

const (
	StageBounds   Stage = "bounds"
	StageRaster   Stage = "raster"
	StageLayers   Stage = "layers"
	StageEdges    Stage = "edges"
	StageBinarize Stage = "binarize"
	StageClosing  Stage = "closing"
)

// StageError identifies the stage that failed and the input it was
// reading. Unwrap exposes the underlying sentinel, so callers can test
// errors.Is(err, l2bounds.ErrDegenerateBounds) and the like.
type StageError struct {
	Stage Stage
	Path  string
	Err   error
}

func (e *StageError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s stage failed for %s: %v", e.Stage, e.Path, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
