package l4regions

import (
	"fmt"

	"github.com/banshee-data/heightmap/internal/heightmap/l3raster"
	"github.com/banshee-data/heightmap/internal/monitoring"
)

// Probe is the context a UI layer owns for interactive region probing. It
// replaces window-global state: the UI creates one, passes clicks to it and
// reads Paint back for display.
type Probe struct {
	Heightmap *l3raster.Raster // source heightmap, read-only
	Edges     *l3raster.Raster // label raster the grow runs on
	Paint     *RGBRaster       // committed visualisation
	Highlight [3]uint8

	history []Region
}

// NewProbe builds a probe over a heightmap and its edge map. Passing a nil
// edge map probes the heightmap values directly.
func NewProbe(heightmap, edges *l3raster.Raster) (*Probe, error) {
	if heightmap == nil {
		return nil, fmt.Errorf("nil heightmap")
	}
	if edges == nil {
		edges = heightmap
	}
	if edges.Width != heightmap.Width || edges.Height != heightmap.Height {
		return nil, fmt.Errorf("edge map %dx%d does not match heightmap %dx%d",
			edges.Width, edges.Height, heightmap.Width, heightmap.Height)
	}
	return &Probe{
		Heightmap: heightmap,
		Edges:     edges,
		Paint:     FromGray(heightmap),
		Highlight: DefaultHighlight,
	}, nil
}

// Click grows the region under (x, y) and commits the painted result.
func (p *Probe) Click(x, y int) (*GrowResult, error) {
	res, err := Grow(p.Edges, p.Paint, x, y, p.Highlight)
	if err != nil {
		return nil, err
	}
	p.Paint = res.Paint
	p.history = append(p.history, res.Summary())
	monitoring.Logf("[probe] click (%d, %d): value %d, %d pixels sealed, bounds %v",
		x, y, res.Value, res.Sealed, res.Bounds)
	return res, nil
}

// Reset discards every committed region.
func (p *Probe) Reset() {
	p.Paint = FromGray(p.Heightmap)
	p.history = nil
}

// History returns summaries of the committed grows, oldest first. Only
// summaries are kept, so a long-lived probe does not retain rasters.
func (p *Probe) History() []Region {
	out := make([]Region, len(p.history))
	copy(out, p.history)
	return out
}
