package labeling

import (
	"math"
	"slices"

	"github.com/samirrijal/clinicmap/internal/core/domain"
	"github.com/samirrijal/clinicmap/internal/pkg/geospatial"
)

// Box is the collision tolerance around a label anchor, as a fraction of the
// viewport width and height.
type Box struct {
	Width  float64
	Height float64
}

// DefaultBox approximates a label as 14% of the viewport wide and 6% tall.
// It is not derived from rendered text metrics.
var DefaultBox = Box{Width: 0.14, Height: 0.06}

// Overlaps reports whether two anchors are closer than the box on both axes.
func (b Box) Overlaps(a, c domain.LabelPlacement) bool {
	return math.Abs(a.X-c.X) < b.Width && math.Abs(a.Y-c.Y) < b.Height
}

// Input is one snapshot of everything label placement depends on.
type Input struct {
	Region domain.Region
	// POIs must carry finite coordinates; filtering is the caller's job.
	POIs []domain.POI
	// Reference orders candidates; nil means the viewport center.
	Reference *domain.GeoPoint
	// Selected is always labeled, whether or not it is in view.
	Selected *domain.POI
	// Budget caps the number of labels; <= 0 derives it from the region.
	Budget int
}

// Plan is the outcome of a placement: the accepted labels in acceptance order.
type Plan struct {
	Placements []domain.LabelPlacement
	Budget     int
	Visible    int
	Reference  domain.GeoPoint
}

// IDs returns the set of labeled POI identifiers.
func (p Plan) IDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(p.Placements))
	for _, pl := range p.Placements {
		ids[pl.ID] = struct{}{}
	}
	return ids
}

// Has reports whether id received a label.
func (p Plan) Has(id string) bool {
	for _, pl := range p.Placements {
		if pl.ID == id {
			return true
		}
	}
	return false
}

// Placer runs the greedy placement with a fixed tolerance box.
type Placer struct {
	box Box
}

// NewPlacer returns a Placer; a zero-sized box falls back to DefaultBox.
func NewPlacer(box Box) *Placer {
	if box.Width <= 0 || box.Height <= 0 {
		box = DefaultBox
	}
	return &Placer{box: box}
}

var defaultPlacer = NewPlacer(DefaultBox)

// Place runs placement with DefaultBox.
func Place(in Input) Plan {
	return defaultPlacer.Place(in)
}

type candidate struct {
	poi  domain.POI
	dist float64
}

// Place selects the labeled subset of in.POIs.
func (pl *Placer) Place(in Input) Plan {
	budget := in.Budget
	if budget <= 0 {
		budget = Budget(in.Region.LatitudeDelta)
	}

	vp := NewViewport(in.Region)
	ref := in.Region.Center()
	if in.Reference != nil {
		ref = *in.Reference
	}

	visible := make([]candidate, 0, len(in.POIs))
	for _, p := range in.POIs {
		if !vp.Contains(p.Location) {
			continue
		}
		visible = append(visible, candidate{
			poi:  p,
			dist: geospatial.Haversine(ref.Lat, ref.Lng, p.Location.Lat, p.Location.Lng),
		})
	}
	slices.SortStableFunc(visible, func(a, b candidate) int {
		switch {
		case a.dist < b.dist:
			return -1
		case a.dist > b.dist:
			return 1
		default:
			return 0
		}
	})

	accepted := make([]domain.LabelPlacement, 0, budget+1)
	seen := make(map[string]struct{}, budget+1)
	if in.Selected != nil {
		x, y := vp.Normalize(in.Selected.Location)
		accepted = append(accepted, domain.LabelPlacement{ID: in.Selected.ID, X: x, Y: y})
		seen[in.Selected.ID] = struct{}{}
	}

	for _, c := range visible {
		if len(accepted) >= budget {
			break
		}
		if _, ok := seen[c.poi.ID]; ok {
			continue
		}
		x, y := vp.Normalize(c.poi.Location)
		next := domain.LabelPlacement{ID: c.poi.ID, X: x, Y: y}
		if pl.collides(accepted, next) {
			continue
		}
		accepted = append(accepted, next)
		seen[next.ID] = struct{}{}
	}

	return Plan{
		Placements: accepted,
		Budget:     budget,
		Visible:    len(visible),
		Reference:  ref,
	}
}

func (pl *Placer) collides(accepted []domain.LabelPlacement, next domain.LabelPlacement) bool {
	for _, a := range accepted {
		if pl.box.Overlaps(a, next) {
			return true
		}
	}
	return false
}
