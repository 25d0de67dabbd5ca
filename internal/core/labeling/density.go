// Package labeling decides which map markers get a text label for a viewport.
//
// Labels are placed greedily, nearest first, in normalised viewport space. A
// label is rejected when its anchor falls inside the tolerance box of one
// already accepted, and placement stops once the zoom-derived budget is used up.
package labeling

import "github.com/samirrijal/clinicmap/internal/core/domain"

// DefaultLatDelta is the "nearby" zoom assumed when no region is known yet.
const DefaultLatDelta = 0.12

// Budget maps the latitude span of a viewport onto the maximum number of
// labels shown at once. Smaller spans (zoomed in) allow more labels.
func Budget(latDelta float64) int {
	switch {
	case latDelta < 0.02:
		return 12
	case latDelta < 0.05:
		return 10
	case latDelta < 0.08:
		return 8
	default:
		return 6
	}
}

// BudgetFor is Budget for an optional region.
func BudgetFor(region *domain.Region) int {
	if region == nil {
		return Budget(DefaultLatDelta)
	}
	return Budget(region.LatitudeDelta)
}
