package gcode

import (
	"fmt"
	"strings"
)

// Default end markers, as emitted by the slicer profile.
const (
	MarkerTopComment    = ";top metadata end"
	MarkerStartupScript = ";startup script end"
	MarkerMovements     = ";gcode movements end"
	MarkerEndScript     = ";end script end"
	MarkerBottomComment = ";bottom comment end"
)

// Catalog associates every region with the marker line closing it. Marker of
// the last region terminates the document.
type Catalog struct {
	markers [RegionCount]string
}

// DefaultCatalog returns catalog with standard end markers.
func DefaultCatalog() Catalog {
	return Catalog{markers: [RegionCount]string{
		MarkerTopComment,
		MarkerStartupScript,
		MarkerMovements,
		MarkerEndScript,
		MarkerBottomComment,
	}}
}

// NewCatalog builds catalog from markers listed in region order. Markers are
// compared after trimming surrounding white space so they are stored trimmed.
func NewCatalog(markers ...string) (Catalog, error) {
	var c Catalog
	if len(markers) != RegionCount {
		return c, fmt.Errorf("catalog needs %d end markers, got %d", RegionCount, len(markers))
	}
	seen := make(map[string]Region, RegionCount)
	for i, m := range markers {
		m = strings.TrimSpace(m)
		if len(m) == 0 {
			return c, fmt.Errorf("empty end marker for region %s", Region(i))
		}
		if prev, ok := seen[m]; ok {
			return c, fmt.Errorf("end marker %q used for both %s and %s", m, prev, Region(i))
		}
		seen[m] = Region(i)
		c.markers[i] = m
	}
	return c, nil
}

// Marker returns end marker of the region.
func (c Catalog) Marker(r Region) string {
	if !r.IsValid() {
		return ""
	}
	return c.markers[r]
}
