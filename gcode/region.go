// Package gcode splits slicer produced G-code into structural regions and
// runs region scoped processors over them.
package gcode

// Structural zone of a G-code document, in the order zones appear in a
// well formed file.
// ENUM(top-comment, startup-script, movements, end-script, bottom-comment)
type Region int

// RegionCount is the number of regions in the catalog.
const RegionCount = int(RegionBottomComment) + 1

// innerRegions are the only regions processors may be attached to.
var innerRegions = [...]Region{RegionStartupScript, RegionMovements, RegionEndScript}

// InnerRegions returns regions subject to processing in catalog order.
func InnerRegions() []Region {
	return innerRegions[:]
}

// IsInner reports whether processors may target the region.
func (x Region) IsInner() bool {
	return x == RegionStartupScript || x == RegionMovements || x == RegionEndScript
}

// Next returns region following x in the catalog. Last region has no
// successor.
func (x Region) Next() (Region, bool) {
	if !x.IsValid() || x == RegionBottomComment {
		return x, false
	}
	return x + 1, true
}
