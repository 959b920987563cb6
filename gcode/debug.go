package gcode

import (
	"gcpp/utils/debug"
)

const dumpLimit = 8

// String returns readable dump of the map. It exists solely for manual
// inspection during debugging.
func (rm *RegionMap) String() string {
	if rm == nil {
		return "<nil RegionMap>"
	}

	tw := debug.NewTreeWriter()
	tw.Line(0, "RegionMap: %d lines, %d dropped, ended in %s", rm.total, rm.dropped, rm.last)
	for r := range RegionCount {
		region := Region(r)
		tw.Line(1, "Region[%s] lines[%d] closed[%t]", region, len(rm.bodies[r]), rm.closed[r])
		if len(rm.bodies[r]) > 0 {
			tw.LineBlock(2, "body", rm.bodies[r], dumpLimit)
		}
		if rm.closed[r] {
			tw.TextBlock(2, "marker", rm.markers[r])
		}
	}
	return tw.String()
}
