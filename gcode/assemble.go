package gcode

import "fmt"

// Assemble puts document back together: untouched top comment, processed
// inner regions from result (as returned by Pipeline.Run) and untouched
// bottom comment, each followed by its end marker if one was present in the
// input. Nil map contributes nothing but processed regions.
func Assemble(rm *RegionMap, result [][]string) ([]string, error) {
	if len(result) != len(innerRegions) {
		return nil, fmt.Errorf("expected %d processed regions, got %d", len(innerRegions), len(result))
	}

	size := 0
	for r := range RegionCount {
		size += len(rm.Lines(Region(r))) + 1
	}
	out := make([]string, 0, size)

	emit := func(r Region, body []string) {
		out = append(out, body...)
		if m, ok := rm.Marker(r); ok {
			out = append(out, m)
		}
	}

	emit(RegionTopComment, rm.Lines(RegionTopComment))
	for i, r := range innerRegions {
		emit(r, result[i])
	}
	emit(RegionBottomComment, rm.Lines(RegionBottomComment))
	return out, nil
}
