package gcode

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedDocument is reported by RegionMap.Check when some end markers
// were never seen. Segmentation itself never fails.
var ErrMalformedDocument = errors.New("malformed document")

// RegionMap holds document lines distributed over regions. It is populated
// once by Segment and must be treated as read-only afterwards.
type RegionMap struct {
	bodies  [RegionCount][]string
	markers [RegionCount]string
	closed  [RegionCount]bool
	last    Region
	total   int
	dropped int
}

// Segment splits lines using default catalog.
func Segment(lines []string) *RegionMap {
	return DefaultCatalog().Segment(lines)
}

// Segment assigns every line to a region. Lines are accumulated into the
// current region until its end marker is met, then scanning continues with
// the next region. End marker of the last region stops the scan, anything
// after it is dropped. Input without markers ends up in the last reached
// region.
func (c Catalog) Segment(lines []string) *RegionMap {
	if len(c.markers[0]) == 0 {
		c = DefaultCatalog()
	}

	rm := &RegionMap{last: RegionTopComment, total: len(lines)}
	cur := RegionTopComment
	for i, line := range lines {
		if strings.TrimSpace(line) != c.markers[cur] {
			rm.bodies[cur] = append(rm.bodies[cur], line)
			continue
		}
		rm.markers[cur], rm.closed[cur] = line, true
		next, ok := cur.Next()
		if !ok {
			rm.dropped = len(lines) - i - 1
			break
		}
		cur = next
		rm.last = cur
	}
	return rm
}

// Lines returns region body in input order, without the closing marker line.
// Returned slice belongs to the map and must not be modified. Accessors treat
// nil map as an empty document.
func (rm *RegionMap) Lines(r Region) []string {
	if rm == nil || !r.IsValid() {
		return nil
	}
	return rm.bodies[r]
}

// Marker returns closing marker line exactly as it appeared in the input.
func (rm *RegionMap) Marker(r Region) (string, bool) {
	if rm == nil || !r.IsValid() {
		return "", false
	}
	return rm.markers[r], rm.closed[r]
}

// Closed reports whether end marker of the region has been seen.
func (rm *RegionMap) Closed(r Region) bool {
	_, ok := rm.Marker(r)
	return ok
}

// Last returns the region scanning ended in.
func (rm *RegionMap) Last() Region {
	if rm == nil {
		return RegionTopComment
	}
	return rm.last
}

// Total is number of input lines, dropped ones included.
func (rm *RegionMap) Total() int {
	if rm == nil {
		return 0
	}
	return rm.total
}

// Dropped is number of lines which followed terminal marker and were not
// assigned to any region.
func (rm *RegionMap) Dropped() int {
	if rm == nil {
		return 0
	}
	return rm.dropped
}

// Check reports ErrMalformedDocument when any of the end markers is missing.
// Nil map is an empty document with every marker missing.
func (rm *RegionMap) Check() error {
	var missing []string
	for r := range RegionCount {
		if !rm.Closed(Region(r)) {
			missing = append(missing, Region(r).String())
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: no end marker for %s", ErrMalformedDocument, strings.Join(missing, ", "))
}
