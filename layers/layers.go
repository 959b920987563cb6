// Package layers groups motion commands into per layer blocks using layer
// change comments left by slicers.
package layers

import (
	"strings"

	"gcpp/gcode"
	"gcpp/scan"
)

// DefaultPrefixes are layer change comments of Cura and PrusaSlicer.
var DefaultPrefixes = []string{";LAYER:", ";LAYER_CHANGE"}

// Layer is a block of commands printed at a single height.
type Layer struct {
	Index int
	Lines []string
	// Preamble is set for commands preceding the first layer change.
	Preamble bool
}

// Z returns height of the layer: Z word of the first linear move carrying
// one. Malformed words are skipped.
func (l Layer) Z() (float64, bool) {
	for _, line := range l.Lines {
		if !gcode.IsMove(line) {
			continue
		}
		if z, ok, err := gcode.Word(line, 'Z'); ok && err == nil {
			return z, true
		}
	}
	return 0, false
}

// Bounds returns XY extent of the layer moves.
func (l Layer) Bounds() (scan.Box, bool) {
	return scan.Bounds(l.Lines)
}

// Splitter starts new layer on every line beginning with one of Prefixes.
type Splitter struct {
	Prefixes []string
}

// New returns splitter for prefixes, DefaultPrefixes are used if none given.
func New(prefixes ...string) *Splitter {
	if len(prefixes) == 0 {
		prefixes = DefaultPrefixes
	}
	return &Splitter{Prefixes: prefixes}
}

var _ gcode.LayerSplitter[Layer] = (*Splitter)(nil)

// SplitLayers implements gcode.LayerSplitter. Commands preceding the first
// layer change become layer of their own unless all of them are blank. Input
// without layer changes is a single layer.
func (s *Splitter) SplitLayers(lines []string) []Layer {
	result := []Layer{}
	var cur []string
	meaningful, preamble := false, true

	flush := func() {
		if len(cur) > 0 && meaningful {
			result = append(result, Layer{Index: len(result), Lines: cur, Preamble: preamble})
		}
		cur, meaningful = nil, false
	}

	for _, line := range lines {
		if s.isLayerChange(line) {
			flush()
			preamble = false
		}
		cur = append(cur, line)
		if len(strings.TrimSpace(line)) > 0 {
			meaningful = true
		}
	}
	flush()
	return result
}

func (s *Splitter) isLayerChange(line string) bool {
	t := strings.TrimSpace(line)
	for _, p := range s.Prefixes {
		if len(p) > 0 && strings.HasPrefix(t, p) {
			return true
		}
	}
	return false
}
