// Package scan prepares laser scan passes over printed layers and turns
// measured bead heights into a correction for the following layer.
package scan

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"gcpp/gcode"
)

// Box is XY extent of a layer.
type Box struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// DefaultBox is used when layer has no usable coordinates.
var DefaultBox = Box{MinX: 0, MaxX: 200, MinY: 0, MaxY: 200}

// Bounds returns extent of linear moves in lines. When no X or no Y words
// are found DefaultBox is returned with false.
func Bounds(lines []string) (Box, bool) {
	b := Box{
		MinX: math.Inf(1), MaxX: math.Inf(-1),
		MinY: math.Inf(1), MaxY: math.Inf(-1),
	}
	for _, line := range lines {
		if !gcode.IsMove(line) {
			continue
		}
		if x, ok, err := gcode.Word(line, 'X'); ok && err == nil {
			b.MinX, b.MaxX = math.Min(b.MinX, x), math.Max(b.MaxX, x)
		}
		if y, ok, err := gcode.Word(line, 'Y'); ok && err == nil {
			b.MinY, b.MaxY = math.Min(b.MinY, y), math.Max(b.MaxY, y)
		}
	}
	if math.IsInf(b.MinX, 1) || math.IsInf(b.MinY, 1) {
		return DefaultBox, false
	}
	return b, true
}

// PathOptions control generated scan pass.
type PathOptions struct {
	// SafetyOffset is lift above layer height for travel.
	SafetyOffset float64
	// ScanHeight is sensor height above layer during the pass.
	ScanHeight float64
	// Margin extends the box on every side.
	Margin float64
	// Feed is scanning speed, mm/min.
	Feed float64
	// TravelFeed is positioning speed, mm/min.
	TravelFeed float64
}

// DefaultPathOptions returns settings used by the WAAM cell.
func DefaultPathOptions() PathOptions {
	return PathOptions{SafetyOffset: 5, ScanHeight: 2, Margin: 2, Feed: 500, TravelFeed: 1000}
}

// Path returns commands moving the sensor around the box at layer height z:
// lift, travel to corner, descend, trace the rectangle, lift again.
func Path(b Box, z float64, opts PathOptions) []string {
	x0, x1 := num(b.MinX-opts.Margin), num(b.MaxX+opts.Margin)
	y0, y1 := num(b.MinY-opts.Margin), num(b.MaxY+opts.Margin)
	safe := num(z + opts.SafetyOffset)

	return []string{
		"; scan pass at Z" + num(z),
		"G0 F" + num(opts.TravelFeed) + " Z" + safe,
		"G0 X" + x0 + " Y" + y0,
		"G0 Z" + num(z+opts.ScanHeight),
		"G1 X" + x1 + " Y" + y0 + " F" + num(opts.Feed),
		"G1 X" + x1 + " Y" + y1,
		"G1 X" + x0 + " Y" + y1,
		"G1 X" + x0 + " Y" + y0,
		"G0 Z" + safe,
	}
}

func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}

// Valid sensor readings lie strictly inside this range, mm.
const (
	MinValidHeight = 0.1
	MaxValidHeight = 100
)

// ErrNoSamples is returned when no usable height measurement is left.
var ErrNoSamples = errors.New("no valid height samples")

// Result summarizes measured layer heights.
type Result struct {
	Expected   float64
	Min, Max   float64
	Mean       float64
	Samples    int
	RawSamples int
	// Deviation is Mean - Expected, positive when layer came out too high.
	Deviation float64
}

func (r Result) String() string {
	return fmt.Sprintf("mean=%.3f expected=%.3f deviation=%.3f samples=%d/%d", r.Mean, r.Expected, r.Deviation, r.Samples, r.RawSamples)
}

// Analyze drops readings outside of valid range and, when there are more
// than 3 of them, readings further than threshold standard deviations from
// the mean. Non positive threshold disables outlier filtering.
func Analyze(heights []float64, expected, threshold float64) (Result, error) {
	res := Result{Expected: expected, RawSamples: len(heights)}

	valid := make([]float64, 0, len(heights))
	for _, h := range heights {
		if h > MinValidHeight && h < MaxValidHeight {
			valid = append(valid, h)
		}
	}
	if threshold > 0 && len(valid) > 3 {
		valid = filterOutliers(valid, threshold)
	}
	if len(valid) == 0 {
		return res, ErrNoSamples
	}

	res.Samples = len(valid)
	res.Mean = stat.Mean(valid, nil)
	res.Min, res.Max = valid[0], valid[0]
	for _, h := range valid[1:] {
		res.Min, res.Max = math.Min(res.Min, h), math.Max(res.Max, h)
	}
	res.Deviation = res.Mean - expected
	return res, nil
}

func filterOutliers(data []float64, threshold float64) []float64 {
	mean, std := stat.Mean(data, nil), stat.PopStdDev(data, nil)
	out := make([]float64, 0, len(data))
	for _, v := range data {
		if math.Abs(v-mean) <= threshold*std {
			out = append(out, v)
		}
	}
	return out
}
