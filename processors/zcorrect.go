package processors

import (
	"fmt"
	"math"

	"gcpp/config"
	"gcpp/gcode"
	"gcpp/scan"
)

const ZCorrectName = "z-correct"

// ZCorrect lowers (or raises) every Z of linear moves by measured deviation
// of the previous layer.
type ZCorrect struct {
	deviation float64
	minZ      float64
	tolerance float64
	result    *scan.Result
}

// NewZCorrect takes deviation from configuration or computes it from
// measured heights when those are present.
func NewZCorrect(conf *config.ZCorrectConfig) (*ZCorrect, error) {
	p := &ZCorrect{deviation: conf.Deviation, minZ: conf.MinZ, tolerance: conf.Tolerance}
	if len(conf.Heights) > 0 {
		res, err := scan.Analyze(conf.Heights, conf.ExpectedZ, conf.OutlierThreshold)
		if err != nil {
			return nil, err
		}
		p.deviation, p.result = res.Deviation, &res
	}
	return p, nil
}

func (p *ZCorrect) Name() string           { return ZCorrectName }
func (p *ZCorrect) Affinity() gcode.Region { return gcode.RegionMovements }

// Deviation returns correction in use.
func (p *ZCorrect) Deviation() float64 { return p.deviation }

// Analysis returns height analysis when deviation was computed.
func (p *ZCorrect) Analysis() (scan.Result, bool) {
	if p.result == nil {
		return scan.Result{}, false
	}
	return *p.result, true
}

func (p *ZCorrect) Process(lines []string) ([]string, error) {
	if math.Abs(p.deviation) < p.tolerance {
		return lines, nil
	}
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		if !gcode.IsMove(line) {
			out = append(out, line)
			continue
		}
		z, ok, err := gcode.Word(line, 'Z')
		if err != nil {
			return nil, fmt.Errorf("line %d %q: %w", i+1, line, err)
		}
		if !ok {
			out = append(out, line)
			continue
		}
		out = append(out, gcode.SetWord(line, 'Z', math.Max(z-p.deviation, p.minZ), 3))
	}
	return out, nil
}
