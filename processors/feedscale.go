package processors

import (
	"fmt"
	"math"

	"gcpp/config"
	"gcpp/gcode"
)

const FeedScaleName = "feed-scale"

// FeedScale multiplies feed rate of linear moves.
type FeedScale struct {
	factor float64
}

func NewFeedScale(conf *config.FeedScaleConfig) (*FeedScale, error) {
	if conf.Factor <= 0 {
		return nil, fmt.Errorf("feed factor must be positive: %v", conf.Factor)
	}
	return &FeedScale{factor: conf.Factor}, nil
}

func (p *FeedScale) Name() string           { return FeedScaleName }
func (p *FeedScale) Affinity() gcode.Region { return gcode.RegionMovements }

func (p *FeedScale) Process(lines []string) ([]string, error) {
	if p.factor == 1 {
		return lines, nil
	}
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		if !gcode.IsMove(line) {
			out = append(out, line)
			continue
		}
		f, ok, err := gcode.Word(line, 'F')
		if err != nil {
			return nil, fmt.Errorf("line %d %q: %w", i+1, line, err)
		}
		if ok {
			line = gcode.SetWord(line, 'F', math.Round(f*p.factor*1000)/1000, -1)
		}
		out = append(out, line)
	}
	return out, nil
}
