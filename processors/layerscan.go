package processors

import (
	"errors"
	"fmt"

	"gcpp/config"
	"gcpp/gcode"
	"gcpp/layers"
	"gcpp/scan"
)

const LayerScanName = "layer-scan"

var errNoLayerZ = errors.New("layer has no height")

// LayerScan inserts a sensor pass after every printed layer except the last
// one, so bead height can be measured before the next layer starts.
type LayerScan struct {
	splitter *layers.Splitter
	opts     scan.PathOptions
}

func NewLayerScan(conf *config.LayerScanConfig, prefixes []string) (*LayerScan, error) {
	if conf.Feed <= 0 || conf.TravelFeed <= 0 {
		return nil, fmt.Errorf("scan feed rates must be positive: %v, %v", conf.Feed, conf.TravelFeed)
	}
	return &LayerScan{
		splitter: layers.New(prefixes...),
		opts: scan.PathOptions{
			SafetyOffset: conf.SafetyOffset,
			ScanHeight:   conf.ScanHeight,
			Margin:       conf.Margin,
			Feed:         conf.Feed,
			TravelFeed:   conf.TravelFeed,
		},
	}, nil
}

func (p *LayerScan) Name() string           { return LayerScanName }
func (p *LayerScan) Affinity() gcode.Region { return gcode.RegionMovements }

func (p *LayerScan) Process(lines []string) ([]string, error) {
	ls := p.splitter.SplitLayers(lines)

	consumed := 0
	for _, l := range ls {
		consumed += len(l.Lines)
	}
	// blank lines before the first layer are not part of any layer
	out := append(make([]string, 0, len(lines)+len(ls)*9), lines[:len(lines)-consumed]...)

	for i, l := range ls {
		out = append(out, l.Lines...)
		if i == len(ls)-1 {
			break
		}
		z, ok := l.Z()
		if !ok {
			if l.Preamble {
				continue
			}
			return nil, fmt.Errorf("layer %d: %w", l.Index, errNoLayerZ)
		}
		box, _ := l.Bounds()
		out = append(out, scan.Path(box, z, p.opts)...)
	}
	return out, nil
}
