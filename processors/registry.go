// Package processors holds region processors which can be requested by name
// on the command line or in configuration.
package processors

import (
	"errors"
	"fmt"
	"slices"

	"gcpp/config"
	"gcpp/gcode"
)

// ErrUnknown is returned for processor names absent from Registry.
var ErrUnknown = errors.New("unknown processor")

// New is processor factory signature. Options are taken from configuration.
type New func(cfg *config.Config) (gcode.Processor, error)

// Registry lists available processors by name.
var Registry = map[string]New{
	// strip-comments: drops comments and blank lines
	StripCommentsName: func(cfg *config.Config) (gcode.Processor, error) {
		return NewStripComments(&cfg.Processing.StripComments)
	},
	// z-correct: compensates measured layer height deviation
	ZCorrectName: func(cfg *config.Config) (gcode.Processor, error) {
		return NewZCorrect(&cfg.Processing.ZCorrect)
	},
	// layer-scan: adds sensor pass after every layer
	LayerScanName: func(cfg *config.Config) (gcode.Processor, error) {
		return NewLayerScan(&cfg.Processing.LayerScan, cfg.Document.Layers.Prefixes)
	},
	// inject: adds fixed lines around a region
	InjectName: func(cfg *config.Config) (gcode.Processor, error) {
		return NewInject(&cfg.Processing.Inject)
	},
	// feed-scale: scales feed rate of moves
	FeedScaleName: func(cfg *config.Config) (gcode.Processor, error) {
		return NewFeedScale(&cfg.Processing.FeedScale)
	},
}

var (
	_ gcode.Processor = (*StripComments)(nil)
	_ gcode.Processor = (*ZCorrect)(nil)
	_ gcode.Processor = (*LayerScan)(nil)
	_ gcode.Processor = (*Inject)(nil)
	_ gcode.Processor = (*FeedScale)(nil)
)

// Names returns sorted names of registered processors.
func Names() []string {
	names := make([]string, 0, len(Registry))
	for name := range Registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Build instantiates processors in requested order. The same name may be
// requested more than once.
func Build(names []string, cfg *config.Config) ([]gcode.Processor, error) {
	result := make([]gcode.Processor, 0, len(names))
	for _, name := range names {
		factory, ok := Registry[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknown, name, Names())
		}
		p, err := factory(cfg)
		if err != nil {
			return nil, fmt.Errorf("unable to create processor %q: %w", name, err)
		}
		result = append(result, p)
	}
	return result, nil
}
