package gcode

import (
	"fmt"
	"slices"
)

// Pipeline applies processors to inner regions of a segmented document.
// Processors are grouped by region once, at construction.
type Pipeline struct {
	plan map[Region][]Processor
}

// NewPipeline prepares pipeline for processors. When processors is empty
// defaults are used instead. Processor attached to a region other than
// startup script, movements or end script is rejected.
func NewPipeline(processors, defaults []Processor) (*Pipeline, error) {
	if len(processors) == 0 {
		processors = defaults
	}

	p := &Pipeline{plan: make(map[Region][]Processor, len(innerRegions))}
	for i, proc := range processors {
		if proc == nil {
			return nil, fmt.Errorf("%w: processor %d is nil", ErrAffinity, i)
		}
		r := proc.Affinity()
		if !r.IsInner() {
			return nil, fmt.Errorf("%w: processor %q targets %s, only %v could be processed", ErrAffinity, proc.Name(), r, innerRegions)
		}
		p.plan[r] = append(p.plan[r], proc)
	}
	return p, nil
}

// Processors returns processors attached to region in order of application.
func (p *Pipeline) Processors(r Region) []Processor {
	return slices.Clone(p.plan[r])
}

// Run processes startup script, movements and end script in that order and
// returns exactly three results positionally bound to those regions. Top and
// bottom comments are not processed and not returned. First processor error
// aborts the run.
func (p *Pipeline) Run(rm *RegionMap) ([][]string, error) {
	out := make([][]string, 0, len(innerRegions))
	for _, r := range innerRegions {
		// region bodies belong to the map, processors get a private copy
		lines := slices.Clone(rm.Lines(r))
		if lines == nil {
			lines = []string{}
		}
		for _, proc := range p.plan[r] {
			res, err := proc.Process(lines)
			if err != nil {
				return nil, &ProcessorError{Processor: proc.Name(), Region: r, Err: err}
			}
			if res == nil {
				res = []string{}
			}
			lines = res
		}
		out = append(out, lines)
	}
	return out, nil
}

// Run is a one-shot form of NewPipeline followed by Pipeline.Run.
func Run(rm *RegionMap, processors, defaults []Processor) ([][]string, error) {
	p, err := NewPipeline(processors, defaults)
	if err != nil {
		return nil, err
	}
	return p.Run(rm)
}
