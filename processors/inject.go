package processors

import (
	"fmt"
	"slices"

	"gcpp/config"
	"gcpp/gcode"
)

const InjectName = "inject"

// Inject surrounds region body with fixed lines.
type Inject struct {
	region  gcode.Region
	prepend []string
	append  []string
}

func NewInject(conf *config.InjectConfig) (*Inject, error) {
	if !conf.Region.IsInner() {
		return nil, fmt.Errorf("%w: region %s cannot be processed", gcode.ErrAffinity, conf.Region)
	}
	return &Inject{region: conf.Region, prepend: slices.Clone(conf.Prepend), append: slices.Clone(conf.Append)}, nil
}

func (p *Inject) Name() string           { return InjectName }
func (p *Inject) Affinity() gcode.Region { return p.region }

func (p *Inject) Process(lines []string) ([]string, error) {
	return slices.Concat(p.prepend, lines, p.append), nil
}
