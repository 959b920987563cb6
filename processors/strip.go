package processors

import (
	"fmt"
	"strings"

	"gcpp/config"
	"gcpp/gcode"
)

const StripCommentsName = "strip-comments"

// StripComments removes comment only lines and trailing comments. Lines
// starting with one of the kept prefixes (layer changes) are left intact so
// the layer structure survives.
type StripComments struct {
	region    gcode.Region
	keepEmpty bool
	keep      []string
}

func NewStripComments(conf *config.StripCommentsConfig) (*StripComments, error) {
	if !conf.Region.IsInner() {
		return nil, fmt.Errorf("%w: region %s cannot be processed", gcode.ErrAffinity, conf.Region)
	}
	return &StripComments{region: conf.Region, keepEmpty: conf.KeepEmpty, keep: conf.KeepPrefixes}, nil
}

func (p *StripComments) Name() string           { return StripCommentsName }
func (p *StripComments) Affinity() gcode.Region { return p.region }

func (p *StripComments) Process(lines []string) ([]string, error) {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if p.kept(line) {
			out = append(out, line)
			continue
		}
		code := gcode.StripComment(line)
		if len(code) == 0 {
			if p.keepEmpty && len(strings.TrimSpace(line)) == 0 {
				out = append(out, "")
			}
			continue
		}
		out = append(out, code)
	}
	return out, nil
}

func (p *StripComments) kept(line string) bool {
	t := strings.TrimSpace(line)
	for _, prefix := range p.keep {
		if strings.HasPrefix(t, prefix) {
			return true
		}
	}
	return false
}
