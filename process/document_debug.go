package process

import (
	"fmt"

	"gcpp/config"
	"gcpp/gcode"
	"gcpp/utils/debug"
)

// String returns a readable tree of the document. It exists solely for manual
// inspection during debugging.
func (d *Document) String() string {
	if d == nil {
		return "<nil Document>"
	}

	tw := debug.NewTreeWriter()
	tw.Line(0, "Document[%s] ref[%s]", d.SrcName, d.RefID)
	tw.Line(1, "Processors: %v", d.Processors)
	for i, r := range gcode.InnerRegions() {
		if i < len(d.Result) {
			tw.Line(1, "Result[%s] lines[%d] (was %d)", r, len(d.Result[i]), len(d.Regions.Lines(r)))
		}
	}
	tw.Line(1, "Layers: %d", len(d.Layers))
	for _, l := range d.Layers {
		if z, ok := l.Z(); ok {
			tw.Line(2, "Layer[%d] lines[%d] z[%.3f] preamble[%t]", l.Index, len(l.Lines), z, l.Preamble)
		} else {
			tw.Line(2, "Layer[%d] lines[%d] preamble[%t]", l.Index, len(l.Lines), l.Preamble)
		}
	}
	return d.Regions.String() + "\n" + tw.String()
}

// dump stores document state in the debug report.
func (d *Document) dump(rpt *config.Report) {
	if rpt == nil || d == nil {
		return
	}
	rpt.StoreData(fmt.Sprintf("documents/%s/tree.txt", d.RefID), []byte(d.String()))
	rpt.StoreLines(fmt.Sprintf("documents/%s/output.gcode", d.RefID), d.Output)
}
