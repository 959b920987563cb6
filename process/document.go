package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gcpp/gcode"
	"gcpp/layers"
	"gcpp/processors"
	"gcpp/state"
)

// Document is a single G-code program going through the pipeline.
type Document struct {
	SrcName    string
	RefID      string
	Processors []string

	Regions *gcode.RegionMap
	Result  [][]string
	Layers  []layers.Layer
	Output  []string
}

const maxLineLength = 16 * 1024 * 1024

func readLines(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	var lines []string
	for sc.Scan() {
		lines = append(lines, strings.TrimSuffix(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// Prepare reads the program, splits it into regions and runs requested
// processors. Resulting document has assembled output ready to be written.
func Prepare(ctx context.Context, r io.Reader, src string, log *zap.Logger) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	env := state.EnvFromContext(ctx)

	lines, err := readLines(r)
	if err != nil {
		return nil, fmt.Errorf("unable to read source: %w", err)
	}

	catalog, err := env.Cfg.Document.Catalog()
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	doc := &Document{SrcName: src, RefID: id.String(), Processors: env.Pipeline()}

	doc.Regions = catalog.Segment(lines)
	log.Debug("Document segmented",
		zap.Int("lines", doc.Regions.Total()), zap.Stringer("last", doc.Regions.Last()))

	if n := doc.Regions.Dropped(); n > 0 {
		log.Warn("Lines after final marker are ignored", zap.String("file", src), zap.Int("count", n))
	}
	if env.Strict || env.Cfg.Document.Strict {
		if err := doc.Regions.Check(); err != nil {
			return nil, err
		}
	}

	pipeline, err := buildPipeline(env)
	if err != nil {
		return nil, err
	}

	doc.Result, err = pipeline.Run(doc.Regions)
	if err != nil {
		var pe *gcode.ProcessorError
		if errors.As(err, &pe) {
			log.Error("Processor failed",
				zap.String("file", src), zap.String("processor", pe.Processor), zap.Stringer("region", pe.Region), zap.Error(pe.Err))
		}
		return nil, err
	}

	doc.Layers = gcode.SplitLayers(doc.Regions, layers.New(env.Cfg.Document.Layers.Prefixes...))
	log.Debug("Movements split", zap.Int("layers", len(doc.Layers)))

	doc.Output, err = gcode.Assemble(doc.Regions, doc.Result)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// buildPipeline instantiates processors requested on command line, falling
// back to configured defaults.
func buildPipeline(env *state.LocalEnv) (*gcode.Pipeline, error) {
	explicit, err := processors.Build(env.Processors, env.Cfg)
	if err != nil {
		return nil, err
	}
	var defaults []gcode.Processor
	if len(explicit) == 0 {
		if defaults, err = processors.Build(env.Cfg.Processing.Defaults, env.Cfg); err != nil {
			return nil, err
		}
	}
	return gcode.NewPipeline(explicit, defaults)
}

// OutputLayers splits assembled output into layers, so everything before the
// first layer change (headers, startup script) is sent as a single block.
func (d *Document) OutputLayers(prefixes []string) []layers.Layer {
	return layers.New(prefixes...).SplitLayers(d.Output)
}
