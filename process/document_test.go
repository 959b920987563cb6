package process

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"gcpp/gcode"
	"gcpp/processors"
)

func TestPrepare(t *testing.T) {
	ctx, env := setupTestEnv(t)
	env.Processors = []string{processors.InjectName}
	env.Cfg.Processing.Inject.Append = []string{"M117 ready"}

	doc, err := Prepare(ctx, strings.NewReader(sampleProgram), "part.gcode", env.Log)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if doc.RefID == "" {
		t.Error("RefID is not set")
	}
	if diff := cmp.Diff([]string{"G28", "G92 E0", "M117 ready"}, doc.Result[0]); diff != "" {
		t.Errorf("startup script mismatch (-want +got):\n%s", diff)
	}
	if len(doc.Layers) != 2 {
		t.Errorf("Layers = %d, want 2", len(doc.Layers))
	}
	want := strings.Replace(sampleProgram, "G92 E0\n", "G92 E0\nM117 ready\n", 1)
	if got := strings.Join(doc.Output, "\n") + "\n"; got != want {
		t.Errorf("Output mismatch:\n%s", got)
	}

	dump := doc.String()
	for _, s := range []string{"part.gcode", "Region[movements]", "Layer[1]", "inject"} {
		if !strings.Contains(dump, s) {
			t.Errorf("String() does not contain %q:\n%s", s, dump)
		}
	}
}

func TestPrepare_Defaults(t *testing.T) {
	ctx, env := setupTestEnv(t)
	env.Cfg.Processing.Defaults = []string{processors.StripCommentsName}

	doc, err := Prepare(ctx, strings.NewReader(sampleProgram), "part.gcode", env.Log)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if diff := cmp.Diff([]string{processors.StripCommentsName}, doc.Processors); diff != "" {
		t.Errorf("Processors mismatch (-want +got):\n%s", diff)
	}
	if slices.Contains(doc.Result[1], "G1 X0 Y0 Z0.2 F1500 ; first") {
		t.Error("defaults were not applied")
	}

	// explicit list replaces defaults
	env.Processors = []string{processors.FeedScaleName}
	doc, err = Prepare(ctx, strings.NewReader(sampleProgram), "part.gcode", env.Log)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if !slices.Contains(doc.Result[1], "G1 X0 Y0 Z0.2 F1500 ; first") {
		t.Error("defaults applied together with explicit list")
	}
}

func TestPrepare_CRLFAndTrailing(t *testing.T) {
	ctx, env := setupTestEnv(t)

	src := strings.ReplaceAll(sampleProgram, "\n", "\r\n") + "; trailing junk\r\n"
	doc, err := Prepare(ctx, strings.NewReader(src), "part.gcode", env.Log)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if doc.Regions.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", doc.Regions.Dropped())
	}
	if got := strings.Join(doc.Output, "\n") + "\n"; got != sampleProgram {
		t.Errorf("Output mismatch:\n%q", got)
	}
}

func TestPrepare_Strict(t *testing.T) {
	ctx, env := setupTestEnv(t)
	incomplete := ";top metadata end\nG28\n"

	if _, err := Prepare(ctx, strings.NewReader(incomplete), "part.gcode", env.Log); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	env.Cfg.Document.Strict = true
	if _, err := Prepare(ctx, strings.NewReader(incomplete), "part.gcode", env.Log); !errors.Is(err, gcode.ErrMalformedDocument) {
		t.Errorf("Prepare() error = %v, want ErrMalformedDocument", err)
	}
}

func TestPrepare_UnknownProcessor(t *testing.T) {
	ctx, env := setupTestEnv(t)
	env.Processors = []string{"no-such"}

	if _, err := Prepare(ctx, strings.NewReader(sampleProgram), "part.gcode", env.Log); !errors.Is(err, processors.ErrUnknown) {
		t.Errorf("Prepare() error = %v, want ErrUnknown", err)
	}
}

func TestDocument_OutputLayers(t *testing.T) {
	ctx, env := setupTestEnv(t)

	doc, err := Prepare(ctx, strings.NewReader(sampleProgram), "part.gcode", env.Log)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	ls := doc.OutputLayers(env.Cfg.Document.Layers.Prefixes)
	if len(ls) != 3 {
		t.Fatalf("OutputLayers() = %d layers, want 3", len(ls))
	}
	if !ls[0].Preamble || ls[0].Lines[2] != "G28" {
		t.Errorf("first layer must hold headers and startup script: %v", ls[0].Lines)
	}
	if last := ls[2].Lines; last[len(last)-1] != ";bottom comment end" {
		t.Errorf("last layer must hold end script: %v", last)
	}
}
