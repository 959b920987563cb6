package process

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"gcpp/layers"
	"gcpp/state"
)

func testDocument() *Document {
	return &Document{
		SrcName:    filepath.Join("jobs", "Bracket v2.gcode"),
		RefID:      "0190b6e4-0000-7000-8000-000000000000",
		Processors: []string{"strip-comments", "z-correct"},
		Layers:     make([]layers.Layer, 12),
		Output:     make([]string, 340),
	}
}

func testEnv(t *testing.T) *state.LocalEnv {
	_, env := setupTestEnv(t)
	return env
}

func TestBuildOutputPath(t *testing.T) {
	src := filepath.Join("jobs", "Bracket v2.gcode")
	dst := filepath.Join("out")

	tests := []struct {
		name          string
		nodirs        bool
		transliterate bool
		template      string
		want          string
	}{
		{"keep dirs", false, false, "", filepath.Join("out", "jobs", "Bracket v2.gcode")},
		{"no dirs", true, false, "", filepath.Join("out", "Bracket v2.gcode")},
		{"transliterate", true, true, "", filepath.Join("out", "bracket-v2.gcode")},
		{"template", true, false, "{{ .SourceFile }}-{{ .Layers }}L", filepath.Join("out", "Bracket v2-12L.gcode")},
		{"template with dirs", true, false, "{{ .SourceDir }}/{{ .Lines }}/{{ .SourceFile }}", filepath.Join("out", "jobs", "340", "Bracket v2.gcode")},
		{"template escaping", true, false, "../../{{ .SourceFile }}", filepath.Join("out", "Bracket v2.gcode")},
		{"broken template", true, false, "{{ .Missing }", filepath.Join("out", "Bracket v2.gcode")},
		{"sprig", true, false, `{{ .SourceFile | upper | replace " " "_" }}`, filepath.Join("out", "BRACKET_V2.gcode")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testEnv(t)
			env.NoDirs = tt.nodirs
			env.Cfg.Document.FileNameTransliterate = tt.transliterate
			env.Cfg.Document.OutputNameTemplate = tt.template

			if got := buildOutputPath(testDocument(), src, dst, env); got != tt.want {
				t.Errorf("buildOutputPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildOutputPath_Extension(t *testing.T) {
	env := testEnv(t)
	env.Cfg.Document.OutputExtension = ".nc"

	if got := buildOutputPath(testDocument(), "part.gco", "out", env); got != filepath.Join("out", "part.nc") {
		t.Errorf("buildOutputPath() = %q", got)
	}
}

func TestSplitPath(t *testing.T) {
	sep := string(filepath.Separator)
	tests := []struct {
		in   string
		want []string
	}{
		{"a" + sep + "b" + sep + "c", []string{"a", "b", "c"}},
		{sep + "a" + sep + sep + "b" + sep, []string{"a", "b"}},
		{".." + sep + "a" + sep + "." + sep + "b", []string{"a", "b"}},
		{"", []string{}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, splitPath(tt.in)); diff != "" {
			t.Errorf("splitPath(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestExpandTemplate(t *testing.T) {
	doc := testDocument()

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"simple text", "static", "static"},
		{"context", "{{ .Context }}", "output_name_template"},
		{"ref id", "{{ .RefID }}", doc.RefID},
		{"processors", `{{ join "+" .Processors }}`, "strip-comments+z-correct"},
		{"date", "{{ .Date }}", time.Now().Format("2006-01-02")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandTemplate(doc, "output_name_template", tt.template)
			if err != nil {
				t.Fatalf("expandTemplate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("expandTemplate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExpandTemplate_Errors(t *testing.T) {
	doc := testDocument()

	if _, err := expandTemplate(doc, "name", "{{ .Title"); err == nil || !strings.Contains(err.Error(), "unable to parse") {
		t.Errorf("expandTemplate() error = %v, want parse error", err)
	}
	if _, err := expandTemplate(doc, "name", "{{ .NoSuchField }}"); err == nil {
		t.Error("expandTemplate() expected execution error")
	}
}
