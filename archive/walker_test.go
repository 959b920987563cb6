package archive

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func createZip(t *testing.T, names ...string) string {
	t.Helper()
	zipPath := filepath.Join(t.TempDir(), "test.zip")

	zipFile, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}
	defer zipFile.Close()

	w := zip.NewWriter(zipFile)
	for _, name := range names {
		if name[len(name)-1] == '/' {
			hdr := &zip.FileHeader{Name: name}
			hdr.SetMode(os.ModeDir | 0755)
			if _, err := w.CreateHeader(hdr); err != nil {
				t.Fatalf("Failed to create directory %s: %v", name, err)
			}
			continue
		}
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("Failed to create file %s in zip: %v", name, err)
		}
		if _, err := fw.Write([]byte("G28\n")); err != nil {
			t.Fatalf("Failed to write content for %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return zipPath
}

func collect(t *testing.T, zipPath, prefix string, exts []string) []string {
	t.Helper()
	var visited []string
	err := Walk(zipPath, prefix, exts, func(archive string, file *zip.File) error {
		if archive != zipPath {
			t.Errorf("archive = %s, want %s", archive, zipPath)
		}
		visited = append(visited, file.Name)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	return visited
}

func TestWalk(t *testing.T) {
	zipPath := createZip(t,
		"parts/part10.gcode",
		"parts/part2.gcode",
		"parts/",
		"parts/readme.txt",
		"parts/PART1.GCODE",
		"jigs/jig.gco",
		"notes.txt",
	)

	tests := []struct {
		name   string
		prefix string
		exts   []string
		want   []string
	}{
		{"prefix and extensions", "parts/", []string{".gcode"}, []string{"parts/PART1.GCODE", "parts/part2.gcode", "parts/part10.gcode"}},
		{"all extensions", "parts/", nil, []string{"parts/PART1.GCODE", "parts/part2.gcode", "parts/part10.gcode", "parts/readme.txt"}},
		{"whole archive", "", []string{".gcode", ".gco"}, []string{"jigs/jig.gco", "parts/PART1.GCODE", "parts/part2.gcode", "parts/part10.gcode"}},
		{"single file", "jigs/jig.gco", []string{".gco"}, []string{"jigs/jig.gco"}},
		{"no match", "nonexistent/", nil, nil},
		{"prefix is case sensitive", "PARTS/", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, collect(t, zipPath, tt.prefix, tt.exts)); diff != "" {
				t.Errorf("Walk() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWalk_EarlyTermination(t *testing.T) {
	zipPath := createZip(t, "a.gcode", "b.gcode", "c.gcode")

	var visited int
	stopErr := errors.New("stop walking")
	err := Walk(zipPath, "", nil, func(archive string, file *zip.File) error {
		visited++
		if visited == 2 {
			return stopErr
		}
		return nil
	})

	if err != stopErr {
		t.Errorf("Walk() error = %v, want %v", err, stopErr)
	}
	if visited != 2 {
		t.Errorf("visited %d files, want 2 (early termination)", visited)
	}
}

func TestWalk_UnsafePath(t *testing.T) {
	zipPath := createZip(t, "ok.gcode", "../escape.gcode")
	err := Walk(zipPath, "", nil, func(string, *zip.File) error { return nil })
	if err == nil {
		t.Error("Expected error for unsafe entry")
	}
}

func TestWalk_InvalidArchive(t *testing.T) {
	t.Run("nonexistent file", func(t *testing.T) {
		if err := Walk("/nonexistent/file.zip", "", nil, func(string, *zip.File) error { return nil }); err == nil {
			t.Error("Expected error for nonexistent file")
		}
	})

	t.Run("invalid zip file", func(t *testing.T) {
		invalidZip := filepath.Join(t.TempDir(), "invalid.zip")
		if err := os.WriteFile(invalidZip, []byte("not a zip file"), 0644); err != nil {
			t.Fatalf("Failed to create invalid zip: %v", err)
		}
		if err := Walk(invalidZip, "", nil, func(string, *zip.File) error { return nil }); err == nil {
			t.Error("Expected error for invalid zip file")
		}
	})
}

func TestIsSafePath(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"part.gcode", true},
		{"dir/part.gcode", true},
		{"dir/..part.gcode", true},
		{"/etc/passwd", false},
		{`\windows\part.gcode`, false},
		{"../part.gcode", false},
		{"dir/../../part.gcode", false},
	}
	for _, tt := range tests {
		if got := isSafePath(tt.name); got != tt.want {
			t.Errorf("isSafePath(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
