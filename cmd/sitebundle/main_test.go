package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/garyellow/demo-servers/internal/bundle"
)

func TestFirstNonEmpty(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   string
	}{
		{"first wins", []string{"a", "b"}, "a"},
		{"skips empty", []string{"", "b", "c"}, "b"},
		{"all empty", []string{"", ""}, ""},
		{"none", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := firstNonEmpty(tt.values...); got != tt.want {
				t.Errorf("firstNonEmpty(%q) = %q, want %q", tt.values, got, tt.want)
			}
		})
	}
}

func TestPackToFile(t *testing.T) {
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "index.html"), []byte("<h1>hi</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "site.tar.zst")

	files, err := packToFile(src, out)
	if err != nil {
		t.Fatalf("packToFile() error = %v", err)
	}
	if files != 1 {
		t.Errorf("packToFile() files = %d, want 1", files)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	dest := t.TempDir()
	if _, err := bundle.Extract(f, dest); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dest, "index.html"))
	if err != nil || string(data) != "<h1>hi</h1>" {
		t.Errorf("extracted index.html = %q, %v", data, err)
	}
}

func TestPackToFile_MissingDir(t *testing.T) {
	out := filepath.Join(t.TempDir(), "site.tar.zst")
	if _, err := packToFile(filepath.Join(t.TempDir(), "nope"), out); err == nil {
		t.Fatal("packToFile() expected error for missing dir")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("partial bundle should be removed, stat err = %v", err)
	}
}
