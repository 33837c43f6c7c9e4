package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, ".cache", appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestCacheDirXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/custom-cache")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join("/tmp/custom-cache", appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestConfiguredCacheDir(t *testing.T) {
	c := New(os.Stderr, LogInfo)
	c.cfg.Cache.Dir = "/var/cache/trees"

	dir, err := c.cacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != "/var/cache/trees" {
		t.Errorf("cacheDir() = %q, want the configured directory", dir)
	}
}

func TestArtifactPath(t *testing.T) {
	tests := []struct {
		format string
		count  int
		output string
		label  string
		want   string
	}{
		{"svg", 1, "", "P-1887-12", "p-1887-12.svg"},
		{"png", 2, "", "Łukasz Wójcik", "lukasz-wojcik.png"},
		{"svg", 1, "out/tree.svg", "x", "out/tree.svg"},
		{"png", 2, "out/tree.svg", "x", "out/tree.png"},
		{"json", 2, "out/tree", "x", "out/tree.json"},
	}

	for _, tt := range tests {
		if got := artifactPath(tt.format, tt.count, tt.output, tt.label); got != tt.want {
			t.Errorf("artifactPath(%q, %d, %q, %q) = %q, want %q", tt.format, tt.count, tt.output, tt.label, got, tt.want)
		}
	}
}

func TestWriteArtifacts(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "tree")
	artifacts := map[string][]byte{"svg": []byte("<svg/>"), "json": []byte("{}")}

	paths, err := writeArtifacts(artifacts, []string{"svg", "json"}, base, "ignored")
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 2 || paths[0] != base+".svg" || paths[1] != base+".json" {
		t.Fatalf("paths = %v", paths)
	}
	data, err := os.ReadFile(paths[0])
	if err != nil || string(data) != "<svg/>" {
		t.Errorf("svg file = %q, %v", data, err)
	}
}
