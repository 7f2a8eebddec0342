package fsutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func withHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	if runtime.GOOS == "windows" {
		t.Setenv("USERPROFILE", home)
	}
	return home
}

func TestExpandHome(t *testing.T) {
	home := withHome(t)
	cases := map[string]string{
		"":                        "",
		"/var/lib/qexpand":        "/var/lib/qexpand",
		"~":                       home,
		"~/.cache/qexpand/models": filepath.Join(home, ".cache", "qexpand", "models"),
	}
	for in, want := range cases {
		got, err := ExpandHome(in)
		if err != nil {
			t.Fatalf("ExpandHome(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ExpandHome(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPathExists(t *testing.T) {
	dir := t.TempDir()
	if !PathExists(dir) {
		t.Fatalf("temp dir should exist")
	}
	if PathExists(filepath.Join(dir, "Meta-Llama-3.1-8B-Instruct-Q8_0.gguf")) {
		t.Fatalf("missing artifact reported present")
	}
}

func TestDBPath_CreatesParent(t *testing.T) {
	home := withHome(t)
	p, err := DBPath("~/qexpand/state/queue.db")
	if err != nil {
		t.Fatalf("DBPath: %v", err)
	}
	if want := filepath.Join(home, "qexpand", "state", "queue.db"); p != want {
		t.Fatalf("DBPath = %q, want %q", p, want)
	}
	if fi, err := os.Stat(filepath.Dir(p)); err != nil || !fi.IsDir() {
		t.Fatalf("parent not created: %v", err)
	}
	if PathExists(p) {
		t.Fatalf("DBPath must not create the file itself")
	}
}
