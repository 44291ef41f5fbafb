package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPaths(t *testing.T) {
	base := t.TempDir()
	p := &Paths{BaseDir: base}

	if got, want := p.DataDir(), filepath.Join(base, "data"); got != want {
		t.Errorf("DataDir() = %q, want %q", got, want)
	}
	dir := p.HistoryDir("dev")
	if want := filepath.Join(base, "data", "history", "dev"); dir != want {
		t.Errorf("HistoryDir() = %q, want %q", dir, want)
	}
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir error: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("history dir not created: %v", err)
	}
}

func TestNewPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	p, err := NewPaths()
	if err != nil {
		t.Skipf("no user config dir: %v", err)
	}
	if filepath.Base(p.BaseDir) != AppName {
		t.Errorf("BaseDir = %q", p.BaseDir)
	}
}
