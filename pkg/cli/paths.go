package cli

import (
	"os"
	"path/filepath"
)

// AppName is the directory name used under the user's config directory.
const AppName = "julesvoice"

// Paths locates the files julesvoice keeps outside of its contexts.
type Paths struct {
	// BaseDir is the application directory, e.g. ~/.config/julesvoice.
	BaseDir string
}

// NewPaths returns the paths under os.UserConfigDir().
func NewPaths() (*Paths, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	return &Paths{BaseDir: filepath.Join(base, AppName)}, nil
}

// DataDir returns the data directory (<base>/data)
func (p *Paths) DataDir() string {
	return filepath.Join(p.BaseDir, "data")
}

// HistoryDir returns the interaction store directory for a context.
func (p *Paths) HistoryDir(context string) string {
	return filepath.Join(p.DataDir(), "history", context)
}

// EnsureDir creates dir if it doesn't exist
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
