package platform

import (
	"errors"
	"os"
	"path/filepath"
)

// DefaultDataDir is the data directory name used inside a project root.
const DefaultDataDir = ".voicenotes"

// ErrRootNotFound is returned when no parent directory looks like a voicenotes project.
var ErrRootNotFound = errors.New("root not found")

// FindRoot walks upwards from startDir looking for a voicenotes.yaml file or a
// .voicenotes directory, and returns the absolute path of the first match.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if hasFile(dir, DefaultConfigFile) || hasFile(dir, DefaultDataDir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrRootNotFound
		}
		dir = parent
	}
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
