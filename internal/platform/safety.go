package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// IsDevRun reports whether the binary was built by `go run` or `go test`.
func IsDevRun() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}
	if strings.HasPrefix(strings.ToLower(exe), strings.ToLower(os.TempDir())) {
		return true
	}
	return strings.HasSuffix(exe, ".test") || strings.HasSuffix(exe, ".test.exe")
}

// ResolveDataDir returns the directory the storage actually uses. With
// forceTemp, paths outside the system temp directory are re-rooted under
// a voicenotes-dev sandbox so development runs never touch real notes.
func ResolveDataDir(userPath string, forceTemp bool) string {
	if userPath == "" {
		userPath = DefaultDataDir
	}
	if !forceTemp {
		return userPath
	}

	clean := filepath.Clean(userPath)
	if rel, err := filepath.Rel(os.TempDir(), clean); err == nil && !strings.HasPrefix(rel, "..") && filepath.IsAbs(clean) {
		return clean
	}

	name := filepath.Base(clean)
	if name == "." || name == string(os.PathSeparator) || name == DefaultDataDir {
		name = "default"
	}
	return filepath.Join(os.TempDir(), "voicenotes-dev", name)
}
