package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDevRun(t *testing.T) {
	assert.True(t, IsDevRun(), "test binaries count as development runs")
}

func TestResolveDataDir(t *testing.T) {
	sandbox := filepath.Join(os.TempDir(), "voicenotes-dev")

	t.Run("Passthrough", func(t *testing.T) {
		assert.Equal(t, "/srv/notes", ResolveDataDir("/srv/notes", false))
		assert.Equal(t, DefaultDataDir, ResolveDataDir("", false))
	})

	t.Run("Sandboxes Real Paths", func(t *testing.T) {
		assert.Equal(t, filepath.Join(sandbox, "notes"), ResolveDataDir("/srv/notes", true))
		assert.Equal(t, filepath.Join(sandbox, "default"), ResolveDataDir("", true))
	})

	t.Run("Trusts Temp Paths", func(t *testing.T) {
		dir := t.TempDir()
		assert.Equal(t, filepath.Clean(dir), ResolveDataDir(dir, true))
	})
}
