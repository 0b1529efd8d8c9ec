package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindRoot(t *testing.T) {
	//   base/
	//     project/ (voicenotes.yaml)
	//       sub/nested/
	//     dataonly/ (.voicenotes/)
	//     empty/
	base := t.TempDir()
	project := filepath.Join(base, "project")
	nested := filepath.Join(project, "sub", "nested")
	dataOnly := filepath.Join(base, "dataonly")
	empty := filepath.Join(base, "empty")

	require.NoError(t, os.MkdirAll(nested, 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(dataOnly, DefaultDataDir), 0755))
	require.NoError(t, os.MkdirAll(empty, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(project, DefaultConfigFile), []byte("adapter: fs\n"), 0644))

	tests := []struct {
		name     string
		start    string
		wantRoot string
		wantErr  bool
	}{
		{name: "Start At Root", start: project, wantRoot: project},
		{name: "Start Nested Deeply", start: nested, wantRoot: project},
		{name: "Data Directory Marker", start: dataOnly, wantRoot: dataOnly},
		{name: "No Root Found", start: empty, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindRoot(tt.start)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrRootNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, filepath.Clean(tt.wantRoot), filepath.Clean(got))
		})
	}
}
