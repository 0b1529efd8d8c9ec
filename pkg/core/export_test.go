package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/voicenotes/pkg/core"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Untitled Note":      "untitled_note",
		"Shopping List #2":   "shopping_list__2",
		"ALLCAPS":            "allcaps",
		"café":               "caf_",
		"already_snake-case": "already_snake_case",
		"":                   "",
	}
	for in, want := range cases {
		assert.Equal(t, want, core.Slugify(in), "Slugify(%q)", in)
	}
}

func TestExportFilename_FallsBackOnEmptyTitle(t *testing.T) {
	assert.Equal(t, "untitled_note.txt", core.ExportFilename(core.Note{}))
	assert.Equal(t, "q3_plan.txt", core.ExportFilename(core.Note{Title: "Q3 Plan"}))
}

func TestNewArtifact(t *testing.T) {
	a := core.NewArtifact(core.Note{Title: "Groceries", Content: "milk\neggs"})
	assert.Equal(t, "groceries.txt", a.Filename)
	assert.Equal(t, core.ExportMIMEType, a.MIMEType)
	assert.Equal(t, "# Groceries\n\nmilk\neggs", string(a.Body))
}
