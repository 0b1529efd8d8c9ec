package core

import (
	"fmt"
	"strings"
)

const (
	// ExportMIMEType is the content type of exported notes.
	ExportMIMEType = "text/plain"
	// ExportExtension is appended to the slugified title.
	ExportExtension = ".txt"

	fallbackSlug = "untitled_note"
)

// ExportPayload renders a note as plain text: a heading line, a blank line, then the body.
func ExportPayload(n Note) string {
	return fmt.Sprintf("# %s\n\n%s", n.Title, n.Content)
}

// Slugify replaces every rune outside [A-Za-z0-9] with an underscore and
// lower-cases the result.
func Slugify(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// ExportFilename derives the download name for a note.
func ExportFilename(n Note) string {
	slug := Slugify(n.Title)
	if slug == "" {
		slug = fallbackSlug
	}
	return slug + ExportExtension
}

// NewArtifact builds the plain-text export of a note.
func NewArtifact(n Note) Artifact {
	return Artifact{
		Filename: ExportFilename(n),
		MIMEType: ExportMIMEType,
		Body:     []byte(ExportPayload(n)),
	}
}
