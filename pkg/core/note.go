package core

import "time"

const (
	// DefaultTitle is used when a note is created without a title.
	DefaultTitle = "Untitled Note"
	// DefaultLanguage is the base locale for notes and dictation.
	DefaultLanguage = "en-US"
)

// Note is the central entity of the domain.
// The JSON layout matches what is stored in the notes slot.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Language  string    `json:"language,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Patch carries the fields of a partial update. Nil fields are left untouched.
type Patch struct {
	Title    *string
	Content  *string
	Language *string
}

// String returns a pointer to s, for building patches.
func String(s string) *string {
	return &s
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Language == nil
}

// apply merges the patch into n and reports whether the change is worth
// announcing: a new title, or the first content on an empty note.
func (p Patch) apply(n *Note) (substantive bool) {
	if p.Title != nil {
		if *p.Title != n.Title && *p.Title != "" {
			substantive = true
		}
		n.Title = *p.Title
	}
	if p.Content != nil {
		if n.Content == "" && *p.Content != "" {
			substantive = true
		}
		n.Content = *p.Content
	}
	if p.Language != nil {
		n.Language = *p.Language
	}
	return substantive
}
