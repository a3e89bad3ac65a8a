// Package title derives candidate entry names from paths and document
// content.
package title

import (
	"strings"

	"filekebab/internal/vault"
)

// Heading is one heading of a document.
type Heading struct {
	Text  string
	Level int
}

// Metadata is the structured content metadata of a document. A nil
// *Metadata means metadata is unavailable.
type Metadata struct {
	Headings []Heading
}

// FirstHeading returns the first heading, if any.
func (m *Metadata) FirstHeading() (Heading, bool) {
	if m == nil || len(m.Headings) == 0 {
		return Heading{}, false
	}
	return m.Headings[0], true
}

// FromPath returns the path-derived candidate: the current base name.
func FromPath(entry vault.Entry) string {
	return entry.BaseName()
}

// FromMetadata returns the content-derived candidate: the text of the first
// heading, falling back to the current base name when metadata is missing,
// has no headings, or the first heading is blank.
func FromMetadata(entry vault.Entry, md *Metadata) string {
	h, ok := md.FirstHeading()
	if !ok {
		return FromPath(entry)
	}
	text := strings.TrimSpace(h.Text)
	if text == "" {
		return FromPath(entry)
	}
	return text
}
