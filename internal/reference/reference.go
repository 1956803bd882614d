// Package reference defines the core domain types for citation resolution.
package reference

import (
	"fmt"
	"strings"
)

// Reference is one parsed citation fragment, e.g. "Smith 1990: 12-15".
type Reference struct {
	Author string `json:"author"`          // Author text as written, separators trimmed
	Year   string `json:"year"`            // "1990", "1990a", "no year", "to appear", ...
	Pages  string `json:"pages,omitempty"` // Page locator, empty if absent
}

// HasPages reports whether the reference carries a page locator.
func (r Reference) HasPages() bool {
	return r.Pages != ""
}

func (r Reference) String() string {
	if r.HasPages() {
		return fmt.Sprintf("%s %s: %s", r.Author, r.Year, r.Pages)
	}
	return fmt.Sprintf("%s %s", r.Author, r.Year)
}

// SourceAssociation links one record's free-text sources to resolved bibkeys.
type SourceAssociation struct {
	RecordID string   `json:"record_id"`
	Prose    string   `json:"prose"` // Original text, kept verbatim for provenance
	Keys     []string `json:"keys"`  // Sorted, deduplicated; may carry a [pages] suffix
}

// BaseKey strips a trailing "[pages]" annotation from a resolved key.
func BaseKey(key string) string {
	if !strings.HasSuffix(key, "]") {
		return key
	}
	if i := strings.LastIndex(key, "["); i > 0 {
		return key[:i]
	}
	return key
}
