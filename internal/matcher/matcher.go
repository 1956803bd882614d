// Package matcher resolves parsed References to bibliography keys.
package matcher

import (
	"fmt"

	"github.com/cldf/zeromarking/internal/author"
	"github.com/cldf/zeromarking/internal/normalize"
	"github.com/cldf/zeromarking/internal/reference"
)

// KeyIndex is the lookup the matcher needs from a bibliography.
type KeyIndex interface {
	Has(key string) bool
}

// Candidate builds one candidate bibkey for a reference.
type Candidate func(ref reference.Reference) (string, error)

// surnameCandidate builds normalize(surname(author)) + year.
func surnameCandidate(surname func(string) (string, error)) Candidate {
	return func(ref reference.Reference) (string, error) {
		name, err := surname(ref.Author)
		if err != nil {
			return "", err
		}
		return normalize.Normalize(name) + ref.Year, nil
	}
}

// DefaultCandidates tries the surname without particles, then with them.
var DefaultCandidates = []Candidate{
	surnameCandidate(author.SurnameNoParticle),
	surnameCandidate(author.SurnameWithParticle),
}

// Matcher tries Candidates in order against an index.
type Matcher struct {
	index        KeyIndex
	candidates   []Candidate
	onUnresolved func(reference.Reference)
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithCandidates replaces DefaultCandidates.
func WithCandidates(c ...Candidate) Option {
	return func(m *Matcher) {
		m.candidates = c
	}
}

// WithUnresolvedHook registers fn to be called for every reference that
// matches no key.
func WithUnresolvedHook(fn func(reference.Reference)) Option {
	return func(m *Matcher) {
		m.onUnresolved = fn
	}
}

// New creates a Matcher over index.
func New(index KeyIndex, opts ...Option) *Matcher {
	m := &Matcher{index: index, candidates: DefaultCandidates}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Resolve returns the first candidate key present in the index, suffixed
// with "[pages]" when the reference has pages. ok is false when no
// candidate matches. Candidate errors are returned as-is.
func (m *Matcher) Resolve(ref reference.Reference) (key string, ok bool, err error) {
	for _, candidate := range m.candidates {
		k, err := candidate(ref)
		if err != nil {
			return "", false, fmt.Errorf("resolving %q: %w", ref.String(), err)
		}
		if m.index.Has(k) {
			return annotate(k, ref), true, nil
		}
	}

	if m.onUnresolved != nil {
		m.onUnresolved(ref)
	}
	return "", false, nil
}

// annotate appends the page locator to a resolved key.
func annotate(key string, ref reference.Reference) string {
	if !ref.HasPages() {
		return key
	}
	return key + "[" + ref.Pages + "]"
}
