// Package author extracts indexable surnames from free-text author fields.
package author

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyName is returned when an author field has no surname token left
// once particles are taken into account.
var ErrEmptyName = errors.New("no surname in author field")

// Particles are name-ordering prefixes that may or may not be part of the
// indexed surname. Compared case-insensitively.
var Particles = []string{"van", "de", "der"}

// IsParticle reports whether tok is one of Particles.
func IsParticle(tok string) bool {
	for _, p := range Particles {
		if strings.EqualFold(tok, p) {
			return true
		}
	}
	return false
}

// SurnameNoParticle returns the first token of author that is not a particle.
//
//   - "Smith"        → "Smith"
//   - "van der Berg" → "Berg"
//   - "de Vries, J." → "Vries,"
func SurnameNoParticle(author string) (string, error) {
	for _, tok := range strings.Fields(author) {
		if !IsParticle(tok) {
			return tok, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrEmptyName, author)
}

// SurnameWithParticle returns the leading particles of author glued to the
// first non-particle token, without separators.
//
//   - "Smith"        → "Smith"
//   - "van der Berg" → "vanderBerg"
func SurnameWithParticle(author string) (string, error) {
	var sb strings.Builder
	for _, tok := range strings.Fields(author) {
		sb.WriteString(tok)
		if !IsParticle(tok) {
			return sb.String(), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrEmptyName, author)
}
