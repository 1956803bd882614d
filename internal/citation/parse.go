// Package citation splits free-text source annotations into References.
//
// The grammar, applied clause by clause to the unconsumed input:
//
//	clause   = "Personal knowledge" [","]
//	         | author "(p.c.)"
//	         | author year [pages]
//	author   = run of characters that are neither a digit nor "("
//	year     = "(no year)" | "(to appear)" | irregular | digits [a-z]*
//	pages    = ":" [" "] item { item }
//	item     = (range | "passim" | "iv" | "vi") [", "]
//
// Alternatives are tried in the order written; the first match wins.
package citation

import (
	"iter"
	"regexp"
	"strings"

	"github.com/cldf/zeromarking/internal/reference"
)

// IrregularYears are year expressions found in the corpus that the generic
// digit rule would cut short. An entry matches only when no digit follows it.
var IrregularYears = []string{
	"1994-2003",
	"1990 [1909]",
	"2001-2",
}

const (
	personalKnowledge = "Personal knowledge"
	noYear            = "(no year)"
	toAppear          = "(to appear)"
)

var (
	quotedInRegex = regexp.MustCompile(`(?i)\((?:quoted )?in ([^)]*)\)`)
	pcRegex       = regexp.MustCompile(`^\(p\.c\.\)[, ]*`)
	yearRegex     = regexp.MustCompile(`^[0-9]+[a-z]*`)
	pagesRegex    = regexp.MustCompile(`^: ?(?:(?:[0-9]+(?:[-–][0-9]+)?|passim|iv|vi)(?:, )?)+`)
)

// Preprocess rewrites "(in X)" and "(quoted in X)" to "X" and trims the result.
func Preprocess(s string) string {
	return strings.TrimSpace(quotedInRegex.ReplaceAllString(s, "$1"))
}

// Parse returns the References in s. The sequence is restartable: each
// range over it parses s from the beginning. Iteration ends after the first
// error, which is yielded with a zero Reference.
func Parse(s string) iter.Seq2[reference.Reference, error] {
	return func(yield func(reference.Reference, error) bool) {
		p := &parser{input: Preprocess(s)}
		for {
			ref, ok, err := p.next()
			if err != nil {
				yield(reference.Reference{}, err)
				return
			}
			if !ok {
				return
			}
			if !yield(ref, nil) {
				return
			}
		}
	}
}

// ParseAll collects Parse(s) into a slice.
func ParseAll(s string) ([]reference.Reference, error) {
	var refs []reference.Reference
	for ref, err := range Parse(s) {
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// parser is a cursor over preprocessed input.
type parser struct {
	input string
	pos   int
}

func (p *parser) rest() string {
	return p.input[p.pos:]
}

func (p *parser) fail(kind ErrorKind) error {
	return &ParseError{Kind: kind, Input: p.input, Pos: p.pos}
}

// next consumes clauses until one yields a Reference or the input is exhausted.
func (p *parser) next() (reference.Reference, bool, error) {
	for {
		p.skipSeparators()
		if p.pos >= len(p.input) {
			return reference.Reference{}, false, nil
		}

		if p.personalKnowledge() {
			continue
		}

		author, ok := p.author()
		if !ok {
			return reference.Reference{}, false, p.fail(MalformedAuthorField)
		}

		if p.personalCommunication() {
			continue
		}

		year, ok := p.year()
		if !ok {
			return reference.Reference{}, false, p.fail(MalformedYearField)
		}

		return reference.Reference{
			Author: author,
			Year:   year,
			Pages:  p.pages(),
		}, true, nil
	}
}

func (p *parser) skipSeparators() {
	for p.pos < len(p.input) {
		switch p.input[p.pos] {
		case ' ', '\t', '\n', '\r', ';', ',':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) personalKnowledge() bool {
	if !strings.HasPrefix(p.rest(), personalKnowledge) {
		return false
	}
	p.pos += len(personalKnowledge)
	if strings.HasPrefix(p.rest(), ",") {
		p.pos++
	}
	return true
}

func (p *parser) author() (string, bool) {
	n := authorRunLength(p.rest())
	author := strings.Trim(p.rest()[:n], " ;,")
	if author == "" {
		return "", false
	}
	p.pos += n
	return author, true
}

// authorRunLength is the length of the longest prefix of s containing no
// digit and no opening parenthesis.
func authorRunLength(s string) int {
	i := strings.IndexFunc(s, func(r rune) bool {
		return r == '(' || (r >= '0' && r <= '9')
	})
	if i < 0 {
		return len(s)
	}
	return i
}

func (p *parser) personalCommunication() bool {
	m := pcRegex.FindString(p.rest())
	if m == "" {
		return false
	}
	p.pos += len(m)
	return true
}

func (p *parser) year() (string, bool) {
	n, year, ok := matchYear(p.rest())
	if !ok {
		return "", false
	}
	p.pos += n
	return year, true
}

// yearRule matches a year expression at the start of s, returning the bytes
// consumed and the year value.
type yearRule func(s string) (int, string, bool)

// yearRules are tried in order; order is priority.
var yearRules = []yearRule{
	literalYear(noYear, "no year"),
	literalYear(toAppear, "to appear"),
	irregularYear,
	genericYear,
}

func matchYear(s string) (int, string, bool) {
	for _, rule := range yearRules {
		if n, year, ok := rule(s); ok {
			return n, year, true
		}
	}
	return 0, "", false
}

func literalYear(literal, value string) yearRule {
	return func(s string) (int, string, bool) {
		if strings.HasPrefix(s, literal) {
			return len(literal), value, true
		}
		return 0, "", false
	}
}

func irregularYear(s string) (int, string, bool) {
	for _, y := range IrregularYears {
		if !strings.HasPrefix(s, y) {
			continue
		}
		if len(s) > len(y) && s[len(y)] >= '0' && s[len(y)] <= '9' {
			continue
		}
		return len(y), y, true
	}
	return 0, "", false
}

func genericYear(s string) (int, string, bool) {
	m := yearRegex.FindString(s)
	if m == "" {
		return 0, "", false
	}
	return len(m), m, true
}

func (p *parser) pages() string {
	m := pagesRegex.FindString(p.rest())
	if m == "" {
		return ""
	}
	p.pos += len(m)
	return strings.Trim(m, ":, ")
}
