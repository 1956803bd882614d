// Package normalize turns author surnames into the ASCII spelling used in bibkeys.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Correction is a literal substring replacement applied before accent stripping.
type Correction struct {
	From string
	To   string
}

// Corrections lists known spellings whose bibkeys do not follow plain
// accent stripping. Applied in order.
var Corrections = []Correction{
	{From: "Lindström", To: "Lindstroem"},
	{From: "Müller", To: "Mueller"},
	{From: "Höftmann", To: "Hoeftmann"},
	{From: "Dürr", To: "Duerr"},
	{From: "Næss", To: "Naess"},
	{From: "Crowley-Lynch", To: "Crowley"},
}

var nonASCII = runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })

// toASCII decomposes accented runes and drops everything outside ASCII.
// A chain holds state, so each call gets its own.
func toASCII() transform.Transformer {
	return transform.Chain(norm.NFKD, runes.Remove(nonASCII))
}

// Normalize applies Corrections, trims surrounding commas and spaces, and
// folds the result to ASCII.
func Normalize(name string) string {
	for _, c := range Corrections {
		name = strings.ReplaceAll(name, c.From, c.To)
	}
	name = strings.Trim(name, ", ")

	result, _, _ := transform.String(toASCII(), name)
	return result
}
