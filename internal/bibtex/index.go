// Package bibtex builds a citation-key index from a BibTeX bibliography.
//
// Only the entry type and key are interpreted; field contents are kept as
// raw text.
package bibtex

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// entryStartRegex matches an entry head: @type{key,
var entryStartRegex = regexp.MustCompile(`^\s*@(\w+)\s*\{([^,]+),`)

// Cleanup is a literal one-shot fix applied to raw entry text.
type Cleanup struct {
	Old string
	New string
}

// Cleanups repairs known defects in the upstream bibliography. Each is
// applied at most once per entry, in order.
var Cleanups = []Cleanup{
	// Duplicate title field in the Andamanese entry.
	{Old: "  title   = {Deep linguistic prehistory with particular reference to Andamanese},\n", New: ""},
}

// Entry is one bibliography record.
type Entry struct {
	Key         string // Key in the index, possibly disambiguated
	OriginalKey string // Key as written in the source
	Type        string // article, book, ...
	Text        string // Raw entry text after Cleanups
}

// Rename records a key collision resolved during Build.
type Rename struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Index maps citation keys to entries, preserving insertion order.
// It is read-only after Build.
type Index struct {
	entries []Entry
	byKey   map[string]int
	renamed []Rename
}

// Option configures Build.
type Option func(*buildOptions)

type buildOptions struct {
	logger *zap.Logger
}

// WithLogger sets the logger used for collision warnings.
func WithLogger(l *zap.Logger) Option {
	return func(o *buildOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// SplitEntries splits a BibTeX stream into entry blocks. A line starting
// with "@" opens a new entry; blank lines are dropped.
func SplitEntries(r io.Reader) ([]string, error) {
	var entries []string
	var current []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		switch {
		case strings.HasPrefix(line, "@"):
			if len(current) > 0 {
				entries = append(entries, strings.Join(current, "\n"))
			}
			current = []string{line}
		case line != "":
			current = append(current, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading bibliography: %w", err)
	}

	if len(current) > 0 {
		entries = append(entries, strings.Join(current, "\n"))
	}
	return entries, nil
}

// clean applies Cleanups to raw entry text.
func clean(text string) string {
	for _, c := range Cleanups {
		text = strings.Replace(text, c.Old, c.New, 1)
	}
	return text
}

// ParseEntry extracts the type and key from an entry block.
// Returns false for blocks without an entry head (comments, preamble text).
func ParseEntry(text string) (Entry, bool) {
	m := entryStartRegex.FindStringSubmatch(text)
	if m == nil {
		return Entry{}, false
	}
	typ := strings.ToLower(m[1])
	if typ == "comment" || typ == "preamble" || typ == "string" {
		return Entry{}, false
	}
	key := strings.TrimSpace(m[2])
	if key == "" {
		return Entry{}, false
	}
	return Entry{
		Key:         key,
		OriginalKey: key,
		Type:        typ,
		Text:        text,
	}, true
}

// Build indexes entry blocks. A key already present is renamed to key-2,
// key-3, ... and a warning is logged; entries are never overwritten.
func Build(texts []string, opts ...Option) *Index {
	o := buildOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	idx := &Index{byKey: make(map[string]int, len(texts))}
	for _, text := range texts {
		entry, ok := ParseEntry(clean(text))
		if !ok {
			continue
		}

		key := entry.OriginalKey
		for n := 2; idx.Has(key); n++ {
			key = fmt.Sprintf("%s-%d", entry.OriginalKey, n)
		}
		if key != entry.OriginalKey {
			o.logger.Warn("duplicate bibkey renamed",
				zap.String("bibkey", entry.OriginalKey),
				zap.String("renamed_to", key))
			idx.renamed = append(idx.renamed, Rename{From: entry.OriginalKey, To: key})
		}

		entry.Key = key
		idx.byKey[key] = len(idx.entries)
		idx.entries = append(idx.entries, entry)
	}
	return idx
}

// Load reads and indexes a .bib file.
func Load(path string, opts ...Option) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening bibliography: %w", err)
	}
	defer f.Close()

	texts, err := SplitEntries(f)
	if err != nil {
		return nil, err
	}
	return Build(texts, opts...), nil
}

// Has reports whether key is in the index.
func (idx *Index) Has(key string) bool {
	_, ok := idx.byKey[key]
	return ok
}

// Get returns the entry for key.
func (idx *Index) Get(key string) (Entry, bool) {
	i, ok := idx.byKey[key]
	if !ok {
		return Entry{}, false
	}
	return idx.entries[i], true
}

// Keys returns all keys in insertion order.
func (idx *Index) Keys() []string {
	keys := make([]string, len(idx.entries))
	for i, e := range idx.entries {
		keys[i] = e.Key
	}
	return keys
}

// Entries returns a copy of all entries in insertion order.
func (idx *Index) Entries() []Entry {
	out := make([]Entry, len(idx.entries))
	copy(out, idx.entries)
	return out
}

// Len returns the number of entries.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Renamed returns the key collisions resolved during Build.
func (idx *Index) Renamed() []Rename {
	out := make([]Rename, len(idx.renamed))
	copy(out, idx.renamed)
	return out
}
