// Package sources turns a record's free-text sources into its bibkey list.
package sources

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/cldf/zeromarking/internal/citation"
	"github.com/cldf/zeromarking/internal/reference"
)

// Resolver maps a parsed reference to a bibkey.
type Resolver interface {
	Resolve(ref reference.Reference) (string, bool, error)
}

// Record is one input row: an identifier and its free-text sources.
type Record struct {
	ID      string
	Sources string
}

// RecordError reports a record whose sources could not be parsed.
type RecordError struct {
	RecordID string
	Prose    string
	Err      error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %s: %v", e.RecordID, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Aggregator combines parsed and manually curated keys per record.
type Aggregator struct {
	resolver Resolver
}

// NewAggregator creates an Aggregator using r to resolve references.
func NewAggregator(r Resolver) *Aggregator {
	return &Aggregator{resolver: r}
}

// Aggregate parses prose, resolves each reference, adds overrides, and
// returns the deduplicated, sorted key list. Overrides are taken verbatim.
// Any parse or resolve error aborts the record.
func (a *Aggregator) Aggregate(recordID, prose string, overrides []string) (reference.SourceAssociation, error) {
	var keys []string
	for ref, err := range citation.Parse(prose) {
		if err != nil {
			return reference.SourceAssociation{}, &RecordError{RecordID: recordID, Prose: prose, Err: err}
		}
		key, ok, err := a.resolver.Resolve(ref)
		if err != nil {
			return reference.SourceAssociation{}, &RecordError{RecordID: recordID, Prose: prose, Err: err}
		}
		if ok {
			keys = append(keys, key)
		}
	}
	keys = append(keys, overrides...)

	return reference.SourceAssociation{
		RecordID: recordID,
		Prose:    prose,
		Keys:     sortedUnique(keys),
	}, nil
}

// Batch aggregates each record independently. Records that fail are
// reported in the second result and left out of the first.
func (a *Aggregator) Batch(records []Record, overrides map[string][]string) ([]reference.SourceAssociation, []*RecordError) {
	var out []reference.SourceAssociation
	var errs []*RecordError

	for _, rec := range records {
		assoc, err := a.Aggregate(rec.ID, rec.Sources, overrides[rec.ID])
		if err != nil {
			var recErr *RecordError
			if !errors.As(err, &recErr) {
				recErr = &RecordError{RecordID: rec.ID, Prose: rec.Sources, Err: err}
			}
			errs = append(errs, recErr)
			continue
		}
		out = append(out, assoc)
	}
	return out, errs
}

// SplitOverrides splits a semicolon-separated key list, trimming each key
// and dropping empty ones.
func SplitOverrides(s string) []string {
	var keys []string
	for _, k := range strings.Split(s, ";") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// sortedUnique drops empty strings, removes exact duplicates and sorts.
func sortedUnique(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
