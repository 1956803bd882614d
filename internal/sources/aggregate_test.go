package sources

import (
	"errors"
	"reflect"
	"testing"

	"github.com/cldf/zeromarking/internal/author"
	"github.com/cldf/zeromarking/internal/bibtex"
	"github.com/cldf/zeromarking/internal/citation"
	"github.com/cldf/zeromarking/internal/matcher"
)

func testAggregator(keys ...string) *Aggregator {
	texts := make([]string, len(keys))
	for i, k := range keys {
		texts[i] = "@misc{" + k + ",\n}"
	}
	return NewAggregator(matcher.New(bibtex.Build(texts)))
}

func TestAggregate(t *testing.T) {
	agg := testAggregator("Smith1990", "Muellerno year", "Dixon2010", "Berg2004")

	tests := []struct {
		name      string
		prose     string
		overrides []string
		want      []string
	}{
		{
			name:  "end to end example",
			prose: "Smith 1990: 12-15; Personal knowledge; Jones (p.c.); Müller (no year)",
			want:  []string{"Muellerno year", "Smith1990[12-15]"},
		},
		{
			name:  "unresolved dropped",
			prose: "Smith 1990; Unknown 1980",
			want:  []string{"Smith1990"},
		},
		{
			name:  "duplicates removed",
			prose: "Smith 1990; Smith 1990",
			want:  []string{"Smith1990"},
		},
		{
			name:  "page variants kept distinct",
			prose: "Smith 1990: 3; Smith 1990: 4; Smith 1990",
			want:  []string{"Smith1990", "Smith1990[3]", "Smith1990[4]"},
		},
		{
			name:      "overrides merged and sorted",
			prose:     "Smith 1990",
			overrides: []string{"Zeta2000", "Dixon2010", "", "Smith1990"},
			want:      []string{"Dixon2010", "Smith1990", "Zeta2000"},
		},
		{
			name:      "overrides only",
			prose:     "",
			overrides: []string{"Unchecked1999"},
			want:      []string{"Unchecked1999"},
		},
		{
			name:  "particle author",
			prose: "van der Berg 2004",
			want:  []string{"Berg2004"},
		},
		{
			name:  "nothing resolved",
			prose: "Personal knowledge",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := agg.Aggregate("rec1", tt.prose, tt.overrides)
			if err != nil {
				t.Fatalf("Aggregate() error = %v", err)
			}
			if !reflect.DeepEqual(got.Keys, tt.want) {
				t.Errorf("Keys = %q, want %q", got.Keys, tt.want)
			}
			if got.Prose != tt.prose || got.RecordID != "rec1" {
				t.Errorf("provenance = (%q, %q), want (rec1, %q)", got.RecordID, got.Prose, tt.prose)
			}
		})
	}
}

func TestAggregateIdempotent(t *testing.T) {
	agg := testAggregator("Smith1990", "Dixon2010")
	prose := "Dixon 2010: 5; Smith 1990"
	overrides := []string{"Manual2000"}

	first, err := agg.Aggregate("r", prose, overrides)
	if err != nil {
		t.Fatal(err)
	}
	second, err := agg.Aggregate("r", prose, overrides)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("results differ: %+v vs %+v", first, second)
	}
}

func TestAggregateErrors(t *testing.T) {
	agg := testAggregator("Smith1990")

	tests := []struct {
		name  string
		prose string
		want  error
	}{
		{name: "missing author", prose: "1990", want: citation.ErrMalformedAuthor},
		{name: "missing year", prose: "Smith 1990; Jones", want: citation.ErrMalformedYear},
		{name: "only particles", prose: "van der 1990", want: author.ErrEmptyName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := agg.Aggregate("bad", tt.prose, nil)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Aggregate(%q) error = %v, want %v", tt.prose, err, tt.want)
			}
			var recErr *RecordError
			if !errors.As(err, &recErr) || recErr.RecordID != "bad" {
				t.Errorf("error = %#v, want *RecordError for record bad", err)
			}
		})
	}
}

func TestBatch(t *testing.T) {
	agg := testAggregator("Smith1990", "Dixon2010")
	records := []Record{
		{ID: "a", Sources: "Smith 1990"},
		{ID: "b", Sources: "(broken"},
		{ID: "c", Sources: "Dixon 2010"},
	}
	overrides := map[string][]string{"c": {"Extra1999"}}

	got, errs := agg.Batch(records, overrides)
	if len(got) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(got))
	}
	if got[0].RecordID != "a" || got[1].RecordID != "c" {
		t.Errorf("record order = %s, %s", got[0].RecordID, got[1].RecordID)
	}
	if want := []string{"Dixon2010", "Extra1999"}; !reflect.DeepEqual(got[1].Keys, want) {
		t.Errorf("c keys = %q, want %q", got[1].Keys, want)
	}
	if len(errs) != 1 || errs[0].RecordID != "b" {
		t.Errorf("errs = %v, want one error for b", errs)
	}
}

func TestSplitOverrides(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{input: "", want: nil},
		{input: "Smith1990", want: []string{"Smith1990"}},
		{input: " Smith1990 ; Dixon2010;", want: []string{"Smith1990", "Dixon2010"}},
		{input: " ; ", want: nil},
	}

	for _, tt := range tests {
		if got := SplitOverrides(tt.input); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitOverrides(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
