package bibtex

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testBib = `% leading comment
@book{Smith1990,
  author = {Smith, John},

  title  = {A Grammar},
  year   = {1990}
}
@article{Jones1991a,
  author = {Jones, Mary},
  year   = {1991}
}

@comment{ignored}
@incollection{Smith1990,
  author = {Smith, Jane},
  year   = {1990}
}
`

func TestSplitEntries(t *testing.T) {
	entries, err := SplitEntries(strings.NewReader(testBib))
	if err != nil {
		t.Fatalf("SplitEntries() error = %v", err)
	}

	// Leading comment, three entries, the @comment block.
	if len(entries) != 5 {
		t.Fatalf("len(entries) = %d, want 5: %q", len(entries), entries)
	}
	want := "@book{Smith1990,\n  author = {Smith, John},\n  title  = {A Grammar},\n  year   = {1990}\n}"
	if entries[1] != want {
		t.Errorf("entries[1] = %q, want %q", entries[1], want)
	}
}

func TestParseEntry(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantKey string
		wantTyp string
		wantOK  bool
	}{
		{name: "book", text: "@book{Smith1990,\n}", wantKey: "Smith1990", wantTyp: "book", wantOK: true},
		{name: "uppercase type", text: "@ARTICLE{Lee2001,", wantKey: "Lee2001", wantTyp: "article", wantOK: true},
		{name: "spaces around key", text: "@misc{ Lee2001 ,", wantKey: "Lee2001", wantTyp: "misc", wantOK: true},
		{name: "key with space", text: "@misc{Muellerno year,", wantKey: "Muellerno year", wantTyp: "misc", wantOK: true},
		{name: "empty key", text: "@misc{ ,", wantOK: false},
		{name: "comment", text: "@comment{x,", wantOK: false},
		{name: "not an entry", text: "% just text", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseEntry(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("ParseEntry(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.Key != tt.wantKey || got.Type != tt.wantTyp {
				t.Errorf("ParseEntry(%q) = (%q, %q), want (%q, %q)", tt.text, got.Key, got.Type, tt.wantKey, tt.wantTyp)
			}
		})
	}
}

func TestBuildRenamesDuplicates(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)

	texts := []string{
		"@book{Smith1990,\n}",
		"@book{Smith1990,\n}",
		"@article{Lee2001,\n}",
		"@book{Smith1990,\n}",
	}
	idx := Build(texts, WithLogger(zap.New(core)))

	wantKeys := []string{"Smith1990", "Smith1990-2", "Lee2001", "Smith1990-3"}
	if got := idx.Keys(); !reflect.DeepEqual(got, wantKeys) {
		t.Errorf("Keys() = %v, want %v", got, wantKeys)
	}
	if idx.Len() != 4 {
		t.Errorf("Len() = %d, want 4", idx.Len())
	}

	wantRenamed := []Rename{
		{From: "Smith1990", To: "Smith1990-2"},
		{From: "Smith1990", To: "Smith1990-3"},
	}
	if got := idx.Renamed(); !reflect.DeepEqual(got, wantRenamed) {
		t.Errorf("Renamed() = %v, want %v", got, wantRenamed)
	}

	if logs.Len() != 2 {
		t.Fatalf("logged %d warnings, want 2", logs.Len())
	}
	fields := logs.All()[0].ContextMap()
	if fields["bibkey"] != "Smith1990" || fields["renamed_to"] != "Smith1990-2" {
		t.Errorf("warning fields = %v", fields)
	}

	e, ok := idx.Get("Smith1990-3")
	if !ok {
		t.Fatal("Get(Smith1990-3) not found")
	}
	if e.OriginalKey != "Smith1990" {
		t.Errorf("OriginalKey = %q, want Smith1990", e.OriginalKey)
	}
}

func TestBuildAppliesCleanups(t *testing.T) {
	saved := Cleanups
	t.Cleanup(func() { Cleanups = saved })
	Cleanups = []Cleanup{{Old: "  title = {Dup},\n", New: ""}}

	idx := Build([]string{"@book{A2000,\n  title = {Dup},\n  title = {Dup},\n}"})
	e, _ := idx.Get("A2000")
	if got := strings.Count(e.Text, "title"); got != 1 {
		t.Errorf("title count = %d, want 1 in %q", got, e.Text)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.bib")
	if err := os.WriteFile(path, []byte(testBib), 0644); err != nil {
		t.Fatal(err)
	}

	idx, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []string{"Smith1990", "Jones1991a", "Smith1990-2"}
	if got := idx.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
	if !idx.Has("Jones1991a") || idx.Has("Jones1991") {
		t.Error("Has() mismatch")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.bib")); err == nil {
		t.Error("Load() expected error for missing file")
	}
}
