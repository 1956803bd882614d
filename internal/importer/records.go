// Package importer reads the per-record inputs of a conversion run.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/cldf/zeromarking/internal/sources"
)

// CSVOptions selects the delimiter and the columns to read.
type CSVOptions struct {
	Delimiter     rune
	IDColumn      string
	SourcesColumn string
}

// ParseRecords reads records from CSV with a header row. Rows with an empty
// ID are skipped; an empty sources cell is kept (it may have overrides).
func ParseRecords(r io.Reader, opts CSVOptions) ([]sources.Record, error) {
	reader := csv.NewReader(r)
	reader.Comma = opts.Delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	idCol, srcCol := -1, -1
	for i, name := range header {
		switch name {
		case opts.IDColumn:
			idCol = i
		case opts.SourcesColumn:
			srcCol = i
		}
	}
	if idCol < 0 {
		return nil, fmt.Errorf("missing column %q", opts.IDColumn)
	}
	if srcCol < 0 {
		return nil, fmt.Errorf("missing column %q", opts.SourcesColumn)
	}

	var records []sources.Record
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", line, err)
		}

		rec := sources.Record{ID: cell(row, idCol), Sources: cell(row, srcCol)}
		if rec.ID == "" {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadRecords reads records from a CSV file.
func ReadRecords(path string, opts CSVOptions) ([]sources.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening records file: %w", err)
	}
	defer f.Close()

	return ParseRecords(f, opts)
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return row[i]
}
