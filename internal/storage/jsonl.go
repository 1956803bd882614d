// Package storage persists source associations as JSONL and indexes them
// in an ephemeral SQLite cache for queries.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/cldf/zeromarking/internal/reference"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// ReadAll reads all source associations from a JSONL file.
func ReadAll(path string) ([]reference.SourceAssociation, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening sources file: %w", err)
	}
	defer f.Close()

	var assocs []reference.SourceAssociation
	scanner := bufio.NewScanner(f)

	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var a reference.SourceAssociation
		if err := json.Unmarshal(line, &a); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		assocs = append(assocs, a)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading sources file: %w", err)
	}

	return assocs, nil
}

// WriteAll writes all source associations to a JSONL file, replacing existing content.
func WriteAll(path string, assocs []reference.SourceAssociation) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating sources file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i, a := range assocs {
		if a.Keys == nil {
			a.Keys = []string{}
		}
		data, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("encoding association %d: %w", i, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("writing association %d: %w", i, err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fmt.Errorf("writing newline: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing sources file: %w", err)
	}
	return f.Close()
}
