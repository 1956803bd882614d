package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed, color.Bold)
	keyColor   = color.New(color.FgCyan)
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		errorColor.Fprint(os.Stderr, "error: ")
		fmt.Fprintln(os.Stderr, msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	exit(code)
}

// exitFunc terminates the process; replaced in tests.
var exitFunc = os.Exit

// exit flushes the logger and terminates with code.
func exit(code int) {
	_ = logger.Sync()
	exitFunc(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RecordErrorResponse describes a record whose sources could not be parsed.
type RecordErrorResponse struct {
	RecordID string `json:"record_id"`
	Prose    string `json:"prose"`
	Error    string `json:"error"`
}

// printKeysHuman prints resolved keys one per line.
func printKeysHuman(keys []string) {
	if len(keys) == 0 {
		warnColor.Println("  (no keys)")
		return
	}
	for _, k := range keys {
		fmt.Print("  ")
		keyColor.Println(k)
	}
}

// printRecordErrorsHuman prints per-record failures.
func printRecordErrorsHuman(errs []RecordErrorResponse) {
	for _, e := range errs {
		errorColor.Printf("  %s: ", e.RecordID)
		fmt.Println(e.Error)
	}
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// formatIDList formats a list of IDs as a comma-separated string.
func formatIDList(ids []string) string {
	return strings.Join(ids, ", ")
}
