// Package render provides output formatting for CLI commands.
// Separates presentation from the estimate and comparison logic.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Writer wraps an io.Writer with formatting utilities.
// Use this for direct-to-stdout writing without string building.
type Writer struct {
	out io.Writer
}

// NewWriter creates a Writer that writes to the given io.Writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{out: w}
}

// Stdout returns a Writer that writes to os.Stdout.
func Stdout() *Writer {
	return NewWriter(os.Stdout)
}

// Header writes a header line.
func (w *Writer) Header(title string, args ...any) {
	if len(args) > 0 {
		title = fmt.Sprintf(title, args...)
	}
	fmt.Fprintln(w.out, strings.ToUpper(title))
	fmt.Fprintln(w.out)
}

// Item writes an indented item line.
func (w *Writer) Item(format string, args ...any) {
	fmt.Fprintf(w.out, "  "+format+"\n", args...)
}

// Empty writes an empty state message.
func (w *Writer) Empty(msg string) {
	fmt.Fprintln(w.out, msg)
}

// JSON writes v as indented JSON.
func (w *Writer) JSON(v any) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Truncate shortens a string to max length.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
