package sse

import (
	"fmt"
	"io"
	"strings"
)

// WriteEvent writes one SSE event to w using standard framing: optional
// "event:" and "id:" fields, one "data:" line per newline in Data, and a
// terminating blank line. The caller is responsible for flushing.
func WriteEvent(w io.Writer, ev Event) error {
	if ev.Type != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", ev.Type); err != nil {
			return err
		}
	}

	if ev.ID != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", ev.ID); err != nil {
			return err
		}
	}

	for _, line := range strings.Split(ev.Data, "\n") {
		if _, err := fmt.Fprintf(w, "data: %s\n", line); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, "\n")
	return err
}

// WriteComment writes an SSE comment line, useful as a keep-alive.
func WriteComment(w io.Writer, comment string) error {
	_, err := fmt.Fprintf(w, ": %s\n\n", comment)
	return err
}
