package model

import (
	"fmt"
	"strings"
)

// Warning records a non-fatal degradation encountered during parse, such as
// a malformed shape node kept as a generic shape.
type Warning struct {
	Part    string // package part the problem was found in
	ShapeID int    // shape id when shape-scoped, 0 otherwise
	Message string
}

func (w Warning) String() string {
	if w.ShapeID != 0 {
		return fmt.Sprintf("%s: shape %d: %s", w.Part, w.ShapeID, w.Message)
	}
	if w.Part != "" {
		return fmt.Sprintf("%s: %s", w.Part, w.Message)
	}
	return w.Message
}

// FormatWarnings joins warnings into a single printable string.
func FormatWarnings(warnings []Warning) string {
	if len(warnings) == 0 {
		return ""
	}
	parts := make([]string, len(warnings))
	for i, w := range warnings {
		parts[i] = w.String()
	}
	return strings.Join(parts, "; ")
}
