package thread

import "strings"

// Default line labels.
const (
	DefaultThreadLabel = "Thread"
	DefaultStreamLabel = "Instruments"
)

// Format renders values as "<label>: { v1, v2 }". An empty list renders as
// "<label>: {  }".
func Format(label string, values []string) string {
	return label + ": { " + strings.Join(values, ", ") + " }"
}
