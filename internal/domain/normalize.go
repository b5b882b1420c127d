package domain

import (
	"strings"

	"golang.org/x/text/cases"
)

// NormalizeExerciseName is the identity used to compare exercise names:
// surrounding and repeated whitespace collapsed, then Unicode case folding.
// Display and storage keep the original name.
func NormalizeExerciseName(name string) string {
	collapsed := strings.Join(strings.Fields(name), " ")
	// A Caser holds state, so one per call.
	return cases.Fold().String(collapsed)
}
