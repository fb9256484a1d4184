package report

import (
	"errors"
	"sort"

	"investopal/internal/analysis"
)

// ErrorMessage maps pipeline errors to the text shown to users.
func ErrorMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, analysis.ErrDataUnavailable):
		return "No data available for the selected ticker and date range."
	case errors.Is(err, analysis.ErrInsufficientHistory):
		return "Not enough price history to compute metrics; try a wider date range."
	case errors.Is(err, analysis.ErrInvalidProjectionInput):
		return "Invalid projection input: amounts and years must be zero or positive. " + err.Error()
	default:
		return "Something went wrong: " + err.Error()
	}
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// topCommands orders commands by count, then name.
func topCommands(counts map[string]int) []string {
	out := sortedKeys(counts)
	sort.SliceStable(out, func(i, j int) bool { return counts[out[i]] > counts[out[j]] })
	return out
}
