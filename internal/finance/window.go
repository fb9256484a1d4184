package finance

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Window is a resolved [Start, End] range of calendar days.
type Window struct {
	Start time.Time
	End   time.Time
	Label string
}

// Default custom range of the original dashboards.
var (
	CustomStart = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	CustomEnd   = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
)

// ResolveWindow parses a window expression relative to now. Presets count back
// from today and end at tomorrow's midnight so today's bar is included by
// providers that treat End as exclusive:
//   - "" means 1y
//   - Nd, Nw, Nm, Ny (1y, 3y, 5y, 10y are the dashboard presets)
//   - "custom" is the fixed 2020-01-01..2024-01-01 range
//   - "YYYY-MM-DD YYYY-MM-DD" (or joined with ".." or ":") is explicit
func ResolveWindow(expr string, now time.Time) (Window, error) {
	s := strings.ToLower(strings.TrimSpace(expr))
	today := now.UTC().Truncate(24 * time.Hour)
	if s == "" {
		s = "1y"
	}
	if s == "custom" {
		return Window{Start: CustomStart, End: CustomEnd, Label: "2020-01-01..2024-01-01"}, nil
	}
	if w, ok, err := explicitWindow(s); ok {
		return w, err
	}

	unit := s[len(s)-1]
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return Window{}, fmt.Errorf("invalid window format: %s (use format like 30d, 6w, 3m, 1y, custom or YYYY-MM-DD YYYY-MM-DD)", expr)
	}
	var start time.Time
	switch unit {
	case 'd':
		start = today.AddDate(0, 0, -n)
	case 'w':
		start = today.AddDate(0, 0, -7*n)
	case 'm':
		start = today.AddDate(0, -n, 0)
	case 'y':
		start = today.AddDate(-n, 0, 0)
	default:
		return Window{}, fmt.Errorf("invalid window format: %s (use format like 30d, 6w, 3m, 1y, custom or YYYY-MM-DD YYYY-MM-DD)", expr)
	}
	return Window{Start: start, End: today.AddDate(0, 0, 1), Label: s}, nil
}

func explicitWindow(s string) (Window, bool, error) {
	var parts []string
	for _, sep := range []string{"..", ":", " "} {
		if strings.Contains(s, sep) {
			parts = strings.Fields(strings.ReplaceAll(s, sep, " "))
			break
		}
	}
	if len(parts) != 2 {
		return Window{}, false, nil
	}
	start, err := time.Parse("2006-01-02", parts[0])
	if err != nil {
		return Window{}, true, fmt.Errorf("invalid start date %q: %w", parts[0], err)
	}
	end, err := time.Parse("2006-01-02", parts[1])
	if err != nil {
		return Window{}, true, fmt.Errorf("invalid end date %q: %w", parts[1], err)
	}
	if !end.After(start) {
		return Window{}, true, fmt.Errorf("end date %s must be after start date %s", parts[1], parts[0])
	}
	return Window{Start: start, End: end, Label: parts[0] + ".." + parts[1]}, true, nil
}
