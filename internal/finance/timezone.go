package finance

import "time"

// easternLocation returns America/New_York, falling back to fixed EST if tzdata is missing.
func easternLocation() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("EST", -5*3600)
	}
	return loc
}

// dayLabels formats timestamps as Eastern calendar days for chart axes.
func dayLabels(ts []time.Time) []string {
	et := easternLocation()
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.In(et).Format("2006-01-02")
	}
	return out
}
