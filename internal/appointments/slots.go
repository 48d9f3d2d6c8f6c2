package appointments

import "fmt"

// Grid describes the working-hours slot grid of a doctor's day.
type Grid struct {
	StartHour    int
	EndHour      int
	IntervalMins int
}

// DefaultGrid matches clinic working hours of 08:00-18:00 in 30-minute steps.
func DefaultGrid() Grid {
	return Grid{StartHour: 8, EndHour: 18, IntervalMins: 30}
}

// Times returns every time-of-day in the grid, ordered ascending.
func (g Grid) Times() []string {
	if g.IntervalMins <= 0 || g.EndHour <= g.StartHour {
		return nil
	}
	var out []string
	for minutes := g.StartHour * 60; minutes < g.EndHour*60; minutes += g.IntervalMins {
		out = append(out, fmt.Sprintf("%02d:%02d", minutes/60, minutes%60))
	}
	return out
}

// Available filters the grid down to times not present in booked. The booked
// slice is converted to a set so membership checks stay O(1) per slot.
func (g Grid) Available(booked []string) []string {
	taken := make(map[string]struct{}, len(booked))
	for _, t := range booked {
		taken[t] = struct{}{}
	}
	var out []string
	for _, t := range g.Times() {
		if _, ok := taken[t]; !ok {
			out = append(out, t)
		}
	}
	return out
}
