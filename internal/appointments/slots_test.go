package appointments

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGridTimes(t *testing.T) {
	grid := DefaultGrid()
	times := grid.Times()

	assert.Len(t, times, 20)
	assert.Equal(t, "08:00", times[0])
	assert.Equal(t, "08:30", times[1])
	assert.Equal(t, "17:30", times[len(times)-1])
}

func TestGridTimesCustomInterval(t *testing.T) {
	grid := Grid{StartHour: 9, EndHour: 11, IntervalMins: 20}
	assert.Equal(t, []string{"09:00", "09:20", "09:40", "10:00", "10:20", "10:40"}, grid.Times())
}

func TestGridTimesDegenerate(t *testing.T) {
	assert.Nil(t, Grid{StartHour: 10, EndHour: 10, IntervalMins: 30}.Times())
	assert.Nil(t, Grid{StartHour: 8, EndHour: 18, IntervalMins: 0}.Times())
}

func TestAvailableExcludesBooked(t *testing.T) {
	grid := DefaultGrid()
	booked := []string{"09:00", "14:30"}

	available := grid.Available(booked)

	assert.Len(t, available, 18)
	assert.NotContains(t, available, "09:00")
	assert.NotContains(t, available, "14:30")
	assert.Contains(t, available, "08:00")
}

// Available and booked must partition the full grid.
func TestAvailablePartitionProperty(t *testing.T) {
	grid := DefaultGrid()
	booked := []string{"08:00", "08:30", "12:00", "17:30"}

	available := grid.Available(booked)

	union := make(map[string]struct{})
	for _, s := range available {
		union[s] = struct{}{}
	}
	for _, s := range booked {
		if _, dup := union[s]; dup {
			t.Fatalf("slot %s is both booked and available", s)
		}
		union[s] = struct{}{}
	}
	assert.Len(t, union, len(grid.Times()))
}

func TestAvailableIgnoresOffGridBookings(t *testing.T) {
	grid := DefaultGrid()
	// A booking outside the grid must not shrink the result.
	available := grid.Available([]string{"07:15", "19:00"})
	assert.Len(t, available, 20)
}
