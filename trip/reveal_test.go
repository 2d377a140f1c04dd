/*
	Roadtrip Map
	Copyright (c) 2025 Roadtrip Map contributors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package trip

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
)

// fiveDayDataset builds a dataset of one visit segment per day for five
// days, each within reach of its own destination.
func fiveDayDataset() *Dataset {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	var segments []Segment
	var destinations []Destination
	for i := 0; i < 5; i++ {
		loc := LatLng{float64(i) * 5, float64(i) * 5}
		segments = append(segments, testSegment(start.Add(time.Duration(i)*24*time.Hour), &loc))
		destinations = append(destinations, Destination{
			Name:     string(rune('A' + i)),
			Location: loc,
		})
	}

	ds := &Dataset{
		Segments:     segments,
		Destinations: destinations,
		TripStart:    start,
		TripEnd:      segments[len(segments)-1].EndTime,
	}
	ds.Index = BuildProximityIndex(segments, destinations, ReachThresholdKm)
	return ds
}

func TestRevealMonotonic(t *testing.T) {
	ds := fiveDayDataset()

	positions := []float64{0, 10, 25, 25.5, 50, 75, 99, 100}
	var prevSegments int
	var prevReached int
	for i, pos := range positions {
		state := Reveal(ds, ClockSnapshot{State: "paused", Position: pos})

		if len(state.Segments) < prevSegments {
			t.Errorf("Test %d: revealed set shrank from %d to %d at position %f",
				i, prevSegments, len(state.Segments), pos)
		}
		// because reveal is a prefix of the sorted segment list, count
		// monotonicity is set-inclusion monotonicity
		prevSegments = len(state.Segments)

		var reached int
		for _, r := range state.Reached {
			if r {
				reached++
			}
		}
		if reached < prevReached {
			t.Errorf("Test %d: reached set shrank from %d to %d at position %f",
				i, prevReached, reached, pos)
		}
		prevReached = reached
	}

	full := Reveal(ds, ClockSnapshot{State: "paused", Position: 100})
	if len(full.Segments) != len(ds.Segments) {
		t.Errorf("expected all %d segments revealed at position 100, got %d",
			len(ds.Segments), len(full.Segments))
	}
}

func TestRevealIdleShowsEverything(t *testing.T) {
	ds := fiveDayDataset()
	state := Reveal(ds, ClockSnapshot{State: "idle"})
	if !ds.TripStart.Before(ds.TripEnd) {
		t.Fatal("bad fixture")
	}
	if len(state.Segments) != len(ds.Segments) {
		t.Errorf("expected idle reveal to include all segments, got %d of %d",
			len(state.Segments), len(ds.Segments))
	}
	for i, r := range state.Reached {
		if !r {
			t.Errorf("expected destination %d reached in idle mode", i)
		}
	}
}

func TestAggregate(t *testing.T) {
	segments := []Segment{
		{ID: uuid.New(), Activity: &Activity{DistanceMeters: 1000}},
		{ID: uuid.New(), Activity: &Activity{DistanceMeters: 2000}},
		{ID: uuid.New(), Activity: &Activity{DistanceMeters: 1609.34}},
	}

	agg := Aggregate(segments)
	if math.Abs(agg.DistanceMeters-4609.34) > 1e-9 {
		t.Errorf("expected raw accumulation of 4609.34 m, got %f", agg.DistanceMeters)
	}
	if got := agg.Miles(); got != 2.86 {
		t.Errorf("expected 2.86 mi for display, got %f", got)
	}
	if got := agg.Km(); got != 4.61 {
		t.Errorf("expected 4.61 km for display, got %f", got)
	}
}

func TestAggregateCounts(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	loc := LatLng{1, 1}
	withVisit := testSegment(start, &loc, LatLng{1, 1}, LatLng{1.1, 1.1})
	pathOnly := testSegment(start.Add(time.Hour), nil, LatLng{2, 2}, LatLng{2.1, 2.1}, LatLng{2.2, 2.2})

	agg := Aggregate([]Segment{withVisit, pathOnly})
	if agg.PointCount != 5 {
		t.Errorf("expected 5 path points, got %d", agg.PointCount)
	}
	if agg.VisitCount != 1 {
		t.Errorf("expected 1 visit, got %d", agg.VisitCount)
	}
}

func TestEmptyDatasetSafety(t *testing.T) {
	ds := &Dataset{}

	if agg := Aggregate(nil); agg.PointCount != 0 || agg.VisitCount != 0 || agg.DistanceMeters != 0 {
		t.Errorf("expected zero aggregates for empty input, got %+v", agg)
	}
	if revealed := RevealedSegments(nil, time.Now()); len(revealed) != 0 {
		t.Errorf("expected no revealed segments for empty input, got %d", len(revealed))
	}
	if got := ds.TotalDays(); got != 0 {
		t.Errorf("expected 0 total days for empty dataset, got %d", got)
	}

	state := Reveal(ds, ClockSnapshot{State: "paused", Position: 50})
	if len(state.Segments) != 0 || state.Totals.DistanceMeters != 0 {
		t.Errorf("expected empty reveal state, got %+v", state)
	}

	day := RevealDay(ds, 3)
	if len(day.Segments) != 0 {
		t.Errorf("expected empty day view, got %d segments", len(day.Segments))
	}
}

func TestRevealDayBuckets(t *testing.T) {
	ds := fiveDayDataset()

	for i, tc := range []struct {
		day        int
		expectDay  int // after clamping
		expectSegs int
	}{
		{day: 1, expectDay: 1, expectSegs: 1},
		{day: 2, expectDay: 2, expectSegs: 1},
		{day: 0, expectDay: 1, expectSegs: 1},   // clamped up
		{day: -4, expectDay: 1, expectSegs: 1},  // clamped up
		{day: 999, expectDay: 5, expectSegs: 1}, // clamped to the last day
	} {
		state := RevealDay(ds, tc.day)
		if state.DayNumber != tc.expectDay {
			t.Errorf("Test %d: expected day %d, got %d", i, tc.expectDay, state.DayNumber)
		}
		if len(state.Segments) != tc.expectSegs {
			t.Errorf("Test %d: expected %d segments on day %d, got %d",
				i, tc.expectSegs, tc.expectDay, len(state.Segments))
		}
	}
}

func TestRevealDayBoundaryIsHalfOpen(t *testing.T) {
	// a segment starting exactly 24h after trip start belongs to day 2
	ds := fiveDayDataset()
	boundary := ds.Segments[1]
	if !boundary.StartTime.Equal(ds.TripStart.Add(24 * time.Hour)) {
		t.Fatal("fixture: second segment must start exactly at the day boundary")
	}

	day1 := RevealDay(ds, 1)
	for _, seg := range day1.Segments {
		if seg.ID == boundary.ID {
			t.Error("segment at the 24h boundary must not appear on day 1")
		}
	}
	day2 := RevealDay(ds, 2)
	found := false
	for _, seg := range day2.Segments {
		if seg.ID == boundary.ID {
			found = true
		}
	}
	if !found {
		t.Error("segment at the 24h boundary must appear on day 2")
	}
}
