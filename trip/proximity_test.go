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
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
)

func testSegment(start time.Time, visit *LatLng, path ...LatLng) Segment {
	seg := Segment{
		ID:        uuid.New(),
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	}
	if visit != nil {
		seg.Visit = &Visit{Location: *visit, Probability: 0.9}
	}
	for _, pt := range path {
		seg.Path = append(seg.Path, PathPoint{LatLng: pt, Time: start})
	}
	return seg
}

func TestBuildProximityIndex(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	destinations := []Destination{
		{Name: "Origin", Location: LatLng{0, 0}},
		{Name: "Far", Location: LatLng{45, 45}},
	}

	nearVisit := testSegment(start, &LatLng{0.1, 0.1})
	farSegment := testSegment(start.Add(time.Hour), &LatLng{10, 10})
	nearPathEnd := testSegment(start.Add(2*time.Hour), nil,
		LatLng{20, 20}, LatLng{20.5, 20.5}, LatLng{0.2, 0.2})
	noPoints := testSegment(start.Add(3*time.Hour), nil)

	segments := []Segment{nearVisit, farSegment, nearPathEnd, noPoints}
	index := BuildProximityIndex(segments, destinations, ReachThresholdKm)

	if got := index[nearVisit.ID]; !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("expected visit segment to reach destination 0, got %v", got)
	}
	if got, ok := index[farSegment.ID]; ok {
		t.Errorf("expected far segment to have no entry (sparse), got %v", got)
	}
	if got := index[nearPathEnd.ID]; !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("expected path-end segment to reach destination 0, got %v", got)
	}
	if got, ok := index[noPoints.ID]; ok {
		t.Errorf("expected point-less segment to have no entry, got %v", got)
	}
}

func TestBuildProximityIndexDeterministic(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	var segments []Segment
	for i := 0; i < 50; i++ {
		loc := LatLng{float64(i) * 0.3, float64(i) * 0.3}
		segments = append(segments, testSegment(start.Add(time.Duration(i)*time.Hour), &loc))
	}
	destinations := []Destination{
		{Name: "A", Location: LatLng{0, 0}},
		{Name: "B", Location: LatLng{7.5, 7.5}},
		{Name: "C", Location: LatLng{14.7, 14.7}},
	}

	first := BuildProximityIndex(segments, destinations, ReachThresholdKm)
	second := BuildProximityIndex(segments, destinations, ReachThresholdKm)
	if !reflect.DeepEqual(first, second) {
		t.Error("expected identical indexes from identical inputs")
	}
}

func TestBuildProximityIndexEmptyDestinations(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	loc := LatLng{1, 1}
	segments := []Segment{testSegment(start, &loc)}

	index := BuildProximityIndex(segments, nil, ReachThresholdKm)
	if len(index) != 0 {
		t.Errorf("expected empty index for empty destination list, got %d entries", len(index))
	}
}

func TestProximityEndToEnd(t *testing.T) {
	// destination at the origin; a visit ~15.7 km away at the very start
	// of the trip must already be reached at position 0
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	destinations := []Destination{{Name: "A", Location: LatLng{0, 0}}}

	loc := LatLng{0.1, 0.1}
	seg := testSegment(start, &loc)
	far := testSegment(start.Add(48*time.Hour), &LatLng{30, 30})

	ds := &Dataset{
		Segments:     []Segment{seg, far},
		Destinations: destinations,
		TripStart:    start,
		TripEnd:      far.EndTime,
	}
	ds.Index = BuildProximityIndex(ds.Segments, destinations, ReachThresholdKm)

	atStart := Reveal(ds, ClockSnapshot{State: "paused", Position: 0})
	if len(atStart.Reached) != 1 || !atStart.Reached[0] {
		t.Errorf("expected destination A reached at position 0, got %v", atStart.Reached)
	}

	idle := Reveal(ds, ClockSnapshot{State: "idle"})
	if len(idle.Reached) != 1 || !idle.Reached[0] {
		t.Errorf("expected every destination reached when idle, got %v", idle.Reached)
	}
}
