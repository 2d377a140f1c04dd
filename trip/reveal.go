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
	"time"
)

// RevealState is the derived view of a dataset at one timeline position:
// which segments are shown, which destinations have been reached, and the
// running totals displayed in the sidebar. It is a pure function of the
// inputs and is recomputed on every clock change, never stored.
type RevealState struct {
	Active    bool       `json:"active"`   // false = timeline mode off, everything shown
	Position  float64    `json:"position"` // [0,100]
	Current   time.Time  `json:"current_time,omitempty"`
	Segments  []Segment  `json:"segments"`
	Reached   []bool     `json:"reached"` // parallel to Dataset.Destinations
	Totals    Aggregates `json:"totals"`
	DayNumber int        `json:"day_number,omitempty"` // set in day-by-day mode
}

// Aggregates are the running totals over a set of revealed segments.
// Distance accumulates in raw meters; unit conversion and rounding happen
// only at the presentation boundary (the Km/Miles methods).
type Aggregates struct {
	PointCount     int     `json:"point_count"`
	VisitCount     int     `json:"visit_count"`
	DistanceMeters float64 `json:"distance_meters"`
}

// Km returns the distance in kilometers rounded to two decimals for display.
func (a Aggregates) Km() float64 {
	return math.Round(a.DistanceMeters/kmToMeters*100) / 100
}

// Miles returns the distance in miles rounded to two decimals for display.
func (a Aggregates) Miles() float64 {
	return math.Round(a.DistanceMeters/metersPerMile*100) / 100
}

// Reveal computes the full reveal state of ds as seen by clock. When the
// clock is idle the entire trip is shown and every destination counts as
// reached (the static overview presents the trip as complete); when active,
// a segment is revealed once its start time passes and a destination is
// reached once any revealed segment's proximity entry includes it.
func Reveal(ds *Dataset, clock ClockSnapshot) RevealState {
	active := clock.State != ClockIdle.String()

	state := RevealState{
		Active:   active,
		Position: clock.Position,
	}

	if !active {
		state.Segments = ds.Segments
		state.Reached = allReached(len(ds.Destinations))
		state.Totals = Aggregate(ds.Segments)
		return state
	}

	state.Current = ds.PositionTimestamp(clock.Position)
	state.Segments = RevealedSegments(ds.Segments, state.Current)
	state.Reached = ReachedDestinations(state.Segments, ds.Index, len(ds.Destinations))
	state.Totals = Aggregate(state.Segments)
	return state
}

// RevealedSegments returns the segments whose start time is at or before
// current. Segments are stored sorted by start time, so the revealed set
// only ever grows as current advances.
func RevealedSegments(segments []Segment, current time.Time) []Segment {
	// segments are sorted at ingestion; the filter is a prefix
	for i, seg := range segments {
		if seg.StartTime.After(current) {
			return segments[:i]
		}
	}
	return segments
}

// ReachedDestinations returns, for each destination index, whether any of
// the revealed segments reaches it according to the proximity index. A
// missing index entry is a normal "no nearby destinations" result.
func ReachedDestinations(revealed []Segment, index ProximityIndex, numDestinations int) []bool {
	reached := make([]bool, numDestinations)
	for _, seg := range revealed {
		for _, di := range index[seg.ID] {
			if di >= 0 && di < numDestinations {
				reached[di] = true
			}
		}
	}
	return reached
}

func allReached(n int) []bool {
	reached := make([]bool, n)
	for i := range reached {
		reached[i] = true
	}
	return reached
}

// Aggregate reduces a revealed segment set to its display totals. An empty
// set yields zeroes across the board.
func Aggregate(segments []Segment) Aggregates {
	var agg Aggregates
	for _, seg := range segments {
		agg.PointCount += len(seg.Path)
		if seg.Visit != nil {
			agg.VisitCount++
		}
		if seg.Activity != nil {
			agg.DistanceMeters += seg.Activity.DistanceMeters
		}
	}
	return agg
}

// RevealDay computes the day-by-day view: the segments whose start time
// falls within day number day (1-indexed from the trip start, half-open
// 24-hour buckets). The day number is clamped to [1, TotalDays].
func RevealDay(ds *Dataset, day int) RevealState {
	total := ds.TotalDays()
	if total == 0 {
		return RevealState{Active: true, DayNumber: 0, Segments: nil,
			Reached: make([]bool, len(ds.Destinations))}
	}
	if day < 1 {
		day = 1
	}
	if day > total {
		day = total
	}

	bucketStart := ds.TripStart.Add(time.Duration(day-1) * 24 * time.Hour)
	bucketEnd := bucketStart.Add(24 * time.Hour)

	var segments []Segment
	for _, seg := range ds.Segments {
		// half-open interval: a segment starting exactly at the boundary
		// belongs to the next day
		if !seg.StartTime.Before(bucketStart) && seg.StartTime.Before(bucketEnd) {
			segments = append(segments, seg)
		}
	}

	return RevealState{
		Active:    true,
		DayNumber: day,
		Current:   bucketEnd,
		Segments:  segments,
		Reached:   ReachedDestinations(segments, ds.Index, len(ds.Destinations)),
		Totals:    Aggregate(segments),
	}
}
