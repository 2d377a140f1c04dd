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
	"testing"
	"time"
)

// datasetSpanning builds a dataset with one visit segment at each of the
// given times.
func datasetSpanning(times ...time.Time) *Dataset {
	var segments []Segment
	for _, ts := range times {
		loc := LatLng{1, 1}
		segments = append(segments, testSegment(ts, &loc))
	}
	ds := &Dataset{Segments: segments}
	for i, seg := range segments {
		if i == 0 || seg.StartTime.Before(ds.TripStart) {
			ds.TripStart = seg.StartTime
		}
		if seg.EndTime.After(ds.TripEnd) {
			ds.TripEnd = seg.EndTime
		}
	}
	return ds
}

func TestColorBandsSingleYear(t *testing.T) {
	ds := datasetSpanning(
		time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC),
	)

	bands := ds.ColorBands()
	if len(bands) != 3 {
		t.Fatalf("expected one band per month (3), got %d", len(bands))
	}

	expected := []struct {
		label string
		color string
	}{
		{"June 2025", routePalette[5]},   // month 6
		{"July 2025", routePalette[6]},   // month 7
		{"August 2025", routePalette[7]}, // month 8
	}
	for i, want := range expected {
		if bands[i].Label != want.label {
			t.Errorf("Test %d: expected label %q, got %q", i, want.label, bands[i].Label)
		}
		if bands[i].Color != want.color {
			t.Errorf("Test %d: expected color %s, got %s", i, want.color, bands[i].Color)
		}
	}

	// the first month begins before the trip does, so its band is clamped
	// to 0; later bands must be strictly increasing and within range
	if bands[0].StartPercent != 0 {
		t.Errorf("expected first band clamped to 0%%, got %f", bands[0].StartPercent)
	}
	for i := 1; i < len(bands); i++ {
		if bands[i].StartPercent <= bands[i-1].StartPercent {
			t.Errorf("expected band %d to start after band %d: %f vs %f",
				i, i-1, bands[i].StartPercent, bands[i-1].StartPercent)
		}
		if bands[i].StartPercent > 100 {
			t.Errorf("band %d start out of range: %f", i, bands[i].StartPercent)
		}
	}
}

func TestColorBandsMultiYear(t *testing.T) {
	ds := datasetSpanning(
		time.Date(2024, 11, 20, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 28, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
	)

	bands := ds.ColorBands()
	if len(bands) != 2 {
		t.Fatalf("expected one band per year (2), got %d", len(bands))
	}
	if bands[0].Label != "2024" || bands[1].Label != "2025" {
		t.Errorf("expected year labels 2024 and 2025, got %q and %q",
			bands[0].Label, bands[1].Label)
	}
	if bands[0].Color != routePalette[0] || bands[1].Color != routePalette[1] {
		t.Errorf("expected year-rank colors, got %s and %s", bands[0].Color, bands[1].Color)
	}
	if bands[0].StartPercent != 0 {
		t.Errorf("expected first year band clamped to 0%%, got %f", bands[0].StartPercent)
	}
	if bands[1].StartPercent <= 0 || bands[1].StartPercent >= 100 {
		t.Errorf("expected 2025 boundary inside the trip, got %f", bands[1].StartPercent)
	}
}

func TestColorBandsEmptyDataset(t *testing.T) {
	ds := &Dataset{}
	if bands := ds.ColorBands(); bands != nil {
		t.Errorf("expected nil bands for empty dataset, got %v", bands)
	}
}

func TestColorBandsDeterministic(t *testing.T) {
	ds := datasetSpanning(
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	)
	first := ds.ColorBands()
	for run := 0; run < 5; run++ {
		again := ds.ColorBands()
		if len(again) != len(first) {
			t.Fatalf("run %d: band count changed: %d vs %d", run, len(again), len(first))
		}
		for i := range first {
			if again[i] != first[i] {
				t.Errorf("run %d: band %d changed: %+v vs %+v", run, i, again[i], first[i])
			}
		}
	}
}

func TestSegmentColorMatchesBands(t *testing.T) {
	ds := datasetSpanning(
		time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC),
	)
	if got := ds.SegmentColor(ds.Segments[0]); got != routePalette[5] {
		t.Errorf("expected June color %s, got %s", routePalette[5], got)
	}
	if got := ds.SegmentColor(ds.Segments[1]); got != routePalette[6] {
		t.Errorf("expected July color %s, got %s", routePalette[6], got)
	}

	multi := datasetSpanning(
		time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
	)
	if got := multi.SegmentColor(multi.Segments[0]); got != routePalette[0] {
		t.Errorf("expected first-year color %s, got %s", routePalette[0], got)
	}
	if got := multi.SegmentColor(multi.Segments[1]); got != routePalette[1] {
		t.Errorf("expected second-year color %s, got %s", routePalette[1], got)
	}
}
